// Package export renders duplicate-group reports as CSV or JSON and delivers
// them to configured sinks.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"drivedup/internal/model"
)

// WriteCSV writes one row per file, duplicates grouped by group_id.
func WriteCSV(w io.Writer, groups []*model.DuplicateGroup) error {
	cw := csv.NewWriter(w)

	header := []string{
		"group_id", "file_id", "name", "size", "md5",
		"created_time", "modified_time", "path", "owned_by_me",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, g := range groups {
		for _, f := range g.Files {
			row := []string{
				strconv.Itoa(g.GroupID),
				f.ID,
				f.Name,
				strconv.FormatInt(f.Size, 10),
				f.MD5,
				f.CreatedAt.Format(time.RFC3339),
				f.ModifiedAt.Format(time.RFC3339),
				f.Path,
				strconv.FormatBool(f.OwnedByMe),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing CSV row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// jsonReport is the JSON report document.
type jsonReport struct {
	TotalGroups      int         `json:"total_groups"`
	TotalFiles       int         `json:"total_files"`
	TotalWastedSpace int64       `json:"total_wasted_space"`
	Groups           []jsonGroup `json:"groups"`
}

type jsonGroup struct {
	GroupID    int        `json:"group_id"`
	Size       int64      `json:"size"`
	MD5        string     `json:"md5"`
	Count      int        `json:"count"`
	WastedSize int64      `json:"wasted_size"`
	Files      []jsonFile `json:"files"`
}

type jsonFile struct {
	FileID       string `json:"file_id"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	MD5          string `json:"md5"`
	CreatedTime  string `json:"created_time"`
	ModifiedTime string `json:"modified_time"`
	Path         string `json:"path"`
	OwnedByMe    bool   `json:"owned_by_me"`
}

// WriteJSON writes the full report document with per-group aggregates and
// overall totals.
func WriteJSON(w io.Writer, groups []*model.DuplicateGroup) error {
	report := jsonReport{
		TotalGroups: len(groups),
		Groups:      make([]jsonGroup, 0, len(groups)),
	}

	for _, g := range groups {
		report.TotalFiles += g.Count()
		report.TotalWastedSpace += g.WastedSize()

		jg := jsonGroup{
			GroupID:    g.GroupID,
			Size:       g.Size,
			MD5:        g.MD5,
			Count:      g.Count(),
			WastedSize: g.WastedSize(),
			Files:      make([]jsonFile, 0, len(g.Files)),
		}
		for _, f := range g.Files {
			jg.Files = append(jg.Files, jsonFile{
				FileID:       f.ID,
				Name:         f.Name,
				Size:         f.Size,
				MD5:          f.MD5,
				CreatedTime:  f.CreatedAt.Format(time.RFC3339),
				ModifiedTime: f.ModifiedAt.Format(time.RFC3339),
				Path:         f.Path,
				OwnedByMe:    f.OwnedByMe,
			})
		}
		report.Groups = append(report.Groups, jg)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}
