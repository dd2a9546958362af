package namemerge

import (
	"fmt"
	"strings"
	"time"
)

// Merger fuses the filenames of content-identical files into a single name
// that preserves every member's meaningful information. The zero value is
// ready to use.
type Merger struct {
	parser Parser
}

// NewMerger creates a Merger.
func NewMerger() *Merger { return &Merger{} }

// MergeNames merges the given filenames into one. Rules:
//
//   - extension: first non-empty extension in input order
//   - date: the oldest date extracted from any name (earliest capture wins)
//   - time: the first time token in input order, appended only with a date
//   - words: case-insensitive union, first-seen order, original case kept
//
// The parts are hyphen-joined as date[-time]-word1-word2-... If nothing was
// extracted, the first non-generic original name is returned verbatim, or the
// very first name when all are generic.
//
// fileSize > 0 appends a human-readable size suffix; callers use it to force
// uniqueness when two groups would otherwise merge to the same name.
func (m *Merger) MergeNames(filenames []string, fileSize int64) string {
	if len(filenames) == 0 {
		return ""
	}
	if len(filenames) == 1 {
		return filenames[0]
	}

	components := make([]Components, len(filenames))
	for i, name := range filenames {
		components[i] = m.parser.Parse(name)
	}

	ext := ""
	for _, c := range components {
		if c.Ext != "" {
			ext = c.Ext
			break
		}
	}

	var oldest time.Time
	for _, c := range components {
		for _, d := range c.Dates {
			if oldest.IsZero() || d.Before(oldest) {
				oldest = d
			}
		}
	}

	firstTime := ""
	for _, c := range components {
		if len(c.Times) > 0 {
			firstTime = c.Times[0]
			break
		}
	}

	var words []string
	seen := make(map[string]bool)
	for _, c := range components {
		for _, w := range c.Words {
			lower := strings.ToLower(w)
			if !seen[lower] {
				words = append(words, w)
				seen[lower] = true
			}
		}
	}

	var parts []string
	if !oldest.IsZero() {
		dateStr := oldest.Format("2006-01-02")
		if firstTime != "" {
			dateStr += "-" + firstTime
		}
		parts = append(parts, dateStr)
	}
	parts = append(parts, words...)

	if len(parts) == 0 {
		for i, c := range components {
			if !c.Generic {
				return filenames[i]
			}
		}
		return filenames[0]
	}

	merged := strings.Join(parts, "-")
	if fileSize > 0 {
		merged += "-" + humanSize(fileSize)
	}
	return merged + ext
}

// humanSize renders a size as an integer-truncated B/KB/MB/GB suffix.
func humanSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%dB", size)
	case size < 1024*1024:
		return fmt.Sprintf("%dKB", size/1024)
	case size < 1024*1024*1024:
		return fmt.Sprintf("%dMB", size/(1024*1024))
	default:
		return fmt.Sprintf("%dGB", size/(1024*1024*1024))
	}
}
