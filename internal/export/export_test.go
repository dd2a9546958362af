package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"drivedup/internal/config"
	"drivedup/internal/model"
)

func reportGroups() []*model.DuplicateGroup {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []*model.DuplicateGroup{
		{
			GroupID: 1,
			Size:    1024,
			MD5:     "abc",
			Files: []model.FileRecord{
				{ID: "f1", Name: "a.txt", Size: 1024, MD5: "abc", CreatedAt: modified.Add(-time.Hour), ModifiedAt: modified, Path: "/a.txt", OwnedByMe: true},
				{ID: "f2", Name: "a copy.txt", Size: 1024, MD5: "abc", CreatedAt: modified.Add(-time.Hour), ModifiedAt: modified, Path: "/a copy.txt", OwnedByMe: true},
			},
		},
		{
			GroupID: 2,
			Size:    2048,
			MD5:     "def",
			Files: []model.FileRecord{
				{ID: "f3", Name: "b.txt", Size: 2048, MD5: "def", ModifiedAt: modified, Path: "/b.txt"},
				{ID: "f4", Name: "b2.txt", Size: 2048, MD5: "def", ModifiedAt: modified, Path: "/x/b2.txt"},
				{ID: "f5", Name: "b3.txt", Size: 2048, MD5: "def", ModifiedAt: modified, Path: "/y/b3.txt"},
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, reportGroups()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}

	// Header + one row per file.
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if rows[0][0] != "group_id" || rows[0][8] != "owned_by_me" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "f1" || rows[1][3] != "1024" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[1][5] != "2024-05-01T11:00:00Z" {
		t.Errorf("created_time = %q, want RFC 3339", rows[1][5])
	}
	if rows[3][0] != "2" {
		t.Errorf("group boundary row = %v, want group 2", rows[3])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, reportGroups()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("parsing output: %v", err)
	}

	if doc["total_groups"].(float64) != 2 {
		t.Errorf("total_groups = %v, want 2", doc["total_groups"])
	}
	if doc["total_files"].(float64) != 5 {
		t.Errorf("total_files = %v, want 5", doc["total_files"])
	}
	// 1024*1 + 2048*2 wasted.
	if doc["total_wasted_space"].(float64) != 5120 {
		t.Errorf("total_wasted_space = %v, want 5120", doc["total_wasted_space"])
	}

	groups := doc["groups"].([]any)
	first := groups[0].(map[string]any)
	if first["count"].(float64) != 2 || first["wasted_size"].(float64) != 1024 {
		t.Errorf("group 1 aggregates = %v", first)
	}
	files := first["files"].([]any)
	if files[0].(map[string]any)["file_id"] != "f1" {
		t.Errorf("group 1 files = %v", files)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"total_groups": 0`) {
		t.Errorf("empty report = %s", buf.String())
	}
}

func TestFilesystemSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFilesystemSink("local", dir)
	if err != nil {
		t.Fatalf("NewFilesystemSink: %v", err)
	}
	if sink.Name() != "local" {
		t.Errorf("Name() = %q", sink.Name())
	}

	body := strings.NewReader("report contents")
	if err := sink.Put(context.Background(), "2024/duplicates.csv", body); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "2024", "duplicates.csv"))
	if err != nil {
		t.Fatalf("reading report back: %v", err)
	}
	if string(data) != "report contents" {
		t.Errorf("report = %q", data)
	}
}

func TestFilesystemSinkRequiresDir(t *testing.T) {
	if _, err := NewFilesystemSink("local", ""); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestNewSinkFromConfig(t *testing.T) {
	t.Run("filesystem", func(t *testing.T) {
		sink, err := NewSinkFromConfig(context.Background(), config.SinkConfig{
			Type: "filesystem", Name: "local", Dir: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("NewSinkFromConfig: %v", err)
		}
		if sink.Name() != "local" {
			t.Errorf("Name() = %q", sink.Name())
		}
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		_, err := NewSinkFromConfig(context.Background(), config.SinkConfig{Type: "s3", Name: "archive"})
		if err == nil {
			t.Error("expected error for missing bucket")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewSinkFromConfig(context.Background(), config.SinkConfig{Type: "ftp"}); err == nil {
			t.Error("expected error for unknown type")
		}
	})
}
