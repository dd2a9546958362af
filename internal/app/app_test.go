package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"drivedup/internal/config"
	"drivedup/internal/dedup"
	"drivedup/internal/model"
)

// testConfig builds a config backed entirely by memory and temp directories,
// with the remote seeded from the given records.
func testConfig(t *testing.T, records []model.FileRecord) *config.Config {
	t.Helper()
	base := t.TempDir()

	seedPath := filepath.Join(base, "seed.json")
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(seedPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewConfig(base)
	cfg.Index = config.IndexConfig{Type: "memory"}
	cfg.Remote = config.RemoteConfig{Type: "memory", SeedFile: seedPath}
	return cfg
}

func seedDuplicates() []model.FileRecord {
	modified := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return []model.FileRecord{
		{ID: "a", Name: "photo.jpg", Size: 1024, MD5: "x", ModifiedAt: modified, Path: "/Photos/photo.jpg", OwnedByMe: true},
		{ID: "b", Name: "photo copy.jpg", Size: 1024, MD5: "x", ModifiedAt: modified.Add(time.Hour), Path: "/Photos/photo copy.jpg", OwnedByMe: true},
		{ID: "c", Name: "unique.pdf", Size: 2048, MD5: "y", ModifiedAt: modified, Path: "/Docs/unique.pdf", OwnedByMe: true},
	}
}

func TestAppEndToEnd(t *testing.T) {
	cfg := testConfig(t, seedDuplicates())
	a, err := NewApp(cfg, "dedup-test")
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer a.Close()
	ctx := context.Background()

	// Scan.
	scan, err := a.Scan(ctx, false, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if scan.FilesIndexed != 3 {
		t.Errorf("FilesIndexed = %d, want 3", scan.FilesIndexed)
	}
	if count, _ := a.IndexedFiles(); count != 3 {
		t.Errorf("IndexedFiles = %d, want 3", count)
	}

	// Report.
	groups, err := a.Report(dedup.DetectOptions{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(groups) != 1 || groups[0].Count() != 2 {
		t.Fatalf("groups = %+v, want one group of 2", groups)
	}

	// Export to the default filesystem sink.
	destinations, err := a.ExportReport(ctx, groups, "csv")
	if err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	if len(destinations) != 1 || !strings.HasPrefix(destinations[0], "local:") {
		t.Errorf("destinations = %v", destinations)
	}
	reports, err := os.ReadDir(filepath.Join(cfg.BaseDir, "reports"))
	if err != nil || len(reports) != 1 {
		t.Errorf("report files = %v (err %v), want one file", reports, err)
	}

	// Plan and execute a deletion.
	plan, err := a.PlanDeletion(dedup.DeleteOptions{Strategy: "newest"})
	if err != nil {
		t.Fatalf("PlanDeletion: %v", err)
	}
	if len(plan.TrashFiles) != 1 || plan.TrashFiles[0].ID != "a" {
		t.Fatalf("TrashFiles = %v, want the older copy a", plan.TrashFiles)
	}

	result, err := a.ExecutePlan(ctx, plan, false, nil)
	if err != nil {
		t.Fatalf("ExecutePlan: %v", err)
	}
	if result.Trash.Succeeded() != 1 || result.SpaceReclaimed != 1024 {
		t.Errorf("result = %+v, want one trashed file and 1024 bytes reclaimed", result)
	}

	// The scan run was persisted.
	history, err := a.History(10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Operation != "dedup-test" {
		t.Errorf("history = %+v, want the persisted run", history)
	}
}

func TestAppExportReportUnknownFormat(t *testing.T) {
	cfg := testConfig(t, nil)
	a, err := NewApp(cfg, "report")
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer a.Close()

	if _, err := a.ExportReport(context.Background(), nil, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestAppCloseFinishesRun(t *testing.T) {
	cfg := testConfig(t, nil)
	a, err := NewApp(cfg, "scan")
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	if _, err := a.Scan(context.Background(), false, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	history, err := a.History(1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Status != "running" {
		t.Fatalf("history before Close = %+v", history)
	}

	// Close finalizes the run record, then releases the store. The status
	// lands in the database before the connection closes.
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
