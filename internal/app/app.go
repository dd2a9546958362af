// Package app is the application layer between the CLI and the dedup
// service. It constructs all dependencies from config, exposes high-level
// operations, and manages resource lifecycles on Close.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"drivedup/internal/checkpoint"
	"drivedup/internal/config"
	"drivedup/internal/dedup"
	"drivedup/internal/export"
	"drivedup/internal/index"
	"drivedup/internal/model"
	"drivedup/internal/ratelimit"
	"drivedup/internal/remote"
)

// App wires the service from config and exposes the CLI-facing operations.
// The caller must call Close when done.
type App struct {
	cfg     *config.Config
	store   dedup.Store
	remote  dedup.RemoteStore
	service *dedup.Service
	logger  dedup.Logger
	clock   dedup.Clock
	run     *Run
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "scan", "delete").
func NewApp(cfg *config.Config, operation string) (*App, error) {
	rs, err := remote.NewStoreFromConfig(cfg.Remote)
	if err != nil {
		return nil, fmt.Errorf("creating remote store: %w", err)
	}

	store, err := index.NewStoreFromConfig(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	checkpoints := checkpoint.NewFileStore(filepath.Join(cfg.BaseDir, "scan_checkpoint.json"))

	// Every invocation gets a unique run ID stamped on each log line, so
	// interleaved runs can be teased apart in the shared log file.
	runID := dedup.UUIDGenerator{}.New()
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapted := &slogAdapter{l: logger}
	clock := dedup.RealClock{}
	svc := dedup.NewService(store, rs, checkpoints, limiter, adapted, clock)

	return &App{
		cfg:     cfg,
		store:   store,
		remote:  rs,
		service: svc,
		logger:  adapted,
		clock:   clock,
		run:     NewRun(operation, ""),
		logFile: logFile,
	}, nil
}

// persistRun saves the run to the database, giving it an auto-increment ID.
// This should only be called for mutating commands.
func (a *App) persistRun(parameters any) error {
	if a.run.Persisted() {
		return nil
	}

	encoded, err := json.Marshal(parameters)
	if err != nil {
		return fmt.Errorf("encoding run parameters: %w", err)
	}
	a.run.Parameters = string(encoded)

	id, err := a.store.CreateRun(a.run.Operation, a.run.Parameters)
	if err != nil {
		return fmt.Errorf("persisting run: %w", err)
	}
	a.run.ID = id
	return nil
}

// Scan mirrors the remote listing into the index. With resume set, it
// continues from the last saved checkpoint.
func (a *App) Scan(ctx context.Context, resume bool, progress func(indexed int)) (*dedup.ScanResult, error) {
	opts := dedup.ScanOptions{
		Resume:    resume,
		PageSize:  a.cfg.Scan.PageSize,
		ChunkSize: a.cfg.Scan.ChunkSize,
		Progress:  progress,
	}
	if err := a.persistRun(map[string]any{"resume": resume, "page_size": opts.PageSize}); err != nil {
		return nil, err
	}

	result, err := a.service.Scan(ctx, opts)
	if err != nil {
		a.run.Status = "failed"
	}
	return result, err
}

// Report detects duplicate groups over the current index.
func (a *App) Report(opts dedup.DetectOptions) ([]*model.DuplicateGroup, error) {
	return a.service.DetectDuplicates(opts)
}

// ExportReport renders the groups in the given format ("csv" or "json") and
// delivers the document to every configured sink. Returns the delivery
// destinations as "sink:key" strings.
func (a *App) ExportReport(ctx context.Context, groups []*model.DuplicateGroup, format string) ([]string, error) {
	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := export.WriteCSV(&buf, groups); err != nil {
			return nil, err
		}
	case "json":
		if err := export.WriteJSON(&buf, groups); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown report format: %s", format)
	}

	if len(a.cfg.Report.Sinks) == 0 {
		return nil, fmt.Errorf("no report sinks configured")
	}

	key := fmt.Sprintf("duplicates_%s.%s", a.clock.Now().UTC().Format("20060102T150405Z"), format)

	var destinations []string
	for _, sinkCfg := range a.cfg.Report.Sinks {
		sink, err := export.NewSinkFromConfig(ctx, sinkCfg)
		if err != nil {
			return destinations, fmt.Errorf("creating sink %s: %w", sinkCfg.Name, err)
		}
		if err := sink.Put(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
			return destinations, fmt.Errorf("delivering report to %s: %w", sink.Name(), err)
		}
		destinations = append(destinations, sink.Name()+":"+key)
		a.logger.Info("report delivered", "sink", sink.Name(), "key", key)
	}
	return destinations, nil
}

// PlanDeletion detects duplicates and plans the actions for the given options.
func (a *App) PlanDeletion(opts dedup.DeleteOptions) (*dedup.DeletePlan, error) {
	return a.service.PlanDeletion(opts)
}

// ExecutePlan carries out a deletion plan. Only a real execution (dryRun
// false) is recorded in run history.
func (a *App) ExecutePlan(ctx context.Context, plan *dedup.DeletePlan, dryRun bool, progress func()) (*dedup.DeleteResult, error) {
	if !dryRun {
		params := map[string]any{
			"strategy": plan.Strategy,
			"renames":  len(plan.Renames),
			"trash":    len(plan.TrashFiles),
		}
		if err := a.persistRun(params); err != nil {
			return nil, err
		}
	}

	result, err := a.service.ExecutePlan(ctx, plan, dryRun, progress)
	if err != nil {
		a.run.Status = "failed"
	}
	return result, err
}

// DeleteDefaults returns the configured default deletion options.
func (a *App) DeleteDefaults() config.DeleteConfig {
	return a.cfg.Delete
}

// IndexedFiles returns the number of non-trashed records in the index.
func (a *App) IndexedFiles() (int, error) {
	return a.service.IndexedFiles()
}

// PendingCheckpoint returns the saved scan checkpoint, if any.
func (a *App) PendingCheckpoint() (checkpoint.State, bool, error) {
	return a.service.PendingCheckpoint()
}

// History returns the most recent runs, newest first.
func (a *App) History(limit int) ([]model.Run, error) {
	return a.store.ListRuns(limit)
}

// SetFailed marks the current run failed before Close.
func (a *App) SetFailed() {
	a.run.Status = "failed"
}

// Close finalizes the run record and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.run.Persisted() {
		if err := a.store.FinishRun(a.run.ID, a.run.Status); err != nil {
			firstErr = fmt.Errorf("finishing run: %w", err)
		}
	}

	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing index: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
