package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"drivedup/internal/checkpoint"
	"drivedup/internal/model"
)

// CheckpointStore persists scan progress between runs.
type CheckpointStore interface {
	Save(state checkpoint.State) error
	Load() (state checkpoint.State, ok bool, err error)
	Clear() error
}

// Service is the top-level coordinator. It owns the scan loop, delegates
// detection to the pipeline, and turns strategy decisions into executed
// actions.
type Service struct {
	index       Index
	remote      RemoteStore
	checkpoints CheckpointStore
	limiter     RateLimiter
	logger      Logger
	clock       Clock
}

// NewService wires a service from its collaborators.
func NewService(index Index, remote RemoteStore, checkpoints CheckpointStore, limiter RateLimiter, logger Logger, clock Clock) *Service {
	return &Service{
		index:       index,
		remote:      remote,
		checkpoints: checkpoints,
		limiter:     limiter,
		logger:      logger,
		clock:       clock,
	}
}

// ScanOptions control a scan run.
type ScanOptions struct {
	// Resume continues from the last saved checkpoint instead of starting
	// a fresh scan.
	Resume bool

	// PageSize is the remote listing page size. Defaults to 1000.
	PageSize int

	// ChunkSize bounds each index write batch. Defaults to 100.
	ChunkSize int

	// Progress, if non-nil, is called after each page with the running
	// total of indexed files.
	Progress func(indexed int)
}

// ScanResult summarizes a completed scan.
type ScanResult struct {
	FilesIndexed int
	PagesFetched int
	Resumed      bool
	Skipped      int // records without a checksum, not indexed
}

// Scan walks the remote listing page by page and mirrors it into the index.
// A checkpoint is saved after every page, so an interrupted scan can resume
// without refetching completed pages. Records without a checksum (remote
// native documents) are skipped: they cannot participate in checksum-based
// detection.
func (s *Service) Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 100
	}

	result := &ScanResult{}
	pageToken := ""

	if opts.Resume {
		state, ok, err := s.checkpoints.Load()
		if err != nil {
			return nil, fmt.Errorf("loading scan checkpoint: %w", err)
		}
		if ok {
			pageToken = state.PageToken
			result.FilesIndexed = state.FilesScanned
			result.Resumed = true
			s.logger.Info("resuming scan from checkpoint",
				"files_scanned", state.FilesScanned, "checkpoint_age", s.clock.Now().Sub(state.UpdatedAt).String())
		} else {
			s.logger.Info("no checkpoint found, starting fresh scan")
		}
	}

	if !result.Resumed {
		if err := s.checkpoints.Clear(); err != nil {
			return nil, err
		}
		if err := s.index.Clear(); err != nil {
			return nil, fmt.Errorf("clearing index for fresh scan: %w", err)
		}
	}

	s.logger.Info("starting scan", "page_size", opts.PageSize, "resumed", result.Resumed)

	for {
		var page *Page
		err := retryTransient(ctx, s.logger, time.Second, 60*time.Second, 5, func(ctx context.Context) error {
			s.limiter.Acquire(1)
			var err error
			page, err = s.remote.ListPage(ctx, pageToken, opts.PageSize)
			return err
		})
		if err != nil {
			return result, fmt.Errorf("listing files: %w", err)
		}
		result.PagesFetched++

		indexable := make([]model.FileRecord, 0, len(page.Files))
		for _, f := range page.Files {
			if f.MD5 == "" {
				result.Skipped++
				continue
			}
			indexable = append(indexable, f)
		}

		for start := 0; start < len(indexable); start += opts.ChunkSize {
			end := min(start+opts.ChunkSize, len(indexable))
			if err := s.index.Upsert(indexable[start:end]); err != nil {
				return result, fmt.Errorf("indexing files: %w", err)
			}
		}
		result.FilesIndexed += len(indexable)

		if err := s.checkpoints.Save(checkpoint.State{
			PageToken:    page.NextPageToken,
			FilesScanned: result.FilesIndexed,
			UpdatedAt:    s.clock.Now(),
		}); err != nil {
			return result, err
		}

		if opts.Progress != nil {
			opts.Progress(result.FilesIndexed)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if err := s.checkpoints.Clear(); err != nil {
		return result, err
	}

	s.logger.Info("scan complete",
		"files_indexed", result.FilesIndexed, "pages", result.PagesFetched, "skipped", result.Skipped)
	return result, nil
}

// DetectDuplicates runs the detection pipeline over the current index.
func (s *Service) DetectDuplicates(opts DetectOptions) ([]*model.DuplicateGroup, error) {
	return NewPipeline(s.index, s.logger).DetectDuplicates(opts)
}

// IndexedFiles returns the number of non-trashed records in the index.
func (s *Service) IndexedFiles() (int, error) {
	return s.index.CountActive()
}

// PendingCheckpoint returns the saved scan checkpoint, if any.
func (s *Service) PendingCheckpoint() (checkpoint.State, bool, error) {
	return s.checkpoints.Load()
}

// DeleteOptions control planning of a deletion run.
type DeleteOptions struct {
	// Strategy names the keep/trash rule; one of StrategyNames.
	Strategy string

	// KeepPath is an optional glob; matching files are never trashed.
	KeepPath string

	// MinSize is the detection size floor in bytes.
	MinSize int64

	// ByteCompare enables the byte-verification detection pass.
	ByteCompare bool

	// AllFolders permits trashing across folders. By default only groups
	// whose members share a single folder are acted on.
	AllFolders bool
}

// DeletePlan is the full, reviewable set of actions a deletion run would
// take. Nothing has been executed yet when a plan is returned.
type DeletePlan struct {
	Strategy           string
	Groups             []*model.DuplicateGroup
	SkippedCrossFolder int
	Renames            []RenamePlan
	TrashFiles         []model.FileRecord
	SpaceReclaimable   int64
}

// PlanDeletion detects duplicates and applies the named strategy to each
// group, producing the set of renames and trashes to execute. Every group
// retains at least one member in the plan.
func (s *Service) PlanDeletion(opts DeleteOptions) (*DeletePlan, error) {
	strategy, err := GetStrategy(opts.Strategy, s.logger)
	if err != nil {
		return nil, err
	}

	groups, err := s.DetectDuplicates(DetectOptions{MinSize: opts.MinSize, ByteCompare: opts.ByteCompare})
	if err != nil {
		return nil, err
	}

	plan := &DeletePlan{Strategy: strategy.Name()}
	for _, g := range groups {
		if !opts.AllFolders && !g.AllInSameFolder() {
			plan.SkippedCrossFolder++
			continue
		}
		plan.Groups = append(plan.Groups, g)
	}
	if plan.SkippedCrossFolder > 0 {
		s.logger.Info("skipping cross-folder groups; use all-folders to include them",
			"skipped", plan.SkippedCrossFolder)
	}

	if merge, ok := strategy.(*MergeNamesStrategy); ok {
		plan.Renames = SortRenamePlans(merge.ResolveNameConflicts(plan.Groups))
	}

	for _, g := range plan.Groups {
		trash := strategy.SelectFilesToTrash(g, opts.KeepPath)
		for _, f := range trash {
			plan.TrashFiles = append(plan.TrashFiles, f)
			plan.SpaceReclaimable += f.Size
		}
	}

	s.logger.Info("deletion planned",
		"strategy", plan.Strategy, "groups", len(plan.Groups),
		"renames", len(plan.Renames), "files_to_trash", len(plan.TrashFiles),
		"space_reclaimable", plan.SpaceReclaimable)
	return plan, nil
}

// DeleteResult reports the outcome of an executed plan.
type DeleteResult struct {
	DryRun         bool
	Renames        *BatchResult
	Trash          *BatchResult
	SpaceReclaimed int64
}

// ExecutePlan carries out a deletion plan: survivor renames first, then
// trashing. With dryRun set, every action is logged and counted but nothing
// is sent to the remote. progress, if non-nil, is called once per action.
func (s *Service) ExecutePlan(ctx context.Context, plan *DeletePlan, dryRun bool, progress func()) (*DeleteResult, error) {
	executor := NewExecutor(s.remote, s.limiter, s.logger, dryRun)

	result := &DeleteResult{DryRun: dryRun}
	result.Renames = executor.RenameAll(ctx, plan.Renames, progress)
	result.Trash = executor.TrashAll(ctx, trashIDs(plan.TrashFiles), progress)

	for _, f := range plan.TrashFiles {
		if result.Trash.Results[f.ID] {
			result.SpaceReclaimed += f.Size
		}
	}

	s.logger.Info("deletion complete",
		"dry_run", dryRun,
		"renamed", result.Renames.Succeeded(),
		"trashed", result.Trash.Succeeded(),
		"failed", len(result.Renames.Errors)+len(result.Trash.Errors),
		"space_reclaimed", result.SpaceReclaimed)
	return result, nil
}

func trashIDs(files []model.FileRecord) []string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids
}

// retryTransient runs op, retrying transient remote failures with capped
// exponential backoff. Shared by the scan loop and the executor.
func retryTransient(ctx context.Context, logger Logger, baseDelay, maxDelay time.Duration, maxRetries uint64, op func(context.Context) error) error {
	backoff := retry.NewExponential(baseDelay)
	backoff = retry.WithCappedDuration(maxDelay, backoff)
	backoff = retry.WithMaxRetries(maxRetries, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			if IsTransient(err) {
				logger.Warn("transient remote failure, will retry", "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
