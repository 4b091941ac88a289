// Package collector orchestrates one collection run: fetch, normalize, diff,
// persist, notify, under single-flight locking and a bounded retry policy.
package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/petrescueapp/data-collector/internal/clock"
	"github.com/petrescueapp/data-collector/internal/diff"
	"github.com/petrescueapp/data-collector/internal/metrics"
	"github.com/petrescueapp/data-collector/internal/model"
	"github.com/petrescueapp/data-collector/internal/notify"
	"github.com/petrescueapp/data-collector/internal/scrape"
)

// SnapshotStore is the persisted prior record set.
type SnapshotStore interface {
	Load() ([]model.Record, error)
	Save(records []model.Record) error
}

// OutputWriter emits the downstream artifact.
type OutputWriter interface {
	Write(records []model.Record, result diff.Result) (string, error)
}

// Config tunes the run.
type Config struct {
	LockPath    string
	MaxAttempts int
	BackoffBase time.Duration
	Concurrency int
}

// Summary is what one run reports back.
type Summary struct {
	ExecutionID    string
	Success        bool
	TotalCollected int
	NewCount       int
	UpdatedCount   int
	DeletedCount   int
	Errors         []string
	Elapsed        time.Duration
}

// Service sequences the pipeline. One Service runs one collection at a time;
// cross-process exclusion goes through the marker file.
type Service struct {
	source   scrape.Source
	store    SnapshotStore
	writer   OutputWriter
	notifier notify.Notifier
	recorder *metrics.Recorder
	clock    clock.Clock
	logger   *zap.Logger
	lock     *fileLock
	retry    *retryPolicy
	cfg      Config

	// pause is swapped out by tests to avoid real backoff sleeps.
	pause func(ctx context.Context, d time.Duration)
}

// New wires a Service. The recorder may be nil.
func New(
	source scrape.Source,
	store SnapshotStore,
	writer OutputWriter,
	notifier notify.Notifier,
	recorder *metrics.Recorder,
	clk clock.Clock,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.LockPath == "" {
		cfg.LockPath = ".collector.lock"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		source:   source,
		store:    store,
		writer:   writer,
		notifier: notifier,
		recorder: recorder,
		clock:    clk,
		logger:   logger,
		lock:     &fileLock{path: cfg.LockPath},
		retry:    newRetryPolicy(cfg.MaxAttempts, cfg.BackoffBase),
		cfg:      cfg,
		pause:    pause,
	}
}

// runState carries the flags a single run accumulates across goroutines.
type runState struct {
	structureChanged atomic.Bool
	skipped          atomic.Int64
}

// Run executes one collection and always returns a Summary; errors surface
// only through Summary.Errors and the success flag. The lock is released on
// every exit path.
func (s *Service) Run(ctx context.Context) Summary {
	start := s.clock.Now()
	executionID := uuid.NewString()
	logger := s.logger.With(
		zap.String("execution_id", executionID),
		zap.String("site", s.source.Name()),
	)

	if err := s.lock.Acquire(); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			logger.Warn("collection already running, skipping")
		} else {
			logger.Error("failed to acquire lock", zap.Error(err))
		}
		return s.finish(Summary{ExecutionID: executionID, Errors: []string{err.Error()}}, start)
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			logger.Error("failed to release lock", zap.Error(err))
		}
	}()

	logger.Info("starting collection")

	state := &runState{}
	records, err := s.collect(ctx, logger, state)
	if err != nil {
		if state.structureChanged.Load() {
			s.alertStructureChanged(ctx, err)
		}
		logger.Error("collection failed", zap.Error(err))
		return s.finish(Summary{ExecutionID: executionID, Errors: []string{err.Error()}}, start)
	}

	// The alert fires as soon as extraction is done, so a failure in any of
	// the persistence steps below cannot suppress it.
	if state.structureChanged.Load() {
		s.alertStructureChanged(ctx, nil)
	}

	previous, err := s.store.Load()
	if err != nil {
		logger.Error("failed to load snapshot", zap.Error(err))
		return s.finish(Summary{ExecutionID: executionID, Errors: []string{err.Error()}}, start)
	}

	result := diff.Classify(records, previous)

	if len(result.New) > 0 {
		// Best effort: the notifier swallows its own failures.
		s.notifier.NotifyNew(ctx, result.New)
	}

	// Output first, snapshot second: a crash in between still leaves a
	// snapshot consistent with a completed output.
	outputPath, err := s.writer.Write(records, result)
	if err != nil {
		logger.Error("failed to write output", zap.Error(err))
		return s.finish(Summary{ExecutionID: executionID, Errors: []string{err.Error()}}, start)
	}
	if err := s.store.Save(records); err != nil {
		logger.Error("failed to save snapshot", zap.Error(err))
		return s.finish(Summary{ExecutionID: executionID, Errors: []string{err.Error()}}, start)
	}

	summary := Summary{
		ExecutionID:    executionID,
		Success:        true,
		TotalCollected: len(records),
		NewCount:       len(result.New),
		UpdatedCount:   len(result.Updated),
		DeletedCount:   len(result.DeletedCandidates),
	}
	if s.recorder != nil {
		s.recorder.RecordDiff(summary.TotalCollected, summary.NewCount, summary.UpdatedCount, summary.DeletedCount)
	}
	summary = s.finish(summary, start)

	logger.Info("collection completed",
		zap.String("output", outputPath),
		zap.Int("total_count", summary.TotalCollected),
		zap.Int("new_count", summary.NewCount),
		zap.Int("updated_count", summary.UpdatedCount),
		zap.Int("deleted_count", summary.DeletedCount),
		zap.Int64("skipped_pages", state.skipped.Load()),
		zap.Float64("elapsed_seconds", summary.Elapsed.Seconds()),
	)
	return summary
}

// collect lists the detail pages (with listing-step retries) and extracts
// them concurrently. Per-page failures are skips, never run failures.
func (s *Service) collect(ctx context.Context, logger *zap.Logger, state *runState) ([]model.Record, error) {
	detailURLs, err := s.listWithRetry(ctx, logger, state)
	if err != nil {
		return nil, err
	}
	logger.Info("listing succeeded", zap.Int("detail_pages", len(detailURLs)))

	results := make([]*model.Record, len(detailURLs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.Concurrency)
	for i, detailURL := range detailURLs {
		i, detailURL := i, detailURL
		group.Go(func() error {
			record, ok := s.collectOne(groupCtx, logger, state, detailURL)
			if ok {
				results[i] = &record
			}
			return nil
		})
	}
	// The tasks never return errors; one page failing must not cancel its
	// siblings.
	_ = group.Wait()

	records := make([]model.Record, 0, len(results))
	for _, record := range results {
		if record != nil {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (s *Service) listWithRetry(ctx context.Context, logger *zap.Logger, state *runState) ([]string, error) {
	for attempt := 1; ; attempt++ {
		detailURLs, err := s.source.ListDetailPages(ctx)
		if err == nil {
			return detailURLs, nil
		}

		var structErr *scrape.StructureError
		if errors.As(err, &structErr) {
			// Never retried: the site layout changed.
			state.structureChanged.Store(true)
			return nil, err
		}
		if !s.retry.ShouldRetry(err, attempt) {
			logger.Error("listing failed after retries",
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return nil, err
		}
		delay := s.retry.Backoff(attempt)
		logger.Warn("listing failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		s.pause(ctx, delay)
	}
}

// collectOne handles one detail page end to end. Any failure is converted to
// a skip; structure mismatches additionally flip the run's structure flag.
func (s *Service) collectOne(ctx context.Context, logger *zap.Logger, state *runState, detailURL string) (model.Record, bool) {
	raw, err := s.source.ExtractRaw(ctx, detailURL)
	if err != nil {
		var structErr *scrape.StructureError
		if errors.As(err, &structErr) {
			state.structureChanged.Store(true)
		}
		s.skipPage(logger, state, detailURL, err)
		return model.Record{}, false
	}
	record, err := s.source.Canonicalize(raw)
	if err != nil {
		s.skipPage(logger, state, detailURL, err)
		return model.Record{}, false
	}
	if s.recorder != nil {
		s.recorder.RecordPage("ok")
	}
	return record, true
}

func (s *Service) skipPage(logger *zap.Logger, state *runState, detailURL string, err error) {
	state.skipped.Add(1)
	if s.recorder != nil {
		s.recorder.RecordPage("skipped")
	}
	logger.Warn("skipping detail page",
		zap.String("url", detailURL),
		zap.Error(err),
	)
}

func (s *Service) alertStructureChanged(ctx context.Context, cause error) {
	details := map[string]string{"site": s.source.Name()}
	if cause != nil {
		details["error"] = cause.Error()
	}
	s.notifier.Alert(ctx, notify.LevelCritical, "Page structure changed", details)
}

func (s *Service) finish(summary Summary, start time.Time) Summary {
	summary.Elapsed = s.clock.Now().Sub(start)
	if s.recorder != nil {
		s.recorder.RecordRun(summary.Success, summary.Elapsed)
	}
	return summary
}
