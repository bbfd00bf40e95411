package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DavidStojani/pdf-management-sub000/internal/bus"
	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
)

// Publisher re-dispatches stage events for recovered documents.
type Publisher interface {
	Publish(ctx context.Context, event bus.Event) error
}

// Scheduler periodically sweeps the store for documents the pipeline lost:
// parked failures whose backoff elapsed, stalled in-progress work from dead
// workers, and documents whose dispatch event never arrived.
type Scheduler struct {
	store     *docstore.Store
	publisher Publisher
	logger    *slog.Logger

	enabled    bool
	interval   time.Duration
	batchSize  int
	staleAfter time.Duration
}

// NewScheduler builds a scheduler from the recovery configuration.
func NewScheduler(cfg *config.Config, store *docstore.Store, publisher Publisher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:      store,
		publisher:  publisher,
		logger:     logger.With(logging.String(logging.FieldComponent, "recovery")),
		enabled:    cfg.Recovery.Enabled,
		interval:   time.Duration(cfg.Recovery.IntervalSeconds) * time.Second,
		batchSize:  cfg.Recovery.BatchSize,
		staleAfter: time.Duration(cfg.Recovery.StaleAfterMinutes) * time.Minute,
	}
}

// Run sweeps once at startup and then on the configured interval until the
// context is cancelled. When recovery is disabled it returns immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("recovery disabled")
		return nil
	}

	s.logger.Info("recovery started",
		logging.Duration("interval", s.interval),
		logging.Int("batch_size", s.batchSize),
	)

	// Sweep once at startup so work left over from the previous run, and
	// uploads that arrived while the daemon was down, do not wait a full
	// interval.
	if err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("sweep failed", logging.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("sweep failed", logging.Error(err))
			}
		}
	}
}

// Sweep runs one recovery pass: stalled in-progress documents are marked
// failed so the normal retry accounting applies, lost dispatch events are
// republished, and parked failures whose backoff elapsed are re-dispatched
// to their stage.
func (s *Scheduler) Sweep(ctx context.Context) error {
	now := time.Now().UTC()

	var errs []error
	if err := s.reclaimStalled(ctx, now); err != nil {
		errs = append(errs, err)
	}
	if err := s.redispatchAwaiting(ctx, now); err != nil {
		errs = append(errs, err)
	}
	for _, stage := range document.Stages() {
		if err := s.dispatchRetryable(ctx, stage, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reclaimStalled marks in-progress documents older than the stale cutoff as
// failed. The retry counter and backoff apply to them like any other
// failure, so a document that stalls repeatedly eventually exhausts its
// budget instead of looping forever.
func (s *Scheduler) reclaimStalled(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.staleAfter)
	stalled, err := s.store.FindStaleInProgress(ctx, cutoff, s.batchSize)
	if err != nil {
		return fmt.Errorf("find stalled documents: %w", err)
	}

	for _, doc := range stalled {
		stage, ok := document.StageForStatus(doc.Status)
		if !ok {
			continue
		}
		if err := s.store.MarkStageFailure(ctx, doc.ID, stage, errors.New("processing stalled")); err != nil {
			s.logger.Error("reclaiming stalled document failed",
				logging.Int64(logging.FieldDocumentID, doc.ID),
				logging.Error(err),
			)
			continue
		}
		s.logger.Warn("stalled document reclaimed",
			logging.Int64(logging.FieldDocumentID, doc.ID),
			logging.String(logging.FieldStage, string(stage)),
		)
	}
	return nil
}

// redispatchAwaiting publishes stage events for documents sitting in an
// entry status: freshly uploaded documents whose ingest had no bus to
// publish to, and documents whose event was lost to a crash. Duplicate
// events are harmless; the stage claim collapses them.
func (s *Scheduler) redispatchAwaiting(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.staleAfter)
	waiting, err := s.store.FindAwaitingDispatch(ctx, cutoff, s.batchSize)
	if err != nil {
		return fmt.Errorf("find waiting documents: %w", err)
	}

	for _, doc := range waiting {
		stage, ok := document.StageAwaiting(doc.Status)
		if !ok {
			continue
		}
		if err := s.publisher.Publish(ctx, bus.Event{Stage: stage, DocumentID: doc.ID}); err != nil {
			s.logger.Error("republishing stage event failed",
				logging.Int64(logging.FieldDocumentID, doc.ID),
				logging.Error(err),
			)
			continue
		}
		s.logger.Info("awaiting document dispatched",
			logging.Int64(logging.FieldDocumentID, doc.ID),
			logging.String(logging.FieldStage, string(stage)),
		)
	}
	return nil
}

// dispatchRetryable re-dispatches parked failures whose backoff window has
// elapsed and whose retry budget is not exhausted.
func (s *Scheduler) dispatchRetryable(ctx context.Context, stage document.Stage, now time.Time) error {
	due, err := s.store.FindRetryable(ctx, stage, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("find retryable %s documents: %w", stage, err)
	}

	for _, doc := range due {
		if err := s.publisher.Publish(ctx, bus.Event{Stage: stage, DocumentID: doc.ID}); err != nil {
			s.logger.Error("dispatching retry failed",
				logging.Int64(logging.FieldDocumentID, doc.ID),
				logging.Error(err),
			)
			continue
		}
		s.logger.Info("retry dispatched",
			logging.Int64(logging.FieldDocumentID, doc.ID),
			logging.String(logging.FieldStage, string(stage)),
			logging.Int("attempt", doc.Retry(stage).Count+1),
		)
	}
	return nil
}
