package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/services"
)

// HandlerFunc processes a single document event. The context carries the
// delivery's correlation ID and the document ID for logging.
type HandlerFunc func(ctx context.Context, documentID int64) error

// Event names the stage a document is ready for.
type Event struct {
	Stage      document.Stage
	DocumentID int64
}

var (
	// ErrStopped is returned by Publish after the bus has shut down.
	ErrStopped = errors.New("event bus stopped")
	// ErrNoSubscriber is returned when no handler is registered for the
	// event's stage.
	ErrNoSubscriber = errors.New("no subscriber for stage")
)

type subscription struct {
	stage   document.Stage
	workers int
	handler HandlerFunc
	ch      chan Event
}

// Bus is an in-process event bus with a worker pool per stage. Delivery is
// at-least-once: callers publish only after their database write commits, and
// handlers are expected to tolerate duplicate deliveries.
type Bus struct {
	logger *slog.Logger
	buffer int

	mu      sync.Mutex
	subs    map[document.Stage]*subscription
	started bool
	stopped bool

	publishers sync.WaitGroup
	wg         sync.WaitGroup
}

// New constructs a bus whose per-stage channels hold up to buffer pending
// events.
func New(logger *slog.Logger, buffer int) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Bus{
		logger: logger.With(logging.String(logging.FieldComponent, "bus")),
		buffer: buffer,
		subs:   make(map[document.Stage]*subscription),
	}
}

// Subscribe registers the handler for a stage with the given worker count.
// It must be called before Start; a second subscription for the same stage
// is an error.
func (b *Bus) Subscribe(stage document.Stage, workers int, handler HandlerFunc) error {
	if handler == nil {
		return errors.New("nil handler")
	}
	if workers <= 0 {
		workers = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return errors.New("subscribe after start")
	}
	if _, exists := b.subs[stage]; exists {
		return fmt.Errorf("stage %s already subscribed", stage)
	}
	b.subs[stage] = &subscription{
		stage:   stage,
		workers: workers,
		handler: handler,
		ch:      make(chan Event, b.buffer),
	}
	return nil
}

// Start launches the worker pools. The provided context is the parent of
// every handler invocation; cancelling it aborts in-flight handlers.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return errors.New("bus already started")
	}
	b.started = true

	for _, sub := range b.subs {
		for i := 0; i < sub.workers; i++ {
			b.wg.Add(1)
			go b.runWorker(ctx, sub)
		}
	}
	return nil
}

// Publish enqueues an event for the stage's worker pool. It blocks when the
// stage channel is full and fails once the bus has stopped.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return ErrStopped
	}
	sub, ok := b.subs[event.Stage]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoSubscriber, event.Stage)
	}
	// Registered under the lock so Stop cannot close the channel while this
	// publisher is still in flight.
	b.publishers.Add(1)
	b.mu.Unlock()
	defer b.publishers.Done()

	select {
	case sub.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new publishers, waits for in-flight ones to finish, then
// closes the stage channels and waits for workers to drain the events
// already queued.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.mu.Unlock()

	b.publishers.Wait()

	b.mu.Lock()
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) runWorker(ctx context.Context, sub *subscription) {
	defer b.wg.Done()
	for event := range sub.ch {
		b.dispatch(ctx, sub, event)
	}
}

func (b *Bus) dispatch(ctx context.Context, sub *subscription, event Event) {
	correlationID := uuid.NewString()
	handlerCtx := services.WithRequestID(ctx, correlationID)
	handlerCtx = services.WithDocumentID(handlerCtx, event.DocumentID)
	handlerCtx = services.WithStage(handlerCtx, string(sub.stage))

	logger := b.logger.With(
		logging.String(logging.FieldStage, string(sub.stage)),
		logging.Int64(logging.FieldDocumentID, event.DocumentID),
		logging.String(logging.FieldCorrelationID, correlationID),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", logging.Any("panic", r))
		}
	}()

	logger.Debug("dispatching event")
	if err := sub.handler(handlerCtx, event.DocumentID); err != nil {
		logger.Error("handler failed", logging.Error(err))
		return
	}
	logger.Debug("event handled")
}
