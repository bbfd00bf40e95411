package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/DavidStojani/pdf-management-sub000/internal/bus"
	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/recovery"
)

// Daemon coordinates the event bus workers and the recovery scheduler, and
// enforces single-instance execution through a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *docstore.Store
	bus       *bus.Bus
	scheduler *recovery.Scheduler
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DatabasePath string
	LockFilePath string
	LogFilePath  string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *docstore.Store, eventBus *bus.Bus, scheduler *recovery.Scheduler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || eventBus == nil || scheduler == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, bus, scheduler, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "pdfd.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:     store,
		bus:       eventBus,
		scheduler: scheduler,
		logPath:   filepath.Join(cfg.Paths.LogDir, "pdfd.log"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, launches the bus worker pools, and begins
// the recovery sweep loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another pdfd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.bus.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start event bus: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.scheduler.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("recovery scheduler exited", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("pdfd started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the recovery loop, drains the bus, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	// The scheduler stops publishing before the bus closes its channels.
	d.wg.Wait()
	d.bus.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("pdfd stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		LogFilePath:  d.logPath,
	}
}
