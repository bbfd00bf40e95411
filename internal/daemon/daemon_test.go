package daemon_test

import (
	"context"
	"testing"

	"github.com/DavidStojani/pdf-management-sub000/internal/bus"
	"github.com/DavidStojani/pdf-management-sub000/internal/daemon"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/recovery"
	"github.com/DavidStojani/pdf-management-sub000/internal/testsupport"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Recovery.Enabled = false
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	eventBus := bus.New(logger, cfg.Workflow.EventBuffer)
	scheduler := recovery.NewScheduler(cfg, store, eventBus, logger)

	d, err := daemon.New(cfg, store, eventBus, scheduler, logger)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected running status after start")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected stopped status after stop")
	}
}

func TestDaemonStatusPaths(t *testing.T) {
	d := newDaemon(t)

	status := d.Status()
	if status.DatabasePath == "" || status.LockFilePath == "" || status.LogFilePath == "" {
		t.Fatalf("expected populated status paths, got %#v", status)
	}
}
