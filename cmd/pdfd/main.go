package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/DavidStojani/pdf-management-sub000/internal/bus"
	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/daemon"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
	"github.com/DavidStojani/pdf-management-sub000/internal/recovery"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := docstore.Open(cfg)
	if err != nil {
		logger.Error("open document store", logging.Error(err))
		return
	}

	eventBus := bus.New(logger, cfg.Workflow.EventBuffer)
	if err := registerSubscriptions(eventBus, cfg, store, logger); err != nil {
		logger.Error("register stage subscriptions", logging.Error(err))
		return
	}

	scheduler := recovery.NewScheduler(cfg, store, eventBus, logger)

	d, err := daemon.New(cfg, store, eventBus, scheduler, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("pdfd shutting down")
}
