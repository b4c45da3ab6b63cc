package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/container"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/tracing"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional, env overrides apply)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger is not configured yet; this is the one bare exit.
		os.Stderr.WriteString("fatal: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg)
	if err != nil {
		logger.Errorf(ctx, "failed to initialize tracing: %v", err)
		os.Exit(1)
	}

	c, err := container.Build(cfg)
	if err != nil {
		logger.Errorf(ctx, "failed to build container: %v", err)
		os.Exit(1)
	}

	err = c.Invoke(func(vectors interfaces.VectorStore, graph interfaces.GraphStore,
		relational interfaces.RelationalStore, _ interfaces.TurnService,
	) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		logger.Infof(pingCtx, "vector store available: %v", vectors.IsAvailable(pingCtx))
		logger.Infof(pingCtx, "graph store available: %v", graph.IsAvailable(pingCtx))
		logger.Infof(pingCtx, "relational store available: %v", relational.IsAvailable(pingCtx))
	})
	if err != nil {
		logger.Errorf(ctx, "failed to initialize stores: %v", err)
		os.Exit(1)
	}

	logger.Infof(ctx, "mnemo retrieval core ready (vector engine: %s)", cfg.Vector.Engine)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Infof(ctx, "shutting down")

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Errorf(flushCtx, "failed to flush traces: %v", err)
	}
}
