package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexuslang/nexus-lsp/internal/config"
	"github.com/nexuslang/nexus-lsp/internal/doctor"
	"github.com/nexuslang/nexus-lsp/internal/httpapi"
	"github.com/nexuslang/nexus-lsp/internal/modelendpoint"
	"github.com/nexuslang/nexus-lsp/internal/observability"
	"github.com/nexuslang/nexus-lsp/internal/reindex"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/storage"
	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
)

// runServe implements the serve command: load configuration, open both
// SQLite stores, resolve the model catalog and every configured tool, and
// run the HTTP surface until a shutdown signal arrives.
func runServe(ctx context.Context, configPath string, flags config.ServeFlags) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyServeFlags(flags)

	logLevel := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	logger.Info("starting nexus-lsp", "version", version, "commit", commit, "config", configPath)

	capsData, capsErr := loadCaps(cfg.LLM.CapsPath)
	if capsErr != nil {
		logger.Warn("caps catalog not loaded at startup", "error", capsErr)
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	report := doctor.Run(ctx, cfg, capsData, capsErr, store)
	for _, check := range report.Checks {
		if check.OK {
			logger.Info("health check passed", "check", check.Name)
		} else {
			logger.Warn("health check failed", "check", check.Name, "error", check.Err)
		}
	}

	tools := newToolRegistry()

	var state *sharedstate.State
	if capsData != nil {
		modelsReg, err := buildModelRegistry(ctx, capsData)
		if err != nil {
			return fmt.Errorf("building model registry: %w", err)
		}
		state = sharedstate.New(modelsReg, tools, buildTokenizerCache(capsData))
		state.SetCaps(capsData)
	} else {
		state = sharedstate.New(modelendpoint.NewRegistry(), tools, tokenizer.NewCache(nil))
	}
	state.SetWorkspaceRoots(cfg.Tools.WorkspaceRoots)

	memories := storage.NewMemoryStore(store.Memories)
	populateToolRegistry(tools, cfg.Tools, state, memories, cfg.LLM.DefaultChatModel)

	orchestrator, commands := buildOrchestrator(state)

	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "nexus-lsp",
		ServiceVersion: version,
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	})
	defer shutdownTracer(context.Background())

	server := httpapi.NewServer(httpapi.Deps{
		Config:       cfg,
		State:        state,
		Orchestrator: orchestrator,
		Commands:     commands,
		Store:        store,
		Logger:       logger,
		Tracer:       tracer,
	})

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reindexJob, err := reindex.NewJob(state, "*/15 * * * *", 0, logger)
	if err != nil {
		logger.Warn("scheduled reindex disabled", "error", err)
	} else {
		reindexJob.Start(ctx)
		defer reindexJob.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ctx)
	}()

	logger.Info("nexus-lsp listening", "host", cfg.Server.Host, "port", cfg.Server.HTTPPort)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutdown signal received, stopping")
	return nil
}
