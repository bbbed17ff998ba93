package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/config"
	"github.com/socdesk/playbook-rag/internal/observability"
	"github.com/socdesk/playbook-rag/routes"
	"github.com/socdesk/playbook-rag/services/embedding"
	"github.com/socdesk/playbook-rag/services/providers"
	"github.com/socdesk/playbook-rag/services/query"
	"github.com/socdesk/playbook-rag/services/retrieval"
	"github.com/socdesk/playbook-rag/services/tracker"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("starting rag service",
		zap.String("environment", cfg.Environment),
		zap.String("address", cfg.Server.Address()))

	embedder, err := embedding.NewOllamaEmbedder(
		cfg.Embedding.Host, cfg.Embedding.Model, cfg.Embedding.Timeout, logger)
	if err != nil {
		logger.Fatal("failed to create embedder", zap.Error(err))
	}

	searcher, closeSearcher, err := retrieval.NewQdrantSearcher(
		cfg.VectorIndex.Address(), cfg.VectorIndex.Collection,
		cfg.VectorIndex.Dimension, cfg.VectorIndex.Timeout, logger)
	if err != nil {
		logger.Fatal("failed to connect to vector index", zap.Error(err))
	}
	defer closeSearcher()

	ollamaProvider, err := providers.NewOllamaProvider(
		cfg.Generation.Host, cfg.Generation.Model, cfg.Generation.Timeout, logger)
	if err != nil {
		logger.Fatal("failed to create generation provider", zap.Error(err))
	}

	registry := providers.NewRegistry()
	if err := registry.Register(ollamaProvider); err != nil {
		logger.Fatal("failed to register generation provider", zap.Error(err))
	}

	store := tracker.NewStore(cfg.Tracker.TTL, logger)
	stopCleanup := make(chan struct{})
	go store.StartCleanupWorker(cfg.Tracker.CleanupInterval, stopCleanup)
	defer close(stopCleanup)

	service := query.NewService(
		embedder, searcher, registry, store,
		cfg.Pipeline, cfg.Generation, logger)

	router := routes.NewRouter(service, cfg.Server.WriteTimeout, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
