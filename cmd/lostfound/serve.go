package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/config"
	logpkg "github.com/kailas-cloud/lostfound/internal/logger"
	"github.com/kailas-cloud/lostfound/internal/metrics"
	"github.com/kailas-cloud/lostfound/internal/repository/photo"
	chiTransport "github.com/kailas-cloud/lostfound/internal/transport/chi"
	authuc "github.com/kailas-cloud/lostfound/internal/usecase/auth"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
	searchuc "github.com/kailas-cloud/lostfound/internal/usecase/search"
	"github.com/kailas-cloud/lostfound/internal/version"
)

// runServe is the composition root. It blocks until ctx is cancelled, then
// drains in-flight requests.
func runServe(ctx context.Context, env string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lostfound API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	maxUpload := int64(cfg.HTTP.MaxUploadMB) << 20
	photos, err := photo.New(cfg.Storage.UploadDir, maxUpload)
	if err != nil {
		return fmt.Errorf("photo store: %w", err)
	}

	embedder := buildEmbedder(cfg.Embedding, b.cache, cfg.Storage.KeyPrefix, logger)

	itemSvc := itemuc.New(b.items, photos, embedder)
	searchSvc := searchuc.New(b.items, embedder).WithTopK(cfg.Search.TopK)
	authSvc := authuc.New(b.users, b.sessions, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour).
		WithAPIKeys(cfg.Auth.APIKeys)
	healthSvc := healthuc.New(b.pinger, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(itemSvc, searchSvc, authSvc, healthSvc, photos, chiTransport.Options{
		PublicBaseURL:  cfg.HTTP.PublicBaseURL,
		MaxUploadBytes: maxUpload,
		EnableSeed:     cfg.HTTP.EnableSeed,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(server, logger),
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// newRouter wires the middleware stack in front of the API routes.
func newRouter(server *chiTransport.Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware())
	r.Use(metrics.Middleware("/metrics"))
	server.Routes(r)
	return r
}
