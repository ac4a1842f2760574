package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/config"
	"github.com/kailas-cloud/lostfound/internal/db"
	dbRedis "github.com/kailas-cloud/lostfound/internal/db/redis"
	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/metrics"
	"github.com/kailas-cloud/lostfound/internal/repository/embcache"
	itemrepo "github.com/kailas-cloud/lostfound/internal/repository/item"
	"github.com/kailas-cloud/lostfound/internal/repository/sqlstore"
	userrepo "github.com/kailas-cloud/lostfound/internal/repository/user"
	geminiEmb "github.com/kailas-cloud/lostfound/internal/transport/gemini"
	openaiEmb "github.com/kailas-cloud/lostfound/internal/transport/openai"
	authuc "github.com/kailas-cloud/lostfound/internal/usecase/auth"
	embeddinguc "github.com/kailas-cloud/lostfound/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
	searchuc "github.com/kailas-cloud/lostfound/internal/usecase/search"
)

// itemStore is what both the item and the search services need from storage.
type itemStore interface {
	itemuc.Repository
	searchuc.CandidateLister
}

// backend bundles the repositories of one database driver.
type backend struct {
	items    itemStore
	users    authuc.UserRepository
	sessions authuc.SessionStore
	pinger   healthuc.DBPinger
	cache    db.KVStore // nil unless the driver speaks RESP
	close    func()
}

// openBackend connects to the configured database and builds its repositories.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	if cfg.Database.IsRedis() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
		)
		users := userrepo.New(store, cfg.Storage.KeyPrefix)
		return &backend{
			items:    itemrepo.New(store, cfg.Storage.KeyPrefix),
			users:    users,
			sessions: users,
			pinger:   store,
			cache:    store,
			close:    store.Close,
		}, nil
	}

	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	return &backend{
		items:    store,
		users:    store,
		sessions: store,
		pinger:   store,
		close:    store.Close,
	}, nil
}

// newProvider constructs the base embedding generator and the model label its
// vectors are tagged with in metrics and cache keys.
func newProvider(ctx context.Context, cfg config.EmbeddingConfig) (domain.Embedder, string, error) {
	switch cfg.Provider {
	case config.ProviderHashing:
		e, err := embeddinguc.NewHashingEmbedder(cfg.Dimensions)
		if err != nil {
			return nil, "", fmt.Errorf("hashing embedder: %w", err)
		}
		return e, embeddinguc.HashingVersion, nil
	case config.ProviderNoop:
		return embeddinguc.NoopEmbedder{}, config.ProviderNoop, nil
	case config.ProviderOpenAI:
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   config.ProviderOpenAI,
		}), cfg.Model, nil
	case config.ProviderGemini:
		e, err := geminiEmb.NewEmbedder(ctx, &geminiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, "", fmt.Errorf("gemini embedder: %w", err)
		}
		return e, cfg.Model, nil
	default:
		return nil, "", fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Lazy.
// Nothing is constructed until the first Embed or HealthCheck call.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	cache db.KVStore,
	keyPrefix string,
	logger *zap.Logger,
) *embeddinguc.Lazy {
	load := func(ctx context.Context) (domain.Embedder, error) {
		base, model, err := newProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}

		embedder := base
		if cfg.Cache && cache != nil {
			embedder = embcache.New(base, cache, keyPrefix, model, metrics.EmbeddingCacheTotal, logger)
		}

		return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, model, logger), nil
	}
	return embeddinguc.NewLazy(cfg.Provider, load, logger)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
