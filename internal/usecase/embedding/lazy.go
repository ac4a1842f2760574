package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// Loader constructs the underlying embedder. It runs at most once per Lazy.
type Loader func(ctx context.Context) (domain.Embedder, error)

// Lazy defers construction of an expensive, read-only embedder to its first use.
// Concurrent first callers wait on the same construction. A failed construction is
// permanent: every later call fails with domain.ErrEmbedderUnavailable.
type Lazy struct {
	name   string
	load   Loader
	logger *zap.Logger

	once  sync.Once
	inner domain.Embedder
	err   error
}

// NewLazy wraps load in a one-time initialization guard.
func NewLazy(name string, load Loader, logger *zap.Logger) *Lazy {
	return &Lazy{name: name, load: load, logger: logger}
}

// Embed initializes the embedder on first use and delegates to it.
func (l *Lazy) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	inner, err := l.get(ctx)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	res, err := inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("lazy embed: %w", err)
	}
	return res, nil
}

// HealthCheck forces initialization and reports its outcome, then defers to the
// inner embedder's own check when it has one.
func (l *Lazy) HealthCheck(ctx context.Context) error {
	inner, err := l.get(ctx)
	if err != nil {
		return err
	}
	if hc, ok := inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedder health: %w", err)
		}
	}
	return nil
}

func (l *Lazy) get(ctx context.Context) (domain.Embedder, error) {
	l.once.Do(func() {
		start := time.Now()
		// a cancelled first request must not poison the process-wide resource
		l.inner, l.err = l.load(context.WithoutCancel(ctx))
		if l.err == nil && l.inner == nil {
			l.err = fmt.Errorf("loader returned no embedder")
		}
		if l.err != nil {
			l.logger.Error("Embedding model failed to load",
				zap.String("embedder", l.name),
				zap.Error(l.err),
			)
			return
		}
		l.logger.Info("Embedding model loaded",
			zap.String("embedder", l.name),
			zap.Duration("duration", time.Since(start)),
		)
	})
	if l.err != nil {
		return nil, fmt.Errorf("%s: %w: %w", l.name, domain.ErrEmbedderUnavailable, l.err)
	}
	return l.inner, nil
}
