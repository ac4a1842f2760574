package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/config"
	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/metrics"
	"github.com/kailas-cloud/lostfound/internal/repository/photo"
	chiTransport "github.com/kailas-cloud/lostfound/internal/transport/chi"
	authuc "github.com/kailas-cloud/lostfound/internal/usecase/auth"
	embeddinguc "github.com/kailas-cloud/lostfound/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
	searchuc "github.com/kailas-cloud/lostfound/internal/usecase/search"
)

// memKV is an in-memory db.KVStore.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

var _ db.KVStore = (*memKV)(nil)

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *memKV) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("not supported")
}

func (m *memKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.EmbeddingConfig
		wantModel string
		wantDim   int
		wantErr   bool
	}{
		{"hashing", config.EmbeddingConfig{Provider: config.ProviderHashing, Dimensions: 64}, embeddinguc.HashingVersion, 64, false},
		{"noop", config.EmbeddingConfig{Provider: config.ProviderNoop}, config.ProviderNoop, 0, false},
		{"hashing bad dims", config.EmbeddingConfig{Provider: config.ProviderHashing}, "", 0, true},
		{"unknown", config.EmbeddingConfig{Provider: "word2vec"}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, model, err := newProvider(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
			res, err := emb.Embed(context.Background(), "black leather wallet")
			if err != nil {
				t.Fatalf("embed: %v", err)
			}
			if len(res.Embedding) != tt.wantDim {
				t.Errorf("dimensions = %d, want %d", len(res.Embedding), tt.wantDim)
			}
		})
	}
}

func TestNewProvider_OpenAIModelLabel(t *testing.T) {
	_, model, err := newProvider(context.Background(), config.EmbeddingConfig{
		Provider: config.ProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model != "text-embedding-3-small" {
		t.Errorf("model = %q", model)
	}
}

func TestBuildEmbedder_CachesOnlyWhenEnabled(t *testing.T) {
	cfg := config.EmbeddingConfig{Provider: config.ProviderHashing, Dimensions: 32, Cache: true}

	kv := newMemKV()
	emb := buildEmbedder(cfg, kv, "test:", zap.NewNop())
	for range 2 {
		if _, err := emb.Embed(context.Background(), "red umbrella"); err != nil {
			t.Fatalf("embed: %v", err)
		}
	}
	if kv.sets != 1 {
		t.Errorf("cache writes = %d, want 1", kv.sets)
	}
	for key := range kv.data {
		if !strings.HasPrefix(key, "test:emb_cache:"+embeddinguc.HashingVersion+":") {
			t.Errorf("unexpected cache key %q", key)
		}
	}

	cfg.Cache = false
	kv = newMemKV()
	emb = buildEmbedder(cfg, kv, "test:", zap.NewNop())
	if _, err := emb.Embed(context.Background(), "red umbrella"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if kv.sets != 0 {
		t.Errorf("cache writes = %d, want 0", kv.sets)
	}
}

func TestBuildEmbedder_RecordsMetrics(t *testing.T) {
	cfg := config.EmbeddingConfig{Provider: config.ProviderHashing, Dimensions: 16}
	counter := metrics.EmbeddingRequestsTotal.WithLabelValues(config.ProviderHashing, embeddinguc.HashingVersion, "success")
	before := testutil.ToFloat64(counter)

	emb := buildEmbedder(cfg, nil, "test:", zap.NewNop())
	if _, err := emb.Embed(context.Background(), "keys"); err != nil {
		t.Fatalf("embed: %v", err)
	}

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("requests delta = %v, want 1", got)
	}
}

func TestBuildEmbedder_LoadFailureIsUnavailable(t *testing.T) {
	emb := buildEmbedder(config.EmbeddingConfig{Provider: "word2vec"}, nil, "test:", zap.NewNop())

	_, err := emb.Embed(context.Background(), "keys")
	if err == nil {
		t.Fatal("expected error")
	}
	if err := newEmbeddingHealthChecker(emb).HealthCheck(context.Background()); err == nil {
		t.Error("expected health check error")
	}
}

func TestOpenBackend_SQLite(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:openbackend?mode=memory&cache=shared",
	}}

	b, err := openBackend(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	defer b.close()

	if b.cache != nil {
		t.Error("sql backend must not expose a vector cache")
	}
	if err := b.pinger.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
	n, err := b.items.Count(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Count = %d, %v", n, err)
	}
}

func TestOpenBackend_RedisRequiresAddrs(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{Driver: config.DriverRedis}}

	if _, err := openBackend(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRouter_HealthAndRequestID(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:router?mode=memory&cache=shared",
	}}
	b, err := openBackend(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	defer b.close()

	photos, err := photo.New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("photo store: %v", err)
	}
	emb := buildEmbedder(config.EmbeddingConfig{Provider: config.ProviderHashing, Dimensions: 16}, nil, "", zap.NewNop())
	server := chiTransport.NewServer(
		itemuc.New(b.items, photos, emb),
		searchuc.New(b.items, emb),
		authuc.New(b.users, b.sessions, authuc.DefaultTokenTTL),
		healthuc.New(b.pinger, newEmbeddingHealthChecker(emb)),
		photos,
		chiTransport.Options{},
	)
	ts := httptest.NewServer(newRouter(server, zap.NewNop()))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS header")
	}
}
