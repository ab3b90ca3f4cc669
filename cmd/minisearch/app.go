package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/crawler"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/crawler/ledger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/redis"
)

// app holds the long-lived components a command needs. Optional backends
// that are disabled or unreachable stay nil.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	executor *executor.Executor
	cache    *cache.QueryCache
	redis    *pkgredis.Client
	db       *postgres.Client
	ledger   *ledger.Store
	closers  []func() error
}

// newApp wires the engine and whichever backends cfg enables. m may be nil.
func newApp(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*app, error) {
	a := &app{cfg: cfg, metrics: m}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, crawl ledger disabled", "error", err)
		} else {
			a.db = db
			a.closers = append(a.closers, db.Close)
			store := ledger.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				a.Close()
				return nil, err
			}
			a.ledger = store
			slog.Info("crawl ledger enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		}
	}

	switch {
	case cfg.Redis.Enabled:
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, falling back to in-process cache", "error", err)
			a.cache = newMemoryCache(cfg, m)
			break
		}
		a.redis = client
		a.closers = append(a.closers, client.Close)
		a.cache = cache.New(cache.NewRedisStore(client), cfg.Redis.CacheTTL, m)
		slog.Info("search cache enabled", "backend", "redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	default:
		a.cache = newMemoryCache(cfg, m)
	}

	var inv executor.Invalidator
	if a.cache != nil {
		// Results cached by an earlier process describe a different index.
		if err := a.cache.Invalidate(ctx); err != nil {
			slog.Warn("startup cache invalidation failed", "error", err)
		}
		inv = a.cache
	}
	a.executor = executor.New(indexer.NewEngine(cfg.Index), m, inv)
	return a, nil
}

func newMemoryCache(cfg *config.Config, m *metrics.Metrics) *cache.QueryCache {
	if cfg.Search.CacheSize <= 0 {
		return nil
	}
	slog.Info("search cache enabled", "backend", "memory", "size", cfg.Search.CacheSize, "ttl", cfg.Search.CacheTTL)
	return cache.New(cache.NewMemoryStore(cfg.Search.CacheSize, cfg.Search.CacheTTL), cfg.Search.CacheTTL, m)
}

// crawl fills sink from the configured seed, recording to the ledger when
// one is available.
func (a *app) crawl(ctx context.Context, sink crawler.Sink) (crawler.Summary, error) {
	fetcher := crawler.NewFetcher(a.cfg.Crawler, &http.Client{}, a.metrics)
	var l crawler.Ledger
	if a.ledger != nil {
		l = a.ledger
	}
	c, err := crawler.New(a.cfg.Crawler, fetcher, l)
	if err != nil {
		return crawler.Summary{}, err
	}
	return c.Crawl(ctx, a.cfg.Crawler.Seed, sink)
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
