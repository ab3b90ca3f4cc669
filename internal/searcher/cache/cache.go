// Package cache memoizes drained pair-query results. Results are stored in
// Redis when it is enabled and in a bounded in-process LRU otherwise. Keys
// carry the index generation a result was computed at, so a result can never
// be served once the index has moved on; every ingest also flushes the cache
// to reclaim space.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/metrics"
)

const keyPrefix = "search:pair:"

// Store is the byte-level backend behind a QueryCache.
type Store interface {
	// Get returns ok=false with a nil error on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Flush removes every key the cache wrote and reports how many there were.
	Flush(ctx context.Context) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New builds a cache over store. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  logger.WithComponent("query-cache"),
	}
}

// Get looks up the result of pair at the given index generation.
func (c *QueryCache) Get(ctx context.Context, pair parser.Pair, limit int, generation uint64) (*executor.SearchResult, bool) {
	key := buildKey(pair, limit, generation)
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	if !ok {
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "pair", pair.String(), "key", key)
	return &result, true
}

// Set stores result under the generation it was computed at.
func (c *QueryCache) Set(ctx context.Context, pair parser.Pair, limit int, result *executor.SearchResult) {
	key := buildKey(pair, limit, result.Generation)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for pair at generation, or computes
// and stores it. The computed result is stored under its own generation,
// which is newer than the one asked for if an ingest slipped in. Concurrent
// misses for the same key share one computation. The bool reports a cache
// hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	pair parser.Pair,
	limit int,
	generation uint64,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, pair, limit, generation); ok {
		return result, true, nil
	}
	key := buildKey(pair, limit, generation)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, pair, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.Flush(ctx)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the normalized pair. Order matters: the first term's
// positions drive the score differently from the second's.
func buildKey(pair parser.Pair, limit int, generation uint64) string {
	raw := fmt.Sprintf("%s|%s|limit=%d|gen=%d", pair.One, pair.Two, limit, generation)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
