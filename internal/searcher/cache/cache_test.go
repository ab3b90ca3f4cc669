package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/metrics"
)

var catsFish = parser.Pair{One: "CATS", Two: "FISH"}

func sampleResult() *executor.SearchResult {
	return &executor.SearchResult{
		TermOne:    "CATS",
		TermTwo:    "FISH",
		TotalHits:  1,
		ResultType: executor.ResultHit,
		Results:    []ranker.ResultEntry{{DocumentID: "D", Score: 0.75}},
	}
}

func TestGetOrComputeCachesResult(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New(NewMemoryStore(16, time.Minute), time.Minute, m)
	ctx := context.Background()

	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return sampleResult(), nil
	}

	first, hit, err := c.GetOrCompute(ctx, catsFish, 10, 0, compute)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := c.GetOrCompute(ctx, catsFish, 10, 0, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestKeysDistinguishOrderLimitAndGeneration(t *testing.T) {
	assert.NotEqual(t, buildKey(catsFish, 10, 0), buildKey(parser.Pair{One: "FISH", Two: "CATS"}, 10, 0))
	assert.NotEqual(t, buildKey(catsFish, 10, 0), buildKey(catsFish, 20, 0))
	assert.NotEqual(t, buildKey(catsFish, 10, 0), buildKey(catsFish, 10, 1))
	assert.Equal(t, buildKey(catsFish, 10, 3), buildKey(catsFish, 10, 3))
	assert.Contains(t, buildKey(catsFish, 10, 0), keyPrefix)
}

func TestResultFromBeforeIngestIsNotServedAfter(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(16, time.Minute), time.Minute, nil)
	ex := executor.New(indexer.NewEngine(config.IndexConfig{
		InitialCapacity: 11,
		MaxLoadFactor:   0.5,
		MinWordLength:   4,
	}), nil, c)
	require.NoError(t, ex.Ingest(ctx, "A", []string{"cats", "fish"}))

	// The query finishes, then a document lands and the cache is flushed
	// before the query's result is written back.
	stale, hit, err := c.GetOrCompute(ctx, catsFish, 10, ex.Generation(), func() (*executor.SearchResult, error) {
		res, err := ex.Execute(ctx, catsFish, 10)
		require.NoError(t, ex.Ingest(ctx, "B", []string{"fish", "cats"}))
		return res, err
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, stale.TotalHits)

	fresh, hit, err := c.GetOrCompute(ctx, catsFish, 10, ex.Generation(), func() (*executor.SearchResult, error) {
		return ex.Execute(ctx, catsFish, 10)
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fresh.TotalHits)

	again, hit, err := c.GetOrCompute(ctx, catsFish, 10, ex.Generation(), func() (*executor.SearchResult, error) {
		return nil, errors.New("should be cached")
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, fresh, again)
}

func TestInvalidateDropsEverything(t *testing.T) {
	c := New(NewMemoryStore(16, time.Minute), time.Minute, nil)
	ctx := context.Background()
	c.Set(ctx, catsFish, 10, sampleResult())
	c.Set(ctx, catsFish, 20, sampleResult())

	require.NoError(t, c.Invalidate(ctx))
	_, ok := c.Get(ctx, catsFish, 10, 0)
	assert.False(t, ok)
}

func TestComputeErrorIsNotCached(t *testing.T) {
	c := New(NewMemoryStore(16, time.Minute), time.Minute, nil)
	boom := errors.New("boom")

	_, _, err := c.GetOrCompute(context.Background(), catsFish, 10, 0, func() (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get(context.Background(), catsFish, 10, 0)
	assert.False(t, ok)
}

func TestConcurrentMissesShareComputation(t *testing.T) {
	c := New(NewMemoryStore(16, time.Minute), time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), catsFish, 10, 0, func() (*executor.SearchResult, error) {
				calls.Add(1)
				<-release
				return sampleResult(), nil
			})
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenStore) Flush(context.Context) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestBrokenStoreFallsThrough(t *testing.T) {
	c := New(brokenStore{}, time.Minute, nil)

	res, hit, err := c.GetOrCompute(context.Background(), catsFish, 10, 0, func() (*executor.SearchResult, error) {
		return sampleResult(), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "D", res.Results[0].DocumentID)
	assert.Error(t, c.Invalidate(context.Background()))
}
