// Package executor serializes access to the indexing engine. Ingestion takes
// the write lock; building a query's result queue takes the read lock. The
// queue itself belongs to the caller once returned.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/metrics"
)

const (
	ResultHit            = "hit"
	ResultZero           = "zero_result"
	ResultVocabularyMiss = "vocabulary_miss"
)

// SearchResult is a drained pair query, lowest score first.
type SearchResult struct {
	TermOne    string               `json:"term_one"`
	TermTwo    string               `json:"term_two"`
	TotalHits  int                  `json:"total_hits"`
	ResultType string               `json:"result_type"`
	Results    []ranker.ResultEntry `json:"results"`
	// Generation is the index generation the result was computed at.
	Generation uint64 `json:"generation"`
}

// KeywordResult lists the documents a single word occurs in.
type KeywordResult struct {
	Word      string   `json:"word"`
	Documents []string `json:"documents"`
}

// Invalidator drops cached query results after the index changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Executor struct {
	mu          sync.RWMutex
	engine      *indexer.Engine
	generation  uint64
	invalidator Invalidator
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New wraps engine. m and inv may be nil.
func New(engine *indexer.Engine, m *metrics.Metrics, inv Invalidator) *Executor {
	return &Executor{
		engine:      engine,
		invalidator: inv,
		metrics:     m,
		logger:      logger.WithComponent("query-executor"),
	}
}

// Ingest indexes one document. It satisfies crawler.Sink and is what the
// Kafka consumer feeds.
func (e *Executor) Ingest(ctx context.Context, docID string, words []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	retained := e.engine.Ingest(docID, words)
	e.generation++
	stats := e.engine.Stats()
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.DocsIngestedTotal.Inc()
		e.metrics.TokensRetainedTotal.Add(float64(retained))
		e.metrics.IndexWords.Set(float64(stats.Words))
		e.metrics.IndexCapacity.Set(float64(stats.Capacity))
		e.metrics.IndexGrowsTotal.Set(float64(stats.Grows))
	}
	if e.invalidator != nil {
		if err := e.invalidator.Invalidate(ctx); err != nil {
			e.logger.Warn("cache invalidation after ingest failed", "doc_id", docID, "error", err)
		}
	}
	return nil
}

// Execute runs a pair query and drains up to limit entries. limit <= 0
// drains everything.
func (e *Executor) Execute(ctx context.Context, pair parser.Pair, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	e.mu.RLock()
	results := e.engine.Query(pair.One, pair.Two)
	miss := e.engine.Search(pair.One) == nil || e.engine.Search(pair.Two) == nil
	generation := e.generation
	e.mu.RUnlock()

	total := results.Len()
	entries := results.Collect(limit)

	resultType := ResultHit
	switch {
	case miss:
		resultType = ResultVocabularyMiss
	case total == 0:
		resultType = ResultZero
	}
	if e.metrics != nil {
		e.metrics.QueriesTotal.WithLabelValues(resultType).Inc()
		e.metrics.QueryResultsCount.Observe(float64(len(entries)))
	}
	e.logger.Debug("query executed",
		"term_one", pair.One,
		"term_two", pair.Two,
		"result_type", resultType,
		"total_hits", total,
		"returned", len(entries),
		"latency_us", time.Since(start).Microseconds(),
	)
	return &SearchResult{
		TermOne:    pair.One,
		TermTwo:    pair.Two,
		TotalHits:  total,
		ResultType: resultType,
		Results:    entries,
		Generation: generation,
	}, nil
}

// Generation counts ingests so far. Results computed at different
// generations may differ.
func (e *Executor) Generation() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}

// Keyword returns the documents containing word. Unknown words give an empty
// list.
func (e *Executor) Keyword(word string) *KeywordResult {
	e.mu.RLock()
	docs := e.engine.Search(word)
	e.mu.RUnlock()
	if docs == nil {
		docs = []string{}
	}
	return &KeywordResult{Word: word, Documents: docs}
}

func (e *Executor) Stats() indexer.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.engine.Stats()
}
