// Package crawler harvests text from a bounded web neighbourhood. It
// discovers pages breadth-first from a seed, fetches them concurrently, and
// hands each page's words to a Sink in discovery order.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/pqueue"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/tracing"
)

// Sink receives fetched documents one at a time, never concurrently.
type Sink interface {
	Ingest(ctx context.Context, docID string, words []string) error
}

// Ledger records the outcome of each fetch. Implementations must tolerate
// concurrent calls.
type Ledger interface {
	Record(ctx context.Context, locator string, status string, words int) error
}

const (
	StatusFetched = "FETCHED"
	StatusEmpty   = "EMPTY"
	StatusFailed  = "FAILED"
)

// Summary describes a finished crawl.
type Summary struct {
	Discovered int           `json:"discovered"`
	Ingested   int           `json:"ingested"`
	Failed     int           `json:"failed"`
	Words      int           `json:"words"`
	Duration   time.Duration `json:"duration"`
	TraceID    string        `json:"trace_id"`
}

type Crawler struct {
	fetcher *Fetcher
	cfg     config.CrawlerConfig
	filter  *regexp.Regexp
	ledger  Ledger
	logger  *slog.Logger
}

// New builds a Crawler. ledger may be nil.
func New(cfg config.CrawlerConfig, fetcher *Fetcher, ledger Ledger) (*Crawler, error) {
	var filter *regexp.Regexp
	if cfg.LinkPattern != "" {
		re, err := regexp.Compile(cfg.LinkPattern)
		if err != nil {
			return nil, fmt.Errorf("compiling link pattern: %w", err)
		}
		filter = re
	}
	return &Crawler{
		fetcher: fetcher,
		cfg:     cfg,
		filter:  filter,
		ledger:  ledger,
		logger:  logger.WithComponent("crawler"),
	}, nil
}

// fetchedDoc orders documents by the position they were discovered at.
type fetchedDoc struct {
	order   int
	locator string
	words   []string
}

func (d fetchedDoc) Less(other fetchedDoc) bool {
	return d.order < other.order
}

// Crawl discovers pages from seed, fetches them concurrently and feeds them
// to sink in discovery order. Pages already fetched while following links
// are not downloaded again. Pages that fail to fetch are handed over with
// no words. The only error returned is the sink's.
func (c *Crawler) Crawl(ctx context.Context, seed string, sink Sink) (Summary, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "crawl")
	defer func() {
		span.End()
		span.Log(ctx, c.logger, slog.LevelDebug)
	}()
	span.SetAttr("seed", seed)

	_, discoverSpan := tracing.Start(ctx, "discover")
	found := c.fetcher.discover(ctx, seed, c.cfg.Depth, c.filter)
	discoverSpan.SetAttr("pages", len(found))
	discoverSpan.End()
	c.logger.Info("discovery complete", "seed", seed, "depth", c.cfg.Depth, "pages", len(found))

	_, fetchSpan := tracing.Start(ctx, "fetch")
	var (
		mu      sync.Mutex
		docs    = make([]fetchedDoc, 0, len(found))
		failed  int
		fetches int
	)
	add := func(order int, locator string, words []string, status string) {
		mu.Lock()
		defer mu.Unlock()
		docs = append(docs, fetchedDoc{order: order, locator: locator, words: words})
		if status == StatusFailed {
			failed++
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.Concurrency, 1))
	for i, d := range found {
		if d.fetched {
			words, status := c.outcome(ctx, d.locator, d.page)
			add(i, d.locator, words, status)
			continue
		}
		fetches++
		g.Go(func() error {
			words, status := c.fetch(gctx, d.locator)
			add(i, d.locator, words, status)
			return nil
		})
	}
	_ = g.Wait()
	fetchSpan.SetAttr("fetched", fetches)
	fetchSpan.SetAttr("failed", failed)
	fetchSpan.End()

	summary := Summary{Discovered: len(found), Failed: failed, TraceID: span.TraceID}
	_, ingestSpan := tracing.Start(ctx, "ingest")
	defer ingestSpan.End()
	queue := pqueue.BuildFrom(docs)
	for queue.Len() > 0 {
		doc, err := queue.ExtractMin()
		if err != nil {
			break
		}
		if err := sink.Ingest(ctx, doc.locator, doc.words); err != nil {
			ingestSpan.SetAttr("error", err.Error())
			return summary, fmt.Errorf("ingesting %s: %w", doc.locator, err)
		}
		summary.Ingested++
		summary.Words += len(doc.words)
	}
	ingestSpan.SetAttr("documents", summary.Ingested)
	ingestSpan.End()

	summary.Duration = time.Since(start)
	c.logger.Info("crawl complete",
		"seed", seed,
		"trace_id", summary.TraceID,
		"discovered", summary.Discovered,
		"failed", summary.Failed,
		"words", summary.Words,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary, nil
}

func (c *Crawler) fetch(ctx context.Context, locator string) ([]string, string) {
	p, err := c.fetcher.fetchPage(ctx, locator, nil)
	if err != nil {
		p = nil
	}
	return c.outcome(ctx, locator, p)
}

// outcome turns a parsed page, or nil for a failed fetch, into its words and
// ledger status, and records it.
func (c *Crawler) outcome(ctx context.Context, locator string, p *page) ([]string, string) {
	words := []string{}
	status := StatusFailed
	if p != nil {
		words = p.words
		status = StatusFetched
		if len(words) == 0 {
			status = StatusEmpty
		}
	}
	if c.ledger != nil {
		if err := c.ledger.Record(ctx, locator, status, len(words)); err != nil {
			c.logger.Error("failed to record crawl outcome", "url", locator, "error", err)
		}
	}
	return words, status
}
