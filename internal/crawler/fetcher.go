package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/resilience"
)

// breakerThreshold is how many consecutive transport failures or 5xx
// answers from one host open its breaker.
const breakerThreshold = 10

// Fetcher downloads pages and turns them into raw word sequences. Failures
// stay at this boundary: callers of FetchTokens only ever see an empty
// slice.
type Fetcher struct {
	client  *http.Client
	cfg     config.CrawlerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// NewFetcher builds a Fetcher. client and m may be nil.
func NewFetcher(cfg config.CrawlerConfig, client *http.Client, m *metrics.Metrics) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:   client,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.WithComponent("fetcher"),
		breakers: make(map[string]*resilience.CircuitBreaker),
	}
}

// breakerFor returns the circuit breaker guarding host, creating it on first
// use. A dead host never blocks fetches from another.
func (f *Fetcher) breakerFor(host string) *resilience.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	cb, ok := f.breakers[host]
	if !ok {
		cb = resilience.NewCircuitBreaker("crawler-fetch:"+host, resilience.CircuitBreakerConfig{
			FailureThreshold: breakerThreshold,
		})
		f.breakers[host] = cb
	}
	return cb
}

// FetchTokens returns the visible words of the page at locator, or an empty
// slice if it cannot be fetched or parsed.
func (f *Fetcher) FetchTokens(ctx context.Context, locator string) []string {
	p, err := f.fetchPage(ctx, locator, nil)
	if err != nil {
		return []string{}
	}
	return p.words
}

// fetchPage downloads and parses one page, logging and counting the outcome.
func (f *Fetcher) fetchPage(ctx context.Context, locator string, filter *regexp.Regexp) (*page, error) {
	p, err := f.fetchPageOnce(ctx, locator, filter)
	if err != nil {
		f.logger.Warn("cannot retrieve page", "url", locator, "error", err)
		f.count("failed")
		return nil, err
	}
	f.count("ok")
	return p, nil
}

func (f *Fetcher) fetchPageOnce(ctx context.Context, locator string, filter *regexp.Regexp) (*page, error) {
	base, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w: %w", locator, apperrors.ErrInvalidInput, err)
	}
	breaker := f.breakerFor(base.Host)
	var result *page
	retryCfg := resilience.RetryConfig{MaxAttempts: f.cfg.RetryAttempts + 1}
	err = resilience.Retry(ctx, "fetch", retryCfg, func() error {
		// attempt is only read when the attempt finished in time.
		var attempt *page
		err := breaker.Execute(func() error {
			return resilience.WithTimeout(ctx, f.cfg.RequestTimeout, "fetch "+locator, func(ctx context.Context) error {
				p, err := f.get(ctx, base, filter)
				if err != nil {
					return err
				}
				attempt = p
				return nil
			})
		})
		if err == nil {
			result = attempt
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrFetchFailed, locator, err)
	}
	return result, nil
}

func (f *Fetcher) get(ctx context.Context, base *url.URL, filter *regexp.Regexp) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting page: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, resilience.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body io.Reader = resp.Body
	if f.cfg.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxBodyBytes)
	}
	// Redirects change the base that relative links resolve against.
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	p, err := parsePage(body, base, filter)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("parsing html: %w", err))
	}
	return p, nil
}

func (f *Fetcher) count(status string) {
	if f.metrics != nil {
		f.metrics.PagesFetchedTotal.WithLabelValues(status).Inc()
	}
}
