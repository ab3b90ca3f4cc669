// Package handler exposes the executor over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/metrics"
)

type SearchExecutor interface {
	Execute(ctx context.Context, pair parser.Pair, limit int) (*executor.SearchResult, error)
	Keyword(word string) *executor.KeywordResult
	Stats() indexer.Stats
	Generation() uint64
}

type Handler struct {
	executor     SearchExecutor
	cache        *cache.QueryCache
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New builds the handler. queryCache and m may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	return &Handler{
		executor:     exec,
		cache:        queryCache,
		metrics:      m,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		logger:       logger.WithComponent("search-handler"),
	}
}

// Routes registers every API endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/keyword", h.Keyword)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search answers GET /api/v1/search?one=&two=&limit=. A free-form q=
// parameter is accepted in place of one and two.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	pair, err := h.pairFromRequest(r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	limit, err := h.limitFromRequest(r)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	var result *executor.SearchResult
	cacheStatus := "disabled"
	if h.cache != nil {
		var hit bool
		result, hit, err = h.cache.GetOrCompute(ctx, pair, limit, h.executor.Generation(), func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, pair, limit)
		})
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
	} else {
		result, err = h.executor.Execute(ctx, pair, limit)
	}
	if err != nil {
		log.Error("search execution failed", "pair", pair.String(), "error", err)
		h.writeAppError(w, err)
		return
	}

	latency := time.Since(start)
	if h.metrics != nil {
		h.metrics.QueryLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	}
	log.Info("search completed",
		"term_one", pair.One,
		"term_two", pair.Two,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache", cacheStatus,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// Keyword answers GET /api/v1/keyword?word=.
func (h *Handler) Keyword(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	if word == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'word' is required")
		return
	}
	h.writeJSON(w, http.StatusOK, h.executor.Keyword(word))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.executor.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) pairFromRequest(r *http.Request) (parser.Pair, error) {
	q := r.URL.Query()
	one, two := q.Get("one"), q.Get("two")
	switch {
	case one != "" && two != "":
		return parser.NewPair(one, two)
	case one != "" || two != "":
		return parser.Pair{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"both 'one' and 'two' are required")
	case q.Get("q") != "":
		return parser.ParsePair(q.Get("q"))
	default:
		return parser.Pair{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"query parameters 'one' and 'two' are required")
	}
}

func (h *Handler) limitFromRequest(r *http.Request) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return h.defaultLimit, nil
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed < 1 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
	}
	return min(parsed, h.maxResults), nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps err onto a status code. Only AppError messages and
// invalid-input details are echoed to the client.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		h.writeError(w, status, appErr.Message)
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.writeError(w, status, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.writeError(w, status, "search failed")
	}
}
