// Package indexer owns the inverted index and answers two-term queries over
// it. An Engine is single-threaded: callers serialize ingestion and query
// construction themselves (see internal/searcher/executor).
package indexer

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/pqueue"
)

type Engine struct {
	index       *index.InvertedIndex
	minWordLen  int
	logger      *slog.Logger
	documents   map[string]struct{}
	totalTokens int64
}

// Stats is a point-in-time summary of the index.
type Stats struct {
	Words         int     `json:"words"`
	Documents     int     `json:"documents"`
	RetainedWords int64   `json:"retained_tokens"`
	Capacity      int     `json:"capacity"`
	LoadFactor    float64 `json:"load_factor"`
	Grows         int     `json:"grows"`
}

func NewEngine(cfg config.IndexConfig) *Engine {
	minLen := cfg.MinWordLength
	if minLen < 1 {
		minLen = tokenizer.DefaultMinWordLength
	}
	return &Engine{
		index:      index.New(cfg.InitialCapacity, cfg.MaxLoadFactor),
		minWordLen: minLen,
		logger:     logger.WithComponent("indexer"),
		documents:  make(map[string]struct{}),
	}
}

// Ingest indexes the raw word sequence of one document and returns how many
// words passed the filter. Re-ingesting a document appends positions again;
// avoiding that is up to the caller.
func (e *Engine) Ingest(docID string, words []string) int {
	tokens := tokenizer.Tokenize(words, e.minWordLen)
	for _, tok := range tokens {
		entry, err := e.index.Find(tok.Term)
		if err == nil {
			entry.Add(docID, tok.Position)
			continue
		}
		if err := e.index.Insert(index.NewKeywordEntry(tok.Term, docID, tok.Position)); err != nil {
			panic(fmt.Sprintf("indexer: %v", err))
		}
	}
	if len(tokens) > 0 {
		e.documents[docID] = struct{}{}
	}
	e.totalTokens += int64(len(tokens))
	e.logger.Debug("document ingested",
		"doc_id", docID,
		"raw_words", len(words),
		"retained", len(tokens),
		"vocabulary", e.index.Len(),
	)
	return len(tokens)
}

// Query ranks every document containing both terms. A term that was never
// indexed, or two terms that never share a document, give empty Results.
// Each call builds its own queue.
func (e *Engine) Query(termOne, termTwo string) *Results {
	queue := pqueue.New[ranker.ResultEntry]()
	results := &Results{queue: queue}

	first, err := e.index.Find(termOne)
	if err != nil {
		return results
	}
	second, err := e.index.Find(termTwo)
	if err != nil {
		return results
	}

	sameTerm := first.Word() == second.Word()
	smaller, larger := first, second
	if larger.DocumentCount() < smaller.DocumentCount() {
		smaller, larger = larger, smaller
	}
	for _, docID := range smaller.Documents() {
		if !larger.Contains(docID) {
			continue
		}
		score := ranker.ScorePair(first.Locations(docID), second.Locations(docID), sameTerm)
		queue.Insert(ranker.ResultEntry{DocumentID: docID, Score: score})
	}
	return results
}

// Search returns the documents containing keyword, or nil on a miss.
func (e *Engine) Search(keyword string) []string {
	entry, err := e.index.Find(keyword)
	if err != nil {
		return nil
	}
	return entry.Documents()
}

// Locations returns the positions of keyword inside docID.
func (e *Engine) Locations(keyword, docID string) []int {
	entry, err := e.index.Find(keyword)
	if err != nil {
		return []int{}
	}
	return entry.Locations(docID)
}

func (e *Engine) Stats() Stats {
	return Stats{
		Words:         e.index.Len(),
		Documents:     len(e.documents),
		RetainedWords: e.totalTokens,
		Capacity:      e.index.Capacity(),
		LoadFactor:    e.index.LoadFactor(),
		Grows:         e.index.Grows(),
	}
}

// Results is the ranked, single-pass output of one query. Entries come out
// in ascending score order.
type Results struct {
	queue *pqueue.MinHeap[ranker.ResultEntry]
}

// Next pops the lowest-scored remaining entry. It returns ErrEmptyQueue once
// the results are exhausted.
func (r *Results) Next() (ranker.ResultEntry, error) {
	return r.queue.ExtractMin()
}

// Len returns the number of entries not yet consumed.
func (r *Results) Len() int {
	return r.queue.Len()
}

// All drains the remaining entries.
func (r *Results) All() iter.Seq[ranker.ResultEntry] {
	return func(yield func(ranker.ResultEntry) bool) {
		for {
			entry, err := r.Next()
			if err != nil {
				return
			}
			if !yield(entry) {
				return
			}
		}
	}
}

// Collect drains up to limit entries into a slice. A limit <= 0 drains all.
func (r *Results) Collect(limit int) []ranker.ResultEntry {
	out := make([]ranker.ResultEntry, 0, r.Len())
	for entry := range r.All() {
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
