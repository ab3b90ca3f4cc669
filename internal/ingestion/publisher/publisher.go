// Package publisher turns crawled documents into ingest events on Kafka. A
// Publisher is a crawler sink: the indexing service consumes the events in
// the order they were published.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/kafka"
)

// EventWriter is satisfied by *kafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher keys every event of one crawl by the crawl id so they share a
// partition and keep their discovery order. It is not safe for concurrent
// use; the crawler calls it from a single goroutine.
type Publisher struct {
	writer   EventWriter
	crawlID  string
	sequence int
	now      func() time.Time
	logger   *slog.Logger
}

// New starts a publisher for a fresh crawl.
func New(writer EventWriter) *Publisher {
	crawlID := uuid.NewString()
	return &Publisher{
		writer:  writer,
		crawlID: crawlID,
		now:     time.Now,
		logger:  slog.Default().With("component", "publisher", "crawl_id", crawlID),
	}
}

func (p *Publisher) CrawlID() string {
	return p.crawlID
}

// Ingest validates and publishes one document.
func (p *Publisher) Ingest(ctx context.Context, docID string, words []string) error {
	event := ingestion.IngestEvent{
		CrawlID:    p.crawlID,
		Sequence:   p.sequence,
		DocumentID: docID,
		Words:      words,
		FetchedAt:  p.now().UTC(),
	}
	if err := validator.ValidateEvent(&event); err != nil {
		return fmt.Errorf("document %s: %w", docID, err)
	}
	if err := p.writer.Publish(ctx, kafka.Event{Key: p.crawlID, Value: event}); err != nil {
		return fmt.Errorf("publishing document %s: %w", docID, err)
	}
	p.sequence++
	p.logger.Debug("ingest event published",
		"doc_id", docID,
		"sequence", event.Sequence,
		"words", len(words),
	)
	return nil
}
