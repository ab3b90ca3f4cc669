// Package consumer feeds ingest events from Kafka into the local index.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/kafka"
)

// Ingester is satisfied by *executor.Executor.
type Ingester interface {
	Ingest(ctx context.Context, docID string, words []string) error
}

// HandleMessage returns a MessageHandler that indexes every valid event.
// Undecodable or invalid events are logged and acknowledged so they do not
// block the partition; indexing errors leave the message uncommitted.
func HandleMessage(target Ingester) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event", "error", err, "key", string(key))
			return nil
		}
		if err := validator.ValidateEvent(&event); err != nil {
			logger.Warn("dropping invalid ingest event",
				"doc_id", event.DocumentID,
				"crawl_id", event.CrawlID,
				"error", err,
			)
			return nil
		}
		if err := target.Ingest(ctx, event.DocumentID, event.Words); err != nil {
			return fmt.Errorf("indexing document %s: %w", event.DocumentID, err)
		}
		logger.Debug("document indexed",
			"doc_id", event.DocumentID,
			"crawl_id", event.CrawlID,
			"sequence", event.Sequence,
			"words", len(event.Words),
		)
		return nil
	}
}
