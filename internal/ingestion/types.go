// Package ingestion defines the Kafka event that carries a crawled document
// from the crawler to the indexing service.
package ingestion

import "time"

// IngestEvent is one fetched document. Words are the raw visible words in
// page order; filtering happens at indexing time so positions stay raw.
type IngestEvent struct {
	CrawlID    string    `json:"crawl_id"`
	Sequence   int       `json:"sequence"`
	DocumentID string    `json:"document_id"`
	Words      []string  `json:"words"`
	FetchedAt  time.Time `json:"fetched_at"`
}
