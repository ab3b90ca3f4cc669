// Package validator checks ingest events before they are published or
// indexed and reports every offending field at once.
package validator

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/errors"
)

const maxDocumentIDLength = 2048

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateEvent checks the document id is an absolute http(s) URL and the
// sequence is non-negative. Words are not inspected: they are raw page words
// whose positions the index keeps, and the indexer filters them itself. An
// empty word list is valid too, unreachable pages are still recorded.
func ValidateEvent(event *ingestion.IngestEvent) error {
	errs := make(map[string]string)

	id := event.DocumentID
	switch {
	case strings.TrimSpace(id) == "":
		errs["document_id"] = "document_id is required"
	case len(id) > maxDocumentIDLength:
		errs["document_id"] = fmt.Sprintf("document_id must be at most %d characters", maxDocumentIDLength)
	default:
		u, err := url.Parse(id)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs["document_id"] = "document_id must be an absolute http(s) url"
		}
	}
	if event.Sequence < 0 {
		errs["sequence"] = "sequence must be >= 0"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
