package publisher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/kafka"
)

type memoryWriter struct {
	events []kafka.Event
	err    error
}

func (w *memoryWriter) Publish(_ context.Context, event kafka.Event) error {
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, event)
	return nil
}

func TestIngestPublishesSequencedEvents(t *testing.T) {
	w := &memoryWriter{}
	p := New(w)
	ctx := context.Background()

	require.NoError(t, p.Ingest(ctx, "http://site.test/", []string{"seed", "words"}))
	require.NoError(t, p.Ingest(ctx, "http://site.test/a", []string{}))

	require.Len(t, w.events, 2)
	for i, e := range w.events {
		assert.Equal(t, p.CrawlID(), e.Key)
		ev, ok := e.Value.(ingestion.IngestEvent)
		require.True(t, ok)
		assert.Equal(t, i, ev.Sequence)
		assert.Equal(t, p.CrawlID(), ev.CrawlID)
		assert.False(t, ev.FetchedAt.IsZero())
	}
	assert.Equal(t, []string{"seed", "words"}, w.events[0].Value.(ingestion.IngestEvent).Words)
}

func TestIngestKeepsOversizedWords(t *testing.T) {
	w := &memoryWriter{}
	p := New(w)
	words := []string{"hello", strings.Repeat("a", 300), "world"}

	require.NoError(t, p.Ingest(context.Background(), "http://example.test/page", words))
	require.Len(t, w.events, 1)
	assert.Equal(t, words, w.events[0].Value.(ingestion.IngestEvent).Words)
}

func TestIngestRejectsInvalidDocument(t *testing.T) {
	w := &memoryWriter{}
	p := New(w)

	err := p.Ingest(context.Background(), "not a url", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, w.events)
}

func TestIngestSurfacesWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := New(&memoryWriter{err: boom})

	err := p.Ingest(context.Background(), "http://site.test/", []string{"x"})
	assert.ErrorIs(t, err, boom)
}

func TestCrawlIDsDiffer(t *testing.T) {
	assert.NotEqual(t, New(&memoryWriter{}).CrawlID(), New(&memoryWriter{}).CrawlID())
}
