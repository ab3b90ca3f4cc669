//go:build integration

package ledger

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with:
//
//	go test -v -tags=integration ./internal/crawler/ledger/...
func newTestStore(t *testing.T) *Store {
	t.Helper()
	port, _ := strconv.Atoi(envOrDefault("TEST_POSTGRES_PORT", "5432"))
	cfg := config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            port,
		Database:        envOrDefault("TEST_POSTGRES_DB", "minisearch_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "minisearch"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
	db, err := postgres.New(context.Background(), cfg)
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewStore(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, s.Reset(context.Background()))
	return s
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestRecordAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "http://example.test/a", "FETCHED", 12))
	require.NoError(t, s.Record(ctx, "http://example.test/a", "FAILED", 0))

	e, err := s.Lookup(ctx, "http://example.test/a")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "FAILED", e.Status)
	assert.Equal(t, 0, e.Words)
	assert.Equal(t, 2, e.Attempts)

	missing, err := s.Lookup(ctx, "http://example.test/none")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, u := range []string{"http://example.test/1", "http://example.test/2", "http://example.test/3"} {
		require.NoError(t, s.Record(ctx, u, "FETCHED", 1))
	}

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
