// Package ledger persists the outcome of every crawler fetch to PostgreSQL so
// that a crawl can be audited after the process exits.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS crawl_ledger (
    url        TEXT PRIMARY KEY,
    status     TEXT NOT NULL,
    words      INTEGER NOT NULL DEFAULT 0,
    attempts   INTEGER NOT NULL DEFAULT 1,
    fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Entry is one row of the ledger.
type Entry struct {
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	Words     int       `json:"words"`
	Attempts  int       `json:"attempts"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store records crawl outcomes keyed by URL. Re-crawling a URL overwrites
// its status and bumps the attempt counter.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "crawl-ledger"),
	}
}

// EnsureSchema creates the ledger table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating crawl_ledger table: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, locator string, status string, words int) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO crawl_ledger (url, status, words, fetched_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (url) DO UPDATE
		 SET status = EXCLUDED.status,
		     words = EXCLUDED.words,
		     attempts = crawl_ledger.attempts + 1,
		     fetched_at = EXCLUDED.fetched_at`,
		locator, status, words, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", locator, err)
	}
	return nil
}

// Lookup returns the ledger row for locator, or nil if it was never crawled.
func (s *Store) Lookup(ctx context.Context, locator string) (*Entry, error) {
	var e Entry
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT url, status, words, attempts, fetched_at FROM crawl_ledger WHERE url = $1`,
		locator,
	).Scan(&e.URL, &e.Status, &e.Words, &e.Attempts, &e.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", locator, err)
	}
	return &e, nil
}

// Recent returns the last limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT url, status, words, attempts, fetched_at FROM crawl_ledger
		 ORDER BY fetched_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing crawl ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.URL, &e.Status, &e.Words, &e.Attempts, &e.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Reset empties the ledger before a fresh crawl.
func (s *Store) Reset(ctx context.Context) error {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM crawl_ledger`)
		return err
	})
	if err != nil {
		return fmt.Errorf("resetting crawl ledger: %w", err)
	}
	s.logger.Info("crawl ledger reset")
	return nil
}
