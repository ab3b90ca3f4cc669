package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/crawler/ledger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/postgres"
)

var errLedgerDisabled = errors.New("crawl ledger needs postgres: set postgres.enabled or MS_POSTGRES_ENABLED=true")

type ledgerReader interface {
	Lookup(ctx context.Context, locator string) (*ledger.Entry, error)
	Recent(ctx context.Context, limit int) ([]ledger.Entry, error)
}

func newLedgerCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ledger [url]",
		Short: "Show recorded crawl outcomes",
		Long:  "ledger prints the most recent fetch outcomes from the Postgres crawl ledger, or the outcome for one URL.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadInteractive(cmd)
			if err != nil {
				return err
			}
			if !cfg.Postgres.Enabled {
				return errLedgerDisabled
			}
			ctx := cmd.Context()
			db, err := postgres.New(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()
			store := ledger.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			return printLedger(ctx, cmd.OutOrStdout(), store, args, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of recent entries to show")
	return cmd
}

// printLedger writes one row per entry: the entry for args[0] if given,
// otherwise the newest limit entries.
func printLedger(ctx context.Context, out io.Writer, store ledgerReader, args []string, limit int) error {
	var entries []ledger.Entry
	if len(args) == 1 {
		e, err := store.Lookup(ctx, args[0])
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("%s has not been crawled", args[0])
		}
		entries = append(entries, *e)
	} else {
		recent, err := store.Recent(ctx, limit)
		if err != nil {
			return err
		}
		entries = recent
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tWORDS\tATTEMPTS\tFETCHED\tURL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", e.Status, e.Words, e.Attempts, e.FetchedAt.UTC().Format(time.RFC3339), e.URL)
	}
	return tw.Flush()
}
