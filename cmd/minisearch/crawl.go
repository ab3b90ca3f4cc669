package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/kafka"
)

func newCrawlCmd(opts *rootOptions) *cobra.Command {
	var resetLedger bool
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the seed and publish every page to Kafka",
		Long:  "crawl fetches the neighbourhood of the seed and publishes one ingest event per page, in discovery order, for `minisearch serve` instances to index.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadInteractive(cmd)
			if err != nil {
				return err
			}
			if err := requireSeed(cfg); err != nil {
				return err
			}
			if !cfg.Kafka.Enabled {
				return fmt.Errorf("kafka is disabled: set kafka.enabled or MS_KAFKA_ENABLED=true")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if resetLedger {
				if a.ledger == nil {
					return errLedgerDisabled
				}
				if err := a.ledger.Reset(ctx); err != nil {
					return err
				}
			}

			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
			defer producer.Close()
			pub := publisher.New(producer)

			summary, err := a.crawl(ctx, pub)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "crawl %s: %d pages published (%d failed, %d words) in %s\n",
				pub.CrawlID(), summary.Ingested, summary.Failed, summary.Words, summary.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&resetLedger, "reset-ledger", false, "empty the crawl ledger before crawling")
	return cmd
}
