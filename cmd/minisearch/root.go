package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/logger"
)

// rootOptions are the flags shared by every subcommand. Flags win over the
// config file and MS_* environment variables.
type rootOptions struct {
	configPath  string
	seed        string
	depth       int
	linkPattern string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "minisearch",
		Short:         "minisearch is a tiny crawl-and-rank search engine",
		Long:          "minisearch crawls pages reachable from a seed URL, builds an in-memory inverted index of their visible words and ranks documents for pairs of search terms by position and proximity.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.seed, "seed", "", "URL to start crawling from")
	flags.IntVar(&opts.depth, "depth", 0, "maximum link distance from the seed")
	flags.StringVar(&opts.linkPattern, "link-pattern", "", "regular expression an href must match to be followed")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(
		newREPLCmd(opts),
		newQueryCmd(opts),
		newServeCmd(opts),
		newCrawlCmd(opts),
		newLedgerCmd(opts),
	)
	return cmd
}

// load reads the config and applies any flags the user set explicitly.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Crawler.Seed = o.seed
	}
	if flags.Changed("depth") {
		cfg.Crawler.Depth = o.depth
	}
	if flags.Changed("link-pattern") {
		cfg.Crawler.LinkPattern = o.linkPattern
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadInteractive is load for commands that print results to stdout. Logs go
// to stderr so they never mix with the ranking.
func (o *rootOptions) loadInteractive(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func requireSeed(cfg *config.Config) error {
	if cfg.Crawler.Seed == "" {
		return fmt.Errorf("no seed URL: pass --seed or set crawler.seed")
	}
	return nil
}

// printResults writes one "document score" line per entry, score rounded to
// one decimal.
func printResults(out io.Writer, entries []ranker.ResultEntry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%s %.1f\n", e.DocumentID, e.Score)
	}
}
