package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/parser"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "query <term> [term]",
		Short: "Crawl the seed and rank documents for one term pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := parser.ParsePair(strings.Join(args, " "))
			if err != nil {
				return err
			}
			cfg, err := opts.loadInteractive(cmd)
			if err != nil {
				return err
			}
			if err := requireSeed(cfg); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.crawl(ctx, a.executor); err != nil {
				return err
			}
			res, err := a.executor.Execute(ctx, pair, limit)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), res.Results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results to print (0 prints all)")
	return cmd
}
