package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/parser"
)

func newREPLCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Crawl the seed, then answer term pairs interactively",
		Long:  "repl crawls from the seed, then repeatedly asks for two terms and prints every matching document with its score, lowest score first. An empty first term exits.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a.executor)
		},
	}
}

// runREPL reads term pairs from in until an empty first term or EOF.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, ex *executor.Executor) error {
	scanner := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		fmt.Fprint(out, label)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}
	for {
		one, ok := prompt("Enter first term: ")
		if !ok || one == "" {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		two, ok := prompt("Enter second term: ")
		if !ok {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if two == "" {
			two = one
		}
		pair, err := parser.NewPair(one, two)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		res, err := ex.Execute(ctx, pair, 0)
		if err != nil {
			return err
		}
		printResults(out, res.Results)
		fmt.Fprintln(out)
	}
}
