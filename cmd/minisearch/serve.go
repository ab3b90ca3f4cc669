package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/middleware"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noCrawl bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API",
		Long:  "serve exposes the index over HTTP. Documents come from a crawl of the seed (unless --no-crawl) and, when Kafka is enabled, from ingest events published by `minisearch crawl`.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(reg)

			a, err := newApp(ctx, cfg, m)
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.Metrics.Enabled {
				shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
				defer shutdownMetrics(context.Background())
			}

			checker := newChecker(a)
			h := handler.New(a.executor, a.cache, m, cfg.Search)
			mux := http.NewServeMux()
			h.Routes(mux)
			mux.HandleFunc("GET /health/live", checker.LiveHandler())
			mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

			var chain http.Handler = mux
			chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
			var limiter *middleware.Limiter
			if cfg.Server.RateLimit > 0 {
				limiter = middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
				chain = middleware.RateLimit(limiter)(chain)
			}
			chain = middleware.Metrics(m)(chain)
			chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
			chain = middleware.RequestID(chain)

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      chain,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				slog.Info("search service listening", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				slog.Info("shutdown signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
			if limiter != nil {
				g.Go(func() error {
					limiter.RunSweeper(gctx, 5*time.Minute)
					return nil
				})
			}
			if cfg.Kafka.Enabled {
				c := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(a.executor))
				g.Go(func() error {
					return c.Start(gctx)
				})
			}
			if !noCrawl && cfg.Crawler.Seed != "" {
				g.Go(func() error {
					summary, err := a.crawl(gctx, a.executor)
					if err != nil && gctx.Err() == nil {
						slog.Error("crawl failed", "seed", cfg.Crawler.Seed, "error", err)
					}
					slog.Info("index ready", "documents", summary.Ingested, "words", a.executor.Stats().Words)
					return nil
				})
			}

			err = g.Wait()
			slog.Info("search service stopped")
			return err
		},
	}
	cmd.Flags().BoolVar(&noCrawl, "no-crawl", false, "start with an empty index and rely on Kafka ingest events")
	return cmd
}

func newChecker(a *app) *health.Checker {
	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		stats := a.executor.Stats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d words in %d documents", stats.Words, stats.Documents),
		}
	})
	if a.redis != nil {
		checker.Register("redis", health.PingCheck(a.redis.Ping, true))
	}
	if a.db != nil {
		checker.Register("postgres", health.PingCheck(a.db.Ping, true))
	}
	if a.cfg.Kafka.Enabled {
		brokers := a.cfg.Kafka.Brokers
		checker.Register("kafka", health.PingCheck(func(ctx context.Context) error {
			return kafka.Ping(ctx, brokers)
		}, false))
	}
	return checker
}
