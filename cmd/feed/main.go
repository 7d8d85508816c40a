// Package main runs a standalone update feed. Clients connect over
// WebSocket at /feed; with -redis it also publishes to a Redis stream for
// consumers scoped through the stream's scope hash.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/api"
	"github.com/SurajNatekar28/token-trading-table/internal/config"
	"github.com/SurajNatekar28/token-trading-table/internal/feed/redisfeed"
	"github.com/SurajNatekar28/token-trading-table/internal/feed/sim"
	"github.com/SurajNatekar28/token-trading-table/internal/feed/wsfeed"
	"github.com/SurajNatekar28/token-trading-table/internal/logging"
	"github.com/SurajNatekar28/token-trading-table/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (env vars as defaults)
	flag.StringVar(&cfg.FeedAddr, "addr", cfg.FeedAddr, "WebSocket listen address")
	flag.DurationVar(&cfg.SimInterval, "interval", cfg.SimInterval, "Update interval")
	publishRedis := flag.Bool("redis", false, "Also publish updates to Redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	flag.StringVar(&cfg.RedisStream, "redis-stream", cfg.RedisStream, "Redis stream key")
	scopeRefresh := flag.Duration("scope-refresh", time.Second, "Redis scope refresh interval")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json, console")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *publishRedis {
		pub := redisfeed.NewPublisher(redisfeed.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.RedisStream,
			Logger:   logger,
		})
		defer pub.Close()

		go func() {
			src := sim.New(sim.Options{Interval: cfg.SimInterval, Logger: logger})
			if err := pub.Run(ctx, src, *scopeRefresh); err != nil {
				logger.Error("redis publisher stopped", zap.Error(err))
			}
		}()
		logger.Info("publishing to redis", zap.String("addr", cfg.RedisAddr), zap.String("stream", cfg.RedisStream))
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(api.LoggingMiddleware(logger))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", observability.Handler())
	r.Handle("/feed", wsfeed.NewServer(wsfeed.ServerOptions{
		Interval: cfg.SimInterval,
		Logger:   logger,
	}))

	srv := &http.Server{
		Addr:              cfg.FeedAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("feed listening", zap.String("addr", cfg.FeedAddr), zap.Duration("interval", cfg.SimInterval))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("feed server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
