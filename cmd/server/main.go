// Package main runs the pulse service: the dataset controller fed by the
// configured update transport, and the HTTP API serving its views.
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

	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/api"
	"github.com/SurajNatekar28/token-trading-table/internal/config"
	"github.com/SurajNatekar28/token-trading-table/internal/dataset"
	"github.com/SurajNatekar28/token-trading-table/internal/feed"
	"github.com/SurajNatekar28/token-trading-table/internal/feed/redisfeed"
	"github.com/SurajNatekar28/token-trading-table/internal/feed/sim"
	"github.com/SurajNatekar28/token-trading-table/internal/feed/wsfeed"
	"github.com/SurajNatekar28/token-trading-table/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (env vars as defaults)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.Chain, "chain", cfg.Chain, "Initial chain (SOL, BNB)")
	flag.StringVar(&cfg.Feed, "feed", cfg.Feed, "Update feed: sim, ws, redis")
	flag.StringVar(&cfg.FeedURL, "feed-url", cfg.FeedURL, "WebSocket feed URL (feed=ws)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address (feed=redis)")
	flag.StringVar(&cfg.RedisStream, "redis-stream", cfg.RedisStream, "Redis stream key (feed=redis)")
	flag.IntVar(&cfg.MaxPerCategory, "max-per-category", cfg.MaxPerCategory, "Retention cap for new tokens (0 = unbounded)")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0 = clock)")
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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport, err := newTransport(cfg, logger)
	if err != nil {
		return err
	}

	controller := dataset.New(dataset.Options{
		Chain:            cfg.ParsedChain(),
		Transport:        transport,
		Seed:             cfg.Seed,
		Capacity:         cfg.Capacity,
		MaxPerCategory:   cfg.MaxPerCategory,
		MaxArrivalDelay:  cfg.MaxArrivalDelay,
		FrameInterval:    cfg.FrameInterval,
		MutationInterval: cfg.MutationInterval,
		DebounceDelay:    cfg.DebounceDelay,
		LoadingDelay:     cfg.LoadingDelay,
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(controller, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		done <- controller.Run(ctx)
	}()

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Addr), zap.String("feed", cfg.Feed))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
		cancel()
		runErr = <-done
	case runErr = <-done:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func newTransport(cfg *config.Config, logger *zap.Logger) (feed.Transport, error) {
	switch cfg.Feed {
	case config.FeedSim:
		return sim.New(sim.Options{Interval: cfg.SimInterval, Logger: logger}), nil
	case config.FeedWS:
		return wsfeed.NewClient(cfg.FeedURL, nil, logger), nil
	case config.FeedRedis:
		return redisfeed.NewConsumer(redisfeed.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.RedisStream,
			Logger:   logger,
		}), nil
	}
	return nil, fmt.Errorf("unknown feed %q", cfg.Feed)
}
