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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	xredis "github.com/garrettladley/bellhop/internal/redis"
	"github.com/garrettladley/bellhop/internal/server"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const (
	keyPort        = "port"
	keyEnv         = "env"
	keyStore       = "store"
	keyGracePeriod = "grace_period"

	pushShutdownGracePeriod = 2 * time.Second
	httpShutdownTimeout     = 30 * time.Second
)

func main() {
	_ = godotenv.Load()

	logger := xslog.NewLoggerFromEnv(os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", xslog.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := server.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	store, err := initNotificationStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notification store: %w", err)
	}

	srv := server.New(cfg, store, logger)
	defer func() {
		if err := srv.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close server", xslog.Error(err))
		}
	}()

	coordinator := server.NewShutdownCoordinator(ctx, pushShutdownGracePeriod)
	if err := srv.Start(coordinator.Context()); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       coordinator.BaseContext,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.InfoContext(ctx, "starting server",
			slog.String(keyPort, cfg.Port),
			slog.String(keyEnv, string(cfg.Env)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "draining push connections",
			slog.Duration(keyGracePeriod, pushShutdownGracePeriod))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpShutdownTimeout)
		defer cancel()

		coordinator.Drain(shutdownCtx)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.InfoContext(ctx, "server stopped")
	return nil
}

func initNotificationStore(ctx context.Context, cfg server.Config, logger *slog.Logger) (storage.NotificationStore, error) {
	if cfg.Redis.URL == "" {
		logger.InfoContext(ctx, "initializing notification store", slog.String(keyStore, "memory"))
		return storage.NewMemoryNotificationStore(), nil
	}

	logger.InfoContext(ctx, "initializing notification store", slog.String(keyStore, "redis"))
	client, err := xredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis client: %w", err)
	}
	return storage.NewRedisNotificationStore(storage.RedisConfig{Client: client}), nil
}
