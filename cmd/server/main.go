package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/heist-server/internal/config"
	"github.com/DoyleJ11/heist-server/internal/httpapi"
	"github.com/DoyleJ11/heist-server/internal/hub"
	"github.com/DoyleJ11/heist-server/internal/logging"
	"github.com/DoyleJ11/heist-server/internal/storage"
	"github.com/DoyleJ11/heist-server/internal/storage/memory"
	"github.com/DoyleJ11/heist-server/internal/storage/postgres"
	"github.com/DoyleJ11/heist-server/internal/storage/redis"
	"github.com/DoyleJ11/heist-server/internal/storage/sqlite"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Development(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	g, gctx := errgroup.WithContext(ctx)

	// Rooms shut down with gctx, which ends on a signal or a server error.
	h := hub.NewHub(gctx, hub.Options{
		Store:          store,
		Logger:         logger,
		PersistTimeout: cfg.PersistTimeout,
		IdleTimeout:    cfg.RoomIdleTimeout,
	})

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(h, httpapi.Options{
			OriginPatterns: cfg.AllowedOrigins,
			Logger:         logger,
			PingInterval:   cfg.PingInterval,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()

	// Rooms save on their way out; the store must outlive them.
	<-h.Done()
	return err
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		return postgres.Open(cfg.DatabaseURL)
	case config.StoreSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.StoreRedis:
		return redis.Open(ctx, cfg.RedisAddr, cfg.RedisTTL)
	default:
		return memory.New(), nil
	}
}
