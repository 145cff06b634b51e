package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/items/backend/internal/config"
	"github.com/zhouzirui/items/backend/internal/handler"
	"github.com/zhouzirui/items/backend/internal/model/item"
	"github.com/zhouzirui/items/backend/internal/service/events"
	itemservice "github.com/zhouzirui/items/backend/internal/service/item"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file, continuing with system environment only", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stderr, cfg.Log)
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := events.NewHub(cfg.Events.Buffer)
	items := itemservice.NewService(store, hub)

	router := handler.NewRouter(items, hub, handler.Options{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("items backend listening", "addr", srv.Addr, "store", cfg.Store.Driver)
	return runServer(ctx, srv, hub)
}

func runServer(ctx context.Context, srv *http.Server, hub *events.Hub) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		// Feed connections are long-lived; close them first so Shutdown can drain.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (item.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := item.OpenSQLiteStore(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Warn("failed to close sqlite store", "error", err)
			}
		}, nil
	case config.DriverMemory:
		return item.NewMemoryStore(nil), func() {}, nil
	default:
		return item.NewFileStore(cfg.DataFile), func() {}, nil
	}
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
