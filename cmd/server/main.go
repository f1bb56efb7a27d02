package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/tbe/internal/config"
	"github.com/JonMunkholm/tbe/internal/core"
	"github.com/JonMunkholm/tbe/internal/logging"
	"github.com/JonMunkholm/tbe/internal/web"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	cleanup := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		SeqURL: cfg.Logging.SeqURL,
	})
	defer cleanup()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"persistent", cfg.Database.Persistent(),
		"extract_max_concurrent", cfg.Extract.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	service, server, closeStore, err := setup(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return 1
	}
	defer closeStore()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for extractions to complete", "active", status.Active)
			if err := service.WaitForExtractions(shutdownCtx); err != nil {
				slog.Warn("extractions did not complete in time", "error", err)
			} else {
				slog.Info("all extractions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return 1
	}
	slog.Info("server stopped")
	return 0
}

// setup builds the extraction store, service and HTTP server from cfg.
// The returned func releases the store.
func setup(ctx context.Context, cfg *config.Config) (*core.Service, *web.Server, func(), error) {
	var (
		store     core.ExtractionStore
		closeFunc = func() {}
	)

	if cfg.Database.Persistent() {
		pool, err := connect(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}

		pg := core.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("apply schema: %w", err)
		}
		store = pg
		closeFunc = pool.Close
	} else {
		slog.Info("DATABASE_URL not set, keeping extraction history in memory",
			"retained", cfg.Extract.Retained)
		store = core.NewMemoryStore(cfg.Extract.Retained)
	}

	service := core.NewService(store, cfg.Extract)
	return service, web.NewServer(service, cfg), closeFunc, nil
}

// connect opens and verifies a pgx pool sized from cfg.
func connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
