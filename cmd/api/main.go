// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

// Command api is the entry point for the Flow Immersive site API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (and .env when present).
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build the identity provider and the authorization wiring.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowimmersive/flowsite/internal/api"
	"github.com/flowimmersive/flowsite/internal/content/blog"
	"github.com/flowimmersive/flowsite/internal/marketing/demo"
	"github.com/flowimmersive/flowsite/internal/platform/config"
	"github.com/flowimmersive/flowsite/internal/platform/constants"
	"github.com/flowimmersive/flowsite/internal/platform/migration"
	pgstore "github.com/flowimmersive/flowsite/internal/platform/postgres"
	redisstore "github.com/flowimmersive/flowsite/internal/platform/redis"
	"github.com/flowimmersive/flowsite/internal/platform/sec"
	"github.com/flowimmersive/flowsite/internal/users/auth"
	"github.com/flowimmersive/flowsite/internal/users/identity"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. A deadline catches misconfiguration quickly
	// rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.Options{
		StatementTimeout: cfg.StoreCallTimeout,
	}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Identity & Authorization ───────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize token service")

	provider := identity.NewProvider(
		identity.NewAccountRepository(pool),
		identity.NewSessionRepository(rdb),
		tokens,
		cfg.SessionTTL,
		log,
	)

	controllerConfig := auth.Config{
		RetryDelay:     cfg.ProfileRetryDelay,
		MaxAttempts:    cfg.ProfileMaxAttempts,
		ReconcileDelay: cfg.ProfileReconcileDelay,
		CallTimeout:    cfg.StoreCallTimeout,
	}

	authHandler := auth.NewHandler(
		func(token string) auth.SessionClient { return provider.NewClient(token) },
		auth.NewProfileStore(pool),
		controllerConfig,
		auth.CookieSettings{
			Name:   cfg.SessionCookieName,
			Secure: cfg.IsProduction(),
			TTL:    cfg.SessionTTL,
		},
		cfg.ViewSettleTimeout,
	)

	// ── 7. Health & Domain Handlers ───────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
		CheckCache:    func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
	}, log)

	blogService := blog.NewService(
		blog.NewPostgresRepository(pool),
		blog.NewRedisCache(rdb, cfg.BlogCacheTTL),
		cfg.StoreCallTimeout,
		log,
	)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Blog:      blog.NewHandler(blogService),
		Demo:      demo.NewHandler(demo.NewLogNotifier(log), cfg.DemoRequestRecipient),
	}

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("server_shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the root JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", "flowsite"))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
