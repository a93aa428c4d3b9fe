// Package main is the entrypoint for the Traceboard API server.
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

	"github.com/rakshithgowda/traceboard/internal/api"
	"github.com/rakshithgowda/traceboard/internal/api/handler"
	mw "github.com/rakshithgowda/traceboard/internal/api/middleware"
	"github.com/rakshithgowda/traceboard/internal/api/response"
	"github.com/rakshithgowda/traceboard/internal/auth"
	"github.com/rakshithgowda/traceboard/internal/cache"
	"github.com/rakshithgowda/traceboard/internal/config"
	"github.com/rakshithgowda/traceboard/internal/ingest"
	"github.com/rakshithgowda/traceboard/internal/store"
	"github.com/rakshithgowda/traceboard/internal/tenant"
	"github.com/rakshithgowda/traceboard/internal/triage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Wire services
	pgStore := store.NewPostgresStore(pool)
	tenantSvc := tenant.NewService(pgStore, redisCache)
	ingestSvc := ingest.NewService(tenantSvc, pgStore)
	triageSvc := triage.NewService(pgStore, redisCache)

	authenticator := auth.NewJWTAuthenticator([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer)

	deps := api.Dependencies{
		Auth: mw.NewAuth(authenticator),

		HealthHandler: healthHandler(pgStore, redisCache),
		IngestHandler: handler.NewIngestHandler(ingestSvc),

		ListProjects:  handler.NewListProjectsHandler(tenantSvc),
		CreateProject: handler.NewCreateProjectHandler(tenantSvc),
		GetProject:    handler.NewGetProjectHandler(tenantSvc),
		DeleteProject: handler.NewDeleteProjectHandler(tenantSvc),
		ProjectStats:  handler.NewProjectStatsHandler(triageSvc),

		ListEvents:  handler.NewListEventsHandler(triageSvc),
		GetEvent:    handler.NewGetEventHandler(triageSvc),
		UpdateEvent: handler.NewUpdateEventHandler(triageSvc),

		CreateInvitation: handler.NewCreateInvitationHandler(tenantSvc),
		ListInvitations:  handler.NewListInvitationsHandler(tenantSvc),
		AcceptInvitation: handler.NewAcceptInvitationHandler(tenantSvc),
	}

	router := api.NewRouter(deps)

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		status, label := http.StatusOK, "ok"
		if checks["database"] != "ok" || checks["cache"] != "ok" {
			status, label = http.StatusServiceUnavailable, "degraded"
		}
		response.JSON(w, status, map[string]any{
			"status":   label,
			"services": checks,
		})
	}
}
