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

	"linkvault/internal/auth"
	"linkvault/internal/config"
	"linkvault/internal/handlers"
	"linkvault/internal/middleware"
	"linkvault/internal/observability"
	"linkvault/internal/repository"
	"linkvault/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"
)

const (
	urlCacheTTL     = 10 * time.Minute
	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	logger := observability.NewLogger(os.Stdout, cfg.IsProduction(), cfg.LogLevel)
	slog.SetDefault(logger)

	// 3. Tracing
	shutdownTracer := func(context.Context) error { return nil }
	if cfg.OTelEndpoint != "" {
		shutdownTracer, err = observability.InitTracer(ctx, cfg.ServiceName, cfg.OTelEndpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	// 4. Initialize Database
	db, err := repository.InitDB(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// 5. Run Migrations
	if repository.IsSQLite(cfg.DatabaseURL) {
		if err := repository.AutoMigrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else {
		logger.Info("Running database migrations...")
		if err := repository.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir, logger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	// 6. Initialize Redis
	cache := repository.NewURLCache(nil, urlCacheTTL)
	if cfg.RedisURL != "" {
		rdb, err := repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
		if err != nil {
			logger.Warn("Failed to connect to Redis, redirect cache disabled", "error", err)
		} else {
			defer rdb.Close()
			cache = repository.NewURLCache(rdb, urlCacheTTL)
		}
	}

	// 7. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewProm(registry)

	// 8. Initialize Services
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	urls := repository.NewURLRepository(db)
	auditService := services.NewAuditService(repository.NewAuditLogRepository(db), logger, cfg.AuditQueueSize, metrics)
	userService := services.NewUserService(repository.NewUserRepository(db), cache, tokens, auditService, logger, cfg.ResetTokenTTL)
	shortenerService := services.NewShortenerService(urls, cache, auditService, logger)
	resolver := services.NewResolver(urls, cache, logger, metrics)
	qrService := services.NewQRService(cfg.BaseURL)

	if err := userService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	ipLimiter, err := middleware.NewFixedWindowLimiter("auth_ip", cfg.RateLimitMax, cfg.RateLimitWindow, cfg.RateLimitCacheSize, metrics)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}
	emailLimiter, err := middleware.NewFixedWindowLimiter("auth_email", cfg.RateLimitMax, cfg.RateLimitWindow, cfg.RateLimitCacheSize, metrics)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	var globalLimiter *services.IPRateLimiter
	if cfg.GlobalRateLimitRPS > 0 {
		globalLimiter, err = services.NewIPRateLimiter(rate.Limit(cfg.GlobalRateLimitRPS), cfg.GlobalRateBurst, cfg.RateLimitCacheSize, logger)
		if err != nil {
			return fmt.Errorf("failed to create rate limiter: %w", err)
		}
	}

	// 9. Initialize Handler
	h := handlers.NewHandler(cfg, logger, handlers.Deps{
		DB:            db,
		Authenticator: middleware.NewAuthenticator(tokens),
		Users:         userService,
		Shortener:     shortenerService,
		Resolver:      resolver,
		Audit:         auditService,
		QR:            qrService,
		IPLimiter:     ipLimiter,
		EmailLimiter:  emailLimiter,
		Metrics:       metrics,
		Gatherer:      registry,
	})

	// 10. Setup Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := h.SetupRouter(globalLimiter)

	// 11. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Background Context for workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		auditService.Start(workerCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Requests are finished; flush pending audit entries.
	workerCancel()
	select {
	case <-auditDone:
	case <-shutdownCtx.Done():
		logger.Warn("Audit worker did not drain in time")
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown failed", "error", err)
	}

	logger.Info("Server exiting")
	return runErr
}
