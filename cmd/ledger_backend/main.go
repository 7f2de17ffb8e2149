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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qorinti/ledger_backend/internal/adapters/blob"
	"github.com/qorinti/ledger_backend/internal/adapters/export"
	"github.com/qorinti/ledger_backend/internal/adapters/render"
	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	"github.com/qorinti/ledger_backend/internal/core/services"
	"github.com/qorinti/ledger_backend/internal/handlers"
	"github.com/qorinti/ledger_backend/internal/middleware"
	"github.com/qorinti/ledger_backend/internal/platform/config"
	"github.com/qorinti/ledger_backend/internal/platform/observability"
	"github.com/qorinti/ledger_backend/internal/repositories/database/pgsql"
	"github.com/qorinti/ledger_backend/internal/repositories/memory"
	"github.com/qorinti/ledger_backend/internal/utils"
	"github.com/qorinti/ledger_backend/pkg/database"
)

// @title Qorinti Ledger API
// @version 1.0
// @description Driver ledger, commission settlement and receipt emission.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, changes, closeRepos, err := setupRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepos()

	blobs, err := setupBlobStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize blob storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	serviceContainer, background, err := services.NewServiceContainer(cfg, repos, services.Gateways{
		Blobs:    blobs,
		Renderer: render.NewPDFRenderer(),
		Exporter: export.NewXLSXExporter(),
		Changes:  changes,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, metrics, cors, analytics)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		observability.GinMiddleware(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.AdminKeyHeader, "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.PosthogMiddleware(posthogClient),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter)

	backgroundDone := make(chan struct{})
	go func() {
		defer close(backgroundDone)
		background.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
	<-backgroundDone
	logger.Info("Server stopped")
}

// setupRepositories returns the repositories and, for Postgres, the feed that carries
// changes committed by other instances. The memory store has no such feed.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, gateways.ChangeFeed, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore().Provider(), nil, func() {}, nil
	}

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return portsrepo.RepositoryProvider{}, nil, nil, fmt.Errorf("migrations: %w", err)
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, nil, err
	}
	logger.Info("Database connection pool established.")
	feed := pgsql.NewChangeFeed(dbPool, logger.With(slog.String("component", "change_feed")))
	return pgsql.NewRepositoryProvider(dbPool), feed, func() { database.ClosePgxPool(dbPool) }, nil
}

func setupBlobStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (gateways.BlobStorage, error) {
	switch cfg.BlobDriver {
	case config.BlobS3:
		return blob.NewS3Storage(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			URLExpiry: cfg.S3URLExpiry,
		}, logger)
	case config.BlobLocal:
		return blob.NewLocalStorage(cfg.LocalBlobDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}
