package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "iris/docs" // This is for Swagger
	"iris/internal/auth"
	"iris/internal/config"
	"iris/internal/database"
	"iris/internal/email"
	"iris/internal/filestore"
	"iris/internal/handlers"
	"iris/internal/identity"
	"iris/internal/logger"
	"iris/internal/middleware"
	"iris/internal/repository"
	"iris/internal/scheduler"
	"iris/internal/search"
	"iris/internal/service"
	"iris/internal/session"
	"iris/internal/vault"
	"iris/migrations"
)

// @title IRIS API
// @version 1.0
// @description Backend API for the IRIS innovation portal: challenges, ideas and grassroot improvements
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@iris.example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	if err := run(cfg); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()
	slog.Info("Database connection established")

	// Run database migrations
	var migrationFS fs.FS = migrations.FS
	if cfg.App.MigrationsPath != "" {
		migrationFS = os.DirFS(cfg.App.MigrationsPath)
	}
	if err := database.NewMigrationExecutor(db.DB, migrationFS).Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	store := repository.NewDBStore(db.DB)

	// Sessions
	sessions, err := session.NewRedisStore(cfg.Session.RedisURL, cfg.Session.KeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to connect to session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			slog.Error("Failed to close session store", "error", err)
		}
	}()

	authService := auth.NewService(&cfg.JWT)
	resolver := identity.NewResolver(authService, sessions, store.Repos())

	// Optional backends
	var files service.FileStore
	if cfg.Storage.Enabled {
		minioStore, err := filestore.NewMinioStore(ctx, filestore.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize file storage: %w", err)
		}
		files = minioStore
		slog.Info("File storage initialized", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	} else {
		slog.Warn("File storage is disabled - idea documents will be refused")
	}

	var cipher service.DetailCipher
	if cfg.Vault.Enabled {
		vaultClient, err := vault.NewClient(ctx, &vault.Config{
			Address:      cfg.Vault.Address,
			Token:        cfg.Vault.Token,
			TransitMount: cfg.Vault.TransitMount,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Vault client: %w", err)
		}
		detailCipher, err := vault.NewDetailCipher(ctx, vaultClient, cfg.Vault.KeyName)
		if err != nil {
			return fmt.Errorf("failed to initialize idea cipher: %w", err)
		}
		cipher = detailCipher
		slog.Info("Confidential idea sealing enabled", "vault_addr", cfg.Vault.Address)
	} else {
		slog.Warn("Vault is disabled - confidential ideas are stored unsealed")
	}

	var searchSvc *search.Service
	if cfg.Search.Enabled {
		meili := search.NewMeili(cfg.Search.URL, cfg.Search.APIKey, cfg.Search.Index)
		defer meili.Close()
		searchSvc = search.NewService(meili)
		all, err := store.Repos().Challenges.List(ctx, repository.ChallengeFilter{})
		if err != nil {
			slog.Warn("Failed to load challenges for reindex", "error", err)
		} else if err := searchSvc.Reindex(ctx, all); err != nil {
			slog.Warn("Challenge reindex failed", "error", err)
		}
	}

	// Initialize services
	emailService := email.NewService(&cfg.Email)
	challengeService := service.NewChallengeService(store, resolver, searchSvc)
	ideaService := service.NewIdeaService(store, files, cipher, cfg.Reward.IdeaSubmissionPoints)
	grassrootService := service.NewGrassrootService(store, resolver)
	notificationService := service.NewNotificationService(store)
	dashboardService := service.NewDashboardService(store)
	reportService := service.NewReportService(store, files)
	authSvc := service.NewAuthService(store, authService, sessions, resolver)

	// Initialize scheduler
	schedulerService := scheduler.NewScheduler(store, emailService, challengeService, &cfg.Scheduler)
	schedulerService.Start()
	defer schedulerService.Stop()

	// Initialize middleware
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	defer rateLimiter.Close()
	auditMw := middleware.NewAuditMiddleware(slog.Default())

	rt := &routes{
		authMw:  middleware.NewAuthMiddleware(resolver),
		rbacMw:  middleware.NewRBACMiddleware(resolver),
		auditMw: auditMw,

		health: handlers.NewHealthHandler(cfg.App.Version, map[string]handlers.Pinger{
			"database": handlers.PingFunc(db.HealthCheck),
			"sessions": sessions,
		}),
		config:        handlers.NewConfigHandler(cfg),
		auth:          handlers.NewAuthHandler(authSvc, auditMw),
		challenges:    handlers.NewChallengeHandler(challengeService),
		ideas:         handlers.NewIdeaHandler(ideaService),
		grassroots:    handlers.NewGrassrootHandler(grassrootService),
		notifications: handlers.NewNotificationHandler(notificationService),
		dashboard:     handlers.NewDashboardHandler(dashboardService),
		reports:       handlers.NewReportHandler(reportService, auditMw),
	}

	mux := http.NewServeMux()
	rt.register(mux)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(
					http.MaxBytesHandler(mux, cfg.Server.MaxUploadMB<<20),
				),
			),
		),
	)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
