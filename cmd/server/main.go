package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"playlearn/internal/cache"
	"playlearn/internal/config"
	"playlearn/internal/database"
	"playlearn/internal/handlers"
	"playlearn/internal/repository"
	"playlearn/internal/security"
	"playlearn/internal/service"
	"playlearn/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	status := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepCatalog,
		handlers.StepScheduler,
	)

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	status.CompleteStep(handlers.StepDatabase)
	logger.Info("Database connection established", zap.String("type", cfg.DatabaseType))

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	status.CompleteStep(handlers.StepMigrations)

	catalogCache, err := cache.New(cache.Config{Provider: cfg.CacheProvider, RedisURL: cfg.RedisURL}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer catalogCache.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	gameRepo := repository.NewGameRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(gameRepo, achievementRepo, catalogCache, cfg.CatalogCacheTTL, logger)
	if err := catalogService.Seed(context.Background()); err != nil {
		logger.Fatal("Failed to seed catalog", zap.Error(err))
	}
	status.CompleteStep(handlers.StepCatalog)

	childService := service.NewChildService(childRepo, userRepo, progressRepo, achievementRepo, catalogService)
	settlementService := service.NewSettlementService(db, catalogService, logger)
	reconcileService := service.NewReconcileService(childRepo, progressRepo, logger)
	backupService := service.NewBackupService(db, logger)

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	verifier := security.NewTokenVerifier(secret)
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	scheduler, err := startScheduler(cfg, logger, reconcileService, backupService, limiter, catalogCache)
	if err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	status.CompleteStep(handlers.StepScheduler)

	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(verifier, limiter, logger),
		Progress:   handlers.NewProgressHandler(settlementService, logger),
		Children:   handlers.NewChildHandler(childService, logger),
		Catalog:    handlers.NewCatalogHandler(catalogService, logger),
		Admin:      handlers.NewAdminHandler(reconcileService, backupService, logger),
		Health:     handlers.NewHealthHandler(status, db, logger),
		Logger:     logger,
	}

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()
	status.MarkReady()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	if err := scheduler.Shutdown(); err != nil {
		logger.Error("Scheduler shutdown failed", zap.Error(err))
	}
}

// initLogger builds the structured logger for the configured environment
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// startScheduler registers the periodic maintenance jobs
func startScheduler(cfg *config.Config, logger *zap.Logger, reconcile *service.ReconcileService,
	backup *service.BackupService, limiter *security.RateLimiter, catalogCache cache.Cache) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.ReconcileInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			report, err := reconcile.Run(ctx)
			if err != nil {
				logger.Error("Reconcile job failed", zap.Error(err))
				return
			}
			logger.Info("Reconcile job finished",
				zap.Int("checked", report.ChildrenChecked),
				zap.Int("drifts", len(report.Drifts)))
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("reconcile job: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			removed := limiter.Cleanup()
			if mem, ok := catalogCache.(*cache.MemoryCache); ok {
				removed += mem.Purge()
			}
			logger.Debug("Expired entries cleaned up", zap.Int("removed", removed))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("cleanup job: %w", err)
	}

	if cfg.BackupS3Bucket != "" {
		store, err := storage.NewS3Store(context.Background(), storage.Config{
			Bucket:          cfg.BackupS3Bucket,
			Region:          cfg.BackupS3Region,
			Endpoint:        cfg.BackupS3Endpoint,
			AccessKeyID:     cfg.BackupS3AccessKeyID,
			SecretAccessKey: cfg.BackupS3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("backup store: %w", err)
		}

		_, err = sched.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
				defer cancel()
				key, err := backup.Upload(ctx, store, "nightly/")
				if err != nil {
					logger.Error("Nightly backup failed", zap.Error(err))
					return
				}
				logger.Info("Nightly backup uploaded", zap.String("key", key))
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("backup job: %w", err)
		}
	}

	sched.Start()
	return sched, nil
}
