package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/GANESH4511/Dataverse/internal/auth"
	"github.com/GANESH4511/Dataverse/internal/chain"
	"github.com/GANESH4511/Dataverse/internal/config"
	"github.com/GANESH4511/Dataverse/internal/database"
	"github.com/GANESH4511/Dataverse/internal/lock"
	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/GANESH4511/Dataverse/internal/logic"
	"github.com/GANESH4511/Dataverse/internal/metrics"
	"github.com/GANESH4511/Dataverse/internal/router"
	"github.com/GANESH4511/Dataverse/internal/scheduler"
	"github.com/GANESH4511/Dataverse/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	log, err := logger.NewFromConfig(cfg.Log)
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	debug := logger.ParseLogLevel(cfg.Log.Level) == logger.DEBUG
	db, err := database.Init(cfg.Database, debug)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	chainManager, err := chain.NewManager(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var presigner storage.Presigner
	if p, err := storage.NewS3Presigner(ctx, cfg.Storage); err != nil {
		logger.Warn("Object storage unavailable, upload URLs are disabled: %v", err)
	} else {
		presigner = p
	}
	mapper := storage.NewMapper(cfg.Storage.DeliveryDomain, cfg.Storage.Bucket)

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.Addr != "" {
		client, err := lock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client)
		logger.Info("Using redis payout locks at %s", cfg.Redis.Addr)
	}

	m := metrics.New()
	userTokens := auth.NewTokenIssuer(auth.NamespaceUser, cfg.Auth.UserJWTSecret, cfg.Auth.TokenTTL)
	workerTokens := auth.NewTokenIssuer(auth.NamespaceWorker, cfg.Auth.WorkerJWTSecret, cfg.Auth.TokenTTL)

	settlement := logic.NewSettlementLogic(db, chainManager.Transferrer(), locker, m, logic.SettlementOptionsFrom(cfg))
	deps := router.Dependencies{
		Auth:               logic.NewAuthLogic(db, chainManager.Verifier(), userTokens, workerTokens, cfg.Auth.AllowLegacySignIn),
		Tasks:              logic.NewTaskLogic(db, mapper),
		Submissions:        logic.NewSubmissionLogic(db, mapper, settlement, m),
		Uploads:            logic.NewUploadLogic(presigner),
		Payments:           logic.NewPaymentLogic(db, chainManager.Decimals()),
		Profiles:           logic.NewProfileLogic(db),
		Settlement:         settlement,
		UserTokens:         userTokens,
		WorkerTokens:       workerTokens,
		Health:             chainManager,
		Metrics:            m,
		Decimals:           chainManager.Decimals(),
		RateLimitPerMinute: cfg.Auth.RateLimitPerMinute,
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(deps)

	jobs, err := scheduler.NewManager(scheduler.NewPayoutReconcileJob(settlement, cfg.Settlement.ReconcileInterval))
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}
	jobs.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.WithCORS(engine, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		logger.Info("Health check: http://localhost:%s/health", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	jobs.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
