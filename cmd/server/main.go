package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	analyticsapp "github.com/dhruvretails/backend/internal/application/analytics"
	eventapp "github.com/dhruvretails/backend/internal/application/event"
	syncapp "github.com/dhruvretails/backend/internal/application/sync"
	webhookapp "github.com/dhruvretails/backend/internal/application/webhook"
	"github.com/dhruvretails/backend/internal/infrastructure/config"
	"github.com/dhruvretails/backend/internal/infrastructure/logger"
	"github.com/dhruvretails/backend/internal/infrastructure/persistence"
	"github.com/dhruvretails/backend/internal/infrastructure/queue"
	"github.com/dhruvretails/backend/internal/infrastructure/scheduler"
	"github.com/dhruvretails/backend/internal/infrastructure/shopify"
	"github.com/dhruvretails/backend/internal/interfaces/http/handler"
	"github.com/dhruvretails/backend/internal/interfaces/http/middleware"
	"github.com/dhruvretails/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting store sync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Redis backs the job queue and the analytics cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	eventRepo := persistence.NewGormEventRepository(db.DB)
	analyticsRepo := persistence.NewGormAnalyticsRepository(db.DB)

	// Platform gateway and sync pipeline
	gateway := shopify.NewClient(cfg.Shopify, log)
	reconciler := syncapp.NewReconciler(productRepo, customerRepo, orderRepo, log)
	orchestrator := syncapp.NewOrchestrator(tenantRepo, gateway, reconciler, log)

	// Queues. Sync and webhook jobs ride separate lanes so a webhook
	// burst cannot delay a scheduled sweep.
	broker := queue.NewRedisBroker(redisClient)
	syncQueue := queue.NewQueue(queue.QueueSync, broker, cfg.Queue, log)
	webhookQueue := queue.NewQueue(queue.QueueWebhook, broker, cfg.Queue, log)

	// Application services
	verifier := webhookapp.NewVerifier(cfg.Shopify.WebhookSecret)
	webhookService := webhookapp.NewService(verifier, tenantRepo, webhookQueue, log)
	if err := webhookService.WarmSecrets(context.Background()); err != nil {
		log.Warn("failed to warm webhook secret cache", zap.Error(err))
	}
	eventService := eventapp.NewService(eventRepo, customerRepo, log)
	analyticsService := analyticsapp.NewService(analyticsRepo, redisClient, log)

	// Workers. The sync lane is deliberately single-threaded: one sweep
	// at a time per process keeps tenants from being synced twice.
	syncWorker := queue.NewWorker(queue.QueueSync, 1, broker, syncapp.NewJobHandler(orchestrator, log), cfg.Queue, log)
	webhookWorker := queue.NewWorker(
		queue.QueueWebhook,
		cfg.Queue.WebhookWorkers,
		broker,
		webhookapp.NewJobHandler(tenantRepo, customerRepo, eventRepo, log),
		cfg.Queue,
		log,
	)

	if err := syncWorker.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync worker", zap.Error(err))
	}
	defer func() {
		if err := syncWorker.Stop(context.Background()); err != nil {
			log.Error("Error stopping sync worker", zap.Error(err))
		}
	}()

	if err := webhookWorker.Start(context.Background()); err != nil {
		log.Fatal("Failed to start webhook worker", zap.Error(err))
	}
	defer func() {
		if err := webhookWorker.Stop(context.Background()); err != nil {
			log.Error("Error stopping webhook worker", zap.Error(err))
		}
	}()
	log.Info("Queue workers started", zap.Int("webhook_workers", cfg.Queue.WebhookWorkers))

	// Interval trigger for scheduled sweeps
	if cfg.Sync.Enabled {
		trigger := scheduler.NewSyncTrigger(cfg.Sync.Interval, syncQueue, log)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync trigger", zap.Error(err))
			}
		}()
		log.Info("Sync trigger started", zap.Duration("interval", cfg.Sync.Interval))
	}

	// HTTP handlers
	webhookHandler := handler.NewWebhookHandler(webhookService, log)
	syncHandler := handler.NewSyncHandler(orchestrator, syncQueue, log)
	eventHandler := handler.NewEventHandler(eventService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	tenantHandler := handler.NewTenantHandler(tenantRepo, productRepo, customerRepo, orderRepo)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(webhookHandler)
	r.Register(syncHandler)
	r.Register(eventHandler)
	r.Register(analyticsHandler)
	r.Register(tenantHandler)
	r.Register(healthHandler)
	r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	log.Info("Server stopped")
}
