package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/kursadbilgin/bulk-submission-engine/internal/config"
	"github.com/kursadbilgin/bulk-submission-engine/internal/handler"
	"github.com/kursadbilgin/bulk-submission-engine/internal/infra/postgresql"
	"github.com/kursadbilgin/bulk-submission-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/bulk-submission-engine/internal/infra/redis"
	"github.com/kursadbilgin/bulk-submission-engine/internal/observability"
	"github.com/kursadbilgin/bulk-submission-engine/internal/queue"
	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
	"github.com/kursadbilgin/bulk-submission-engine/internal/service"
	"github.com/kursadbilgin/bulk-submission-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger("bulk-submission-api", cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL, "bulk-submission-api")
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL, "bulk-submission-api", logger)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	publisher := queue.NewRabbitMQPublisher(rabbit)
	defer publisher.Close()

	throttle, err := infraredis.NewUploadThrottle(rdb, cfg.UploadLimitPerWindow, cfg.UploadWindow())
	if err != nil {
		logger.Fatal("upload throttle initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	batchService, err := service.NewBatchService(repository.NewGormBatchRepo(db), publisher, throttle, logger)
	if err != nil {
		logger.Fatal("batch service initialization failed", zap.Error(err))
	}
	batchService.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:               "bulk-submission-engine",
		DisableStartupMessage: true,
		ErrorHandler:          transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, rabbit, metrics.Handler())
	if err := handler.RegisterBatchRoutes(app, batchService); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("bulk-submission-engine api started", zap.Int("port", cfg.APIPort))
		serverErr <- app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("api server stopped with error", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down api")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("api shutdown failed", zap.Error(err))
		}
	}
}
