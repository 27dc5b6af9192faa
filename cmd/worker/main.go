package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kursadbilgin/bulk-submission-engine/internal/config"
	"github.com/kursadbilgin/bulk-submission-engine/internal/infra/postgresql"
	"github.com/kursadbilgin/bulk-submission-engine/internal/infra/postgresql/migrations"
	"github.com/kursadbilgin/bulk-submission-engine/internal/observability"
	"github.com/kursadbilgin/bulk-submission-engine/internal/queue"
	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
	"github.com/kursadbilgin/bulk-submission-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger("bulk-submission-worker", cfg.LogLevel)
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

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL, "bulk-submission-worker", logger)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	publisher := queue.NewRabbitMQPublisher(rabbit)
	defer publisher.Close()

	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)

	metrics := observability.NewMetrics()
	batches := repository.NewGormBatchRepo(db)

	// The worker finalizes through the same service as the api; the upload
	// throttle is not used on this path.
	batchService, err := service.NewBatchService(batches, publisher, nil, logger)
	if err != nil {
		logger.Fatal("batch service initialization failed", zap.Error(err))
	}
	batchService.SetMetrics(metrics)

	worker, err := service.NewValidationWorker(batches, batchService, consumer, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("validation worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	reconciler, err := service.NewReconciler(
		batches,
		publisher,
		cfg.ReconcileInterval(),
		cfg.ReconcileGrace(),
		cfg.ReconcileLimit,
		logger,
	)
	if err != nil {
		logger.Fatal("reconciler initialization failed", zap.Error(err))
	}

	logger.Info("bulk-submission-engine worker started", zap.Int("concurrency", cfg.WorkerConcurrency))

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Start(groupCtx) })
	g.Go(func() error { return reconciler.Start(groupCtx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped with error", zap.Error(err))
	}
	logger.Info("bulk-submission-engine worker stopped")
}
