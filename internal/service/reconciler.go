package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
	"github.com/kursadbilgin/bulk-submission-engine/internal/queue"
	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
)

const (
	defaultReconcileInterval = 30 * time.Second
	defaultReconcileGrace    = 2 * time.Minute
	defaultReconcileLimit    = 100
)

// Reconciler re-publishes submit messages for batches that have been stuck
// in Submitting for longer than the grace period.
type Reconciler struct {
	batches   repository.BatchRepository
	publisher queue.Publisher
	logger    *zap.Logger
	interval  time.Duration
	grace     time.Duration
	limit     int
	now       func() time.Time
}

func NewReconciler(
	batches repository.BatchRepository,
	publisher queue.Publisher,
	interval time.Duration,
	grace time.Duration,
	limit int,
	logger *zap.Logger,
) (*Reconciler, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	if grace <= 0 {
		grace = defaultReconcileGrace
	}
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reconciler{
		batches:   batches,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		grace:     grace,
		limit:     limit,
		now:       time.Now,
	}, nil
}

func (r *Reconciler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := r.scanStale(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("reconciler initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.scanStale(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("reconciler scan failed", zap.Error(err))
			}
		}
	}
}

func (r *Reconciler) scanStale(ctx context.Context) error {
	stale, err := r.batches.ListStale(ctx, domain.BatchStatusSubmitting, r.now().Add(-r.grace), r.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch stale batches: %w", err)
	}

	for i := range stale {
		batch := stale[i]
		msg := queue.BatchMessage{
			BatchID:   batch.ID,
			AccountID: batch.AccountID,
		}

		if err := r.publisher.Publish(ctx, queue.SubmitQueue, msg); err != nil {
			r.logger.Error("failed to re-publish stale batch",
				zap.String("batchId", batch.ID),
				zap.Error(err),
			)
			continue
		}

		r.logger.Info("re-published stale batch",
			zap.String("batchId", batch.ID),
			zap.Time("since", batch.UpdatedAt),
		)
	}

	return nil
}
