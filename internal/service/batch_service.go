package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kursadbilgin/bulk-submission-engine/internal/csvcodec"
	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
	"github.com/kursadbilgin/bulk-submission-engine/internal/observability"
	"github.com/kursadbilgin/bulk-submission-engine/internal/queue"
	"github.com/kursadbilgin/bulk-submission-engine/internal/ratelimit"
	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
	"github.com/kursadbilgin/bulk-submission-engine/internal/taxonomy"
)

// BatchView is a batch as returned to callers. The error projections are
// only set for a FailedValidation batch.
type BatchView struct {
	Batch           *domain.Batch
	RowErrorDetails []domain.RowErrorSummary
	ErrorColumns    []domain.ErrorColumn
}

type BatchService struct {
	batches   repository.BatchRepository
	publisher queue.Publisher
	throttle  ratelimit.RateLimiter
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
	newID     func() string
}

func NewBatchService(
	batches repository.BatchRepository,
	publisher queue.Publisher,
	throttle ratelimit.RateLimiter,
	logger *zap.Logger,
) (*BatchService, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if throttle == nil {
		throttle = ratelimit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchService{
		batches:   batches,
		publisher: publisher,
		throttle:  throttle,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

func (s *BatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// AddContentToBatch accepts an upload, stores a Processing batch and hands
// the content to the validation worker. Only structural problems with the
// file are reported here; field errors surface later on the batch.
func (s *BatchService) AddContentToBatch(ctx context.Context, accountID string, content domain.Content) (string, error) {
	logger := observability.WithContextLogger(s.logger, ctx)

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", fmt.Errorf("%w: accountId is required", domain.ErrBadRequest)
	}

	allowed, err := s.throttle.Allow(ctx, accountID)
	if err != nil {
		// The throttle fails open; an unavailable Redis must not stop uploads.
		logger.Warn("upload throttle unavailable", zap.String("accountId", accountID), zap.Error(err))
	} else if !allowed {
		s.metrics.IncUploadThrottled()
		return "", fmt.Errorf("%w: upload limit reached for account %s", domain.ErrTooManyRequests, accountID)
	}

	if _, err := csvcodec.Decode(content); err != nil {
		return "", err
	}

	batch := domain.NewBatch(s.newID(), accountID, s.now())
	if err := s.batches.Save(ctx, batch); err != nil {
		return "", s.internal(ctx, "addContentToBatch", err, zap.String("accountId", accountID))
	}
	s.metrics.IncBatchTransition(string(domain.BatchStatusProcessing))

	msg := queue.BatchMessage{
		BatchID:       batch.ID,
		AccountID:     accountID,
		CorrelationID: correlationID(ctx),
		Content:       &content,
	}
	if err := s.publisher.Publish(ctx, queue.ContentQueue, msg); err != nil {
		return "", s.internal(ctx, "addContentToBatch", fmt.Errorf("failed to publish content: %w", err),
			zap.String("batchId", batch.ID),
			zap.String("accountId", accountID),
		)
	}

	logger.Info("batch accepted", zap.String("batchId", batch.ID), zap.String("accountId", accountID))
	return batch.ID, nil
}

// GetBatch reads a batch. A FailedValidation batch comes with its row and
// column error projections.
func (s *BatchService) GetBatch(ctx context.Context, id, accountID string) (*BatchView, error) {
	batch, err := s.batches.Get(ctx, id, accountID)
	if err != nil {
		return nil, s.classify(ctx, "getBatch", err, zap.String("batchId", id))
	}

	view := &BatchView{Batch: batch}
	failed, ok := batch.State.(domain.FailedValidation)
	if !ok {
		return view, nil
	}

	view.RowErrorDetails = taxonomy.RowErrorDetails(failed.RowErrors)

	columns, err := s.batches.GetColumns(ctx, id, accountID)
	if err != nil {
		return nil, s.internal(ctx, "getBatch", err, zap.String("batchId", id))
	}
	if len(columns) == 0 {
		// Columns are written by the worker before the state; recompute
		// if they are missing anyway.
		columns, _ = taxonomy.ColumnErrors(failed.RowErrors)
	}
	view.ErrorColumns = columns

	return view, nil
}

// FinalizeBatch moves a PassedValidation batch to Submitting and queues it
// for submission. A failed publish is left to the reconciler.
func (s *BatchService) FinalizeBatch(ctx context.Context, id, accountID string) (*domain.Batch, error) {
	logger := observability.WithContextLogger(s.logger, ctx)

	batch, err := s.batches.Get(ctx, id, accountID)
	if err != nil {
		return nil, s.classify(ctx, "finalizeBatch", err, zap.String("batchId", id))
	}

	if err := batch.Finalize(s.now()); err != nil {
		return nil, err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, s.internal(ctx, "finalizeBatch", err, zap.String("batchId", id))
	}
	s.metrics.IncBatchTransition(string(domain.BatchStatusSubmitting))

	msg := queue.BatchMessage{
		BatchID:       batch.ID,
		AccountID:     batch.AccountID,
		CorrelationID: correlationID(ctx),
	}
	if err := s.publisher.Publish(ctx, queue.SubmitQueue, msg); err != nil {
		logger.Warn("failed to publish submit message, leaving batch for reconciler",
			zap.String("batchId", batch.ID),
			zap.Error(err),
		)
	}

	return batch, nil
}

// DownloadBatch renders the submitted rows of a Submitted batch as a
// Snappy compressed, base64 encoded CSV.
func (s *BatchService) DownloadBatch(ctx context.Context, id, accountID string) (*domain.Content, error) {
	rows, err := s.batches.DownloadFlattened(ctx, id, accountID)
	if err != nil {
		return nil, s.classify(ctx, "downloadBatch", err, zap.String("batchId", id))
	}

	value, err := csvcodec.EncodeDownload(rows)
	if err != nil {
		return nil, s.internal(ctx, "downloadBatch", err, zap.String("batchId", id))
	}

	return &domain.Content{
		Type:        domain.ContentTypeCSV,
		Compression: domain.CompressionSnappy,
		Value:       value,
	}, nil
}

func (s *BatchService) GetSubmissions(ctx context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error) {
	page, err := s.batches.QueryPaged(ctx, q)
	if err != nil {
		return nil, s.classify(ctx, "getSubmissions", err, zap.String("batchId", q.BatchID))
	}
	return page, nil
}

// classify forwards classified errors and hides everything else behind
// ErrInternal.
func (s *BatchService) classify(ctx context.Context, op string, err error, fields ...zap.Field) error {
	if domain.IsClassified(err) {
		return err
	}
	return s.internal(ctx, op, err, fields...)
}

func (s *BatchService) internal(ctx context.Context, op string, err error, fields ...zap.Field) error {
	if errors.Is(err, domain.ErrInternal) {
		return err
	}
	logger := observability.WithContextLogger(s.logger, ctx)
	logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return fmt.Errorf("%w: %s failed", domain.ErrInternal, op)
}

func correlationID(ctx context.Context) string {
	id, _ := observability.CorrelationIDFromContext(ctx)
	return id
}
