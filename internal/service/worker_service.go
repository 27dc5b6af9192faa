package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kursadbilgin/bulk-submission-engine/internal/csvcodec"
	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
	"github.com/kursadbilgin/bulk-submission-engine/internal/observability"
	"github.com/kursadbilgin/bulk-submission-engine/internal/queue"
	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
	"github.com/kursadbilgin/bulk-submission-engine/internal/taxonomy"
	"github.com/kursadbilgin/bulk-submission-engine/internal/validation"
)

const minWorkerConcurrency = 1

// Finalizer finalizes a validated batch.
type Finalizer interface {
	FinalizeBatch(ctx context.Context, id, accountID string) (*domain.Batch, error)
}

// ValidationWorker drives batches through the asynchronous part of their
// lifecycle: validation of uploaded content, finalize requests and row
// submission.
type ValidationWorker struct {
	batches     repository.BatchRepository
	finalizer   Finalizer
	consumer    queue.Consumer
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

func NewValidationWorker(
	batches repository.BatchRepository,
	finalizer Finalizer,
	consumer queue.Consumer,
	concurrency int,
	logger *zap.Logger,
) (*ValidationWorker, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if finalizer == nil {
		return nil, fmt.Errorf("finalizer is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ValidationWorker{
		batches:     batches,
		finalizer:   finalizer,
		consumer:    consumer,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (w *ValidationWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start runs concurrency consumers on every work queue until ctx is done.
func (w *ValidationWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if w.consumer == nil {
		return fmt.Errorf("consumer is required")
	}

	handlers := map[string]queue.MessageHandler{
		queue.ContentQueue:  w.handleContent,
		queue.FinalizeQueue: w.handleFinalize,
		queue.SubmitQueue:   w.handleSubmit,
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for _, queueName := range queue.WorkQueueNames() {
		queueName := queueName
		handler := w.instrument(queueName, handlers[queueName])
		for i := 0; i < w.concurrency; i++ {
			workerID := i + 1

			g.Go(func() error {
				w.logger.Info("worker started",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
				)

				err := w.consumer.Consume(groupCtx, queueName, handler)
				if err != nil {
					w.logger.Error("worker stopped with error",
						zap.Int("workerId", workerID),
						zap.String("queue", queueName),
						zap.Error(err),
					)
					return err
				}

				w.logger.Info("worker stopped",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
				)
				return nil
			})
		}
	}

	return g.Wait()
}

func (w *ValidationWorker) instrument(queueName string, handler queue.MessageHandler) queue.MessageHandler {
	return func(ctx context.Context, msg queue.BatchMessage) error {
		w.metrics.IncWorkerInFlight(queueName)
		defer w.metrics.DecWorkerInFlight(queueName)

		if msg.CorrelationID != "" {
			ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
		}
		ctx = observability.WithBatchID(ctx, msg.BatchID)
		return handler(ctx, msg)
	}
}

// load fetches the batch of msg and reports whether it is in the expected
// status. Messages for missing or already advanced batches are skipped.
func (w *ValidationWorker) load(ctx context.Context, msg queue.BatchMessage, expected domain.BatchStatus) (*domain.Batch, bool, error) {
	logger := observability.WithContextLogger(w.logger, ctx)

	batch, err := w.batches.Get(ctx, msg.BatchID, msg.AccountID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("batch not found, skipping message")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load batch: %w", err)
	}

	if batch.Status() != expected {
		logger.Info("batch not in expected status, skipping message",
			zap.String("status", batch.Status().String()),
			zap.String("expected", expected.String()),
		)
		return nil, false, nil
	}
	return batch, true, nil
}

func (w *ValidationWorker) handleContent(ctx context.Context, msg queue.BatchMessage) error {
	logger := observability.WithContextLogger(w.logger, ctx)
	start := w.now()

	batch, ok, err := w.load(ctx, msg, domain.BatchStatusProcessing)
	if err != nil || !ok {
		return err
	}
	if msg.Content == nil {
		return fmt.Errorf("%w: content message without content", queue.ErrRejected)
	}

	records, err := csvcodec.Decode(*msg.Content)
	if err != nil {
		return fmt.Errorf("%w: %v", queue.ErrRejected, err)
	}

	rows := make([]domain.Row, 0, len(records))
	var (
		rowErrors   []domain.RowError
		submissions []domain.Submission
	)
	for _, record := range records {
		row := domain.Row{
			ID:        repository.RowID(batch.ID, record.RowNumber),
			BatchID:   batch.ID,
			AccountID: batch.AccountID,
			RowNumber: record.RowNumber,
		}

		submission, codes := validation.ValidateRow(csvcodec.Unflatten(record))
		if len(codes) > 0 {
			row.Errors = codes
			rowErrors = append(rowErrors, domain.NewRowError(record.RowNumber, codes))
		} else {
			submission.ID = row.ID
			row.Valid = true
			row.Content = &submission
			submissions = append(submissions, submission)
		}
		rows = append(rows, row)
	}

	if err := w.batches.SaveRows(ctx, rows); err != nil {
		return fmt.Errorf("failed to save rows: %w", err)
	}

	if len(rowErrors) > 0 {
		columns, skipped := taxonomy.ColumnErrors(rowErrors)
		for _, sk := range skipped {
			logger.Warn("error code has no column, leaving it out of the column summary",
				zap.Int("rowNumber", sk.RowNumber),
				zap.Int("code", sk.Code),
			)
		}
		if err := w.batches.SaveColumns(ctx, batch.ID, batch.AccountID, columns); err != nil {
			return fmt.Errorf("failed to save error columns: %w", err)
		}
	}

	if err := batch.CompleteValidation(w.now(), rowErrors, submissions); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrRejected, err)
	}
	if err := w.batches.Save(ctx, batch); err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	w.metrics.AddRowsValidated(len(submissions), len(rowErrors))
	w.metrics.ObserveValidationDuration(w.now().Sub(start))
	w.metrics.IncBatchTransition(batch.Status().String())

	logger.Info("batch validated",
		zap.String("status", batch.Status().String()),
		zap.Int("rows", len(rows)),
		zap.Int("invalidRows", len(rowErrors)),
	)
	return nil
}

func (w *ValidationWorker) handleFinalize(ctx context.Context, msg queue.BatchMessage) error {
	_, err := w.finalizer.FinalizeBatch(ctx, msg.BatchID, msg.AccountID)
	if errors.Is(err, domain.ErrBadRequest) || errors.Is(err, domain.ErrNotFound) {
		observability.WithContextLogger(w.logger, ctx).Info("finalize request skipped",
			zap.Error(err),
		)
		return nil
	}
	return err
}

// handleSubmit assigns a waste movement id to every valid row, marks the
// rows submitted and moves the batch to Submitted. Ids already assigned by
// an earlier partial run are kept.
func (w *ValidationWorker) handleSubmit(ctx context.Context, msg queue.BatchMessage) error {
	logger := observability.WithContextLogger(w.logger, ctx)

	batch, ok, err := w.load(ctx, msg, domain.BatchStatusSubmitting)
	if err != nil || !ok {
		return err
	}

	rows, err := w.batches.GetRows(ctx, batch.ID, batch.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load rows: %w", err)
	}

	now := w.now()
	pending := make([]domain.Row, 0, len(rows))
	summaries := make([]domain.SubmissionSummary, 0, len(rows))
	for _, row := range rows {
		if !row.Valid || row.Content == nil {
			continue
		}
		if !row.Submitted {
			row.Content.ID = row.ID
			if row.Content.WasteMovementID == "" {
				row.Content.WasteMovementID = domain.WasteMovementID(row.ID, now)
			}
			row.Submitted = true
			pending = append(pending, row)
		}
		summaries = append(summaries, row.Content.Summary())
	}

	if err := w.batches.SaveRows(ctx, pending); err != nil {
		return fmt.Errorf("failed to save submitted rows: %w", err)
	}

	if err := batch.MarkSubmitted(now, summaries); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrRejected, err)
	}
	if err := w.batches.Save(ctx, batch); err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	w.metrics.IncBatchTransition(batch.Status().String())

	logger.Info("batch submitted",
		zap.Int("submissions", len(summaries)),
	)
	return nil
}
