package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kursadbilgin/bulk-submission-engine/internal/csvcodec"
	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
	"github.com/kursadbilgin/bulk-submission-engine/internal/queue"
	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
)

func newTestWorker(t *testing.T, repo *fakeBatchRepo, finalizer *fakeFinalizer, consumer *fakeConsumer) *ValidationWorker {
	t.Helper()

	if finalizer == nil {
		finalizer = &fakeFinalizer{}
	}
	worker, err := NewValidationWorker(repo, finalizer, consumer, 2, zap.NewNop())
	if err != nil {
		t.Fatalf("NewValidationWorker() error = %v", err)
	}
	worker.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return worker
}

func processingBatch(id string) *domain.Batch {
	return domain.NewBatch(id, "acc-1", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
}

func TestValidationWorkerHandleContentPassed(t *testing.T) {
	t.Parallel()

	batch := processingBatch("b1")
	var (
		savedRows   []domain.Row
		savedState  domain.State
		columnsSave bool
	)
	repo := &fakeBatchRepo{
		getFn: func(ctx context.Context, id, accountID string) (*domain.Batch, error) {
			return batch, nil
		},
		saveRowsFn: func(ctx context.Context, rows []domain.Row) error {
			savedRows = rows
			return nil
		},
		saveColumnsFn: func(ctx context.Context, batchID, accountID string, columns []domain.ErrorColumn) error {
			columnsSave = true
			return nil
		},
		saveFn: func(ctx context.Context, b *domain.Batch) error {
			savedState = b.State
			return nil
		},
	}

	worker := newTestWorker(t, repo, nil, nil)
	content := csvContent(t, csvcodec.Flatten(validSubmission()))

	err := worker.handleContent(context.Background(), queue.BatchMessage{BatchID: "b1", AccountID: "acc-1", Content: &content})
	if err != nil {
		t.Fatalf("handleContent() error = %v", err)
	}

	if len(savedRows) != 1 {
		t.Fatalf("saved rows = %d, want 1", len(savedRows))
	}
	row := savedRows[0]
	if row.ID != repository.RowID("b1", 3) || row.RowNumber != 3 || !row.Valid {
		t.Fatalf("row = %+v", row)
	}
	if row.Content == nil || row.Content.ID != row.ID {
		t.Fatal("valid row should carry its submission keyed by the row id")
	}

	passed, ok := savedState.(domain.PassedValidation)
	if !ok {
		t.Fatalf("state = %T, want PassedValidation", savedState)
	}
	if !passed.HasEstimates || len(passed.Submissions) != 1 {
		t.Fatalf("passed state = %+v", passed)
	}
	if columnsSave {
		t.Fatal("columns must not be written for a passing batch")
	}
}

func TestValidationWorkerHandleContentFailed(t *testing.T) {
	t.Parallel()

	batch := processingBatch("b1")
	invalid := csvcodec.Flatten(validSubmission())
	invalid["Producer postcode"] = ""

	var (
		savedRows []domain.Row
		columns   []domain.ErrorColumn
		order     []string
	)
	repo := &fakeBatchRepo{
		getFn: func(ctx context.Context, id, accountID string) (*domain.Batch, error) {
			return batch, nil
		},
		saveRowsFn: func(ctx context.Context, rows []domain.Row) error {
			order = append(order, "rows")
			savedRows = rows
			return nil
		},
		saveColumnsFn: func(ctx context.Context, batchID, accountID string, c []domain.ErrorColumn) error {
			order = append(order, "columns")
			columns = c
			return nil
		},
		saveFn: func(ctx context.Context, b *domain.Batch) error {
			order = append(order, "state")
			return nil
		},
	}

	worker := newTestWorker(t, repo, nil, nil)
	content := csvContent(t, csvcodec.Flatten(validSubmission()), invalid)

	err := worker.handleContent(context.Background(), queue.BatchMessage{BatchID: "b1", AccountID: "acc-1", Content: &content})
	if err != nil {
		t.Fatalf("handleContent() error = %v", err)
	}

	failed, ok := batch.State.(domain.FailedValidation)
	if !ok {
		t.Fatalf("state = %T, want FailedValidation", batch.State)
	}
	if len(failed.RowErrors) != 1 || failed.RowErrors[0].RowNumber != 4 {
		t.Fatalf("row errors = %+v, want one error on row 4", failed.RowErrors)
	}
	if len(savedRows) != 2 || savedRows[1].Valid || len(savedRows[1].Errors) != 1 {
		t.Fatalf("saved rows = %+v", savedRows)
	}
	if len(columns) != 1 || columns[0].ColumnName != "Producer postcode" {
		t.Fatalf("columns = %+v", columns)
	}
	if want := []string{"rows", "columns", "state"}; len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Fatalf("write order = %v, want %v", order, want)
	}
}

func TestValidationWorkerHandleContentSkips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		getFn func(ctx context.Context, id, accountID string) (*domain.Batch, error)
	}{
		{
			name: "batch missing",
			getFn: func(ctx context.Context, id, accountID string) (*domain.Batch, error) {
				return nil, domain.ErrNotFound
			},
		},
		{
			name: "already validated",
			getFn: func(ctx context.Context, id, accountID string) (*domain.Batch, error) {
				return passedBatch(id), nil
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeBatchRepo{
				getFn: tt.getFn,
				saveRowsFn: func(ctx context.Context, rows []domain.Row) error {
					t.Fatal("SaveRows must not be called")
					return nil
				},
			}

			worker := newTestWorker(t, repo, nil, nil)
			content := csvContent(t, csvcodec.Flatten(validSubmission()))
			err := worker.handleContent(context.Background(), queue.BatchMessage{BatchID: "b1", AccountID: "acc-1", Content: &content})
			if err != nil {
				t.Fatalf("handleContent() error = %v, want nil", err)
			}
		})
	}
}

func TestValidationWorkerHandleContentErrors(t *testing.T) {
	t.Parallel()

	good := csvContent(t, csvcodec.Flatten(validSubmission()))
	bad := domain.Content{Type: domain.ContentTypeCSV, Value: "not base64!"}

	tests := []struct {
		name         string
		content      *domain.Content
		saveRowsErr  error
		wantRejected bool
	}{
		{name: "missing content", content: nil, wantRejected: true},
		{name: "malformed content", content: &bad, wantRejected: true},
		{name: "storage failure", content: &good, saveRowsErr: errors.New("deadlock detected")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeBatchRepo{
				getFn: func(ctx context.Context, id, accountID string) (*domain.Batch, error) {
					return processingBatch(id), nil
				},
				saveRowsFn: func(ctx context.Context, rows []domain.Row) error {
					return tt.saveRowsErr
				},
			}

			worker := newTestWorker(t, repo, nil, nil)
			err := worker.handleContent(context.Background(), queue.BatchMessage{BatchID: "b1", AccountID: "acc-1", Content: tt.content})
			if err == nil {
				t.Fatal("handleContent() expected error")
			}
			if errors.Is(err, queue.ErrRejected) != tt.wantRejected {
				t.Fatalf("handleContent() error = %v, rejected want %v", err, tt.wantRejected)
			}
		})
	}
}

func TestValidationWorkerHandleFinalize(t *testing.T) {
	t.Parallel()

	transient := errors.New("internal")

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "finalized", err: nil},
		{name: "wrong status acked", err: errors.Join(domain.ErrBadRequest, errors.New("expected PassedValidation"))},
		{name: "missing batch acked", err: domain.ErrNotFound},
		{name: "transient failure retried", err: transient, wantErr: transient},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			finalizer := &fakeFinalizer{
				finalizeFn: func(ctx context.Context, id, accountID string) (*domain.Batch, error) {
					called = true
					if id != "b1" || accountID != "acc-1" {
						t.Fatalf("FinalizeBatch(%s, %s)", id, accountID)
					}
					return nil, tt.err
				},
			}

			worker := newTestWorker(t, &fakeBatchRepo{}, finalizer, nil)
			err := worker.handleFinalize(context.Background(), queue.BatchMessage{BatchID: "b1", AccountID: "acc-1"})
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Fatalf("handleFinalize() error = %v, want %v", err, tt.wantErr)
			}
			if !called {
				t.Fatal("finalizer was not called")
			}
		})
	}
}

func TestValidationWorkerHandleSubmit(t *testing.T) {
	t.Parallel()

	batch := passedBatch("b1")
	if err := batch.Finalize(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	transactionID := batch.State.(domain.Submitting).TransactionID

	fresh := validSubmission()
	already := validSubmission()
	already.WasteMovementID = "WM2603_AAAA0000"
	rows := []domain.Row{
		{ID: repository.RowID("b1", 3), BatchID: "b1", AccountID: "acc-1", RowNumber: 3, Valid: true, Content: &fresh},
		{ID: repository.RowID("b1", 4), BatchID: "b1", AccountID: "acc-1", RowNumber: 4, Valid: true, Submitted: true, Content: &already},
	}

	var saved []domain.Row
	repo := &fakeBatchRepo{
		getFn: func(ctx context.Context, id, accountID string) (*domain.Batch, error) {
			return batch, nil
		},
		getRowsFn: func(ctx context.Context, batchID, accountID string) ([]domain.Row, error) {
			return rows, nil
		},
		saveRowsFn: func(ctx context.Context, r []domain.Row) error {
			saved = r
			return nil
		},
	}

	worker := newTestWorker(t, repo, nil, nil)
	if err := worker.handleSubmit(context.Background(), queue.BatchMessage{BatchID: "b1", AccountID: "acc-1"}); err != nil {
		t.Fatalf("handleSubmit() error = %v", err)
	}

	if len(saved) != 1 || saved[0].RowNumber != 3 || !saved[0].Submitted {
		t.Fatalf("saved rows = %+v, want only row 3 marked submitted", saved)
	}
	wantID := domain.WasteMovementID(rows[0].ID, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	if saved[0].Content.WasteMovementID != wantID {
		t.Fatalf("waste movement id = %s, want %s", saved[0].Content.WasteMovementID, wantID)
	}

	submitted, ok := batch.State.(domain.Submitted)
	if !ok {
		t.Fatalf("state = %T, want Submitted", batch.State)
	}
	if submitted.TransactionID != transactionID {
		t.Fatalf("transaction id = %s, want %s", submitted.TransactionID, transactionID)
	}
	if len(submitted.Submissions) != 2 || submitted.Submissions[1].WasteMovementID != "WM2603_AAAA0000" {
		t.Fatalf("summaries = %+v", submitted.Submissions)
	}
}

func TestValidationWorkerHandleSubmitSkipsSubmittedBatch(t *testing.T) {
	t.Parallel()

	repo := &fakeBatchRepo{
		getFn: func(ctx context.Context, id, accountID string) (*domain.Batch, error) {
			return &domain.Batch{ID: id, AccountID: accountID, State: domain.Submitted{TransactionID: "2603_3F2A9C1E"}}, nil
		},
		getRowsFn: func(ctx context.Context, batchID, accountID string) ([]domain.Row, error) {
			t.Fatal("GetRows must not be called")
			return nil, nil
		},
	}

	worker := newTestWorker(t, repo, nil, nil)
	if err := worker.handleSubmit(context.Background(), queue.BatchMessage{BatchID: "b1", AccountID: "acc-1"}); err != nil {
		t.Fatalf("handleSubmit() error = %v", err)
	}
}

func TestValidationWorkerStartConsumesEveryQueue(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		queues = map[string]int{}
	)
	consumer := &fakeConsumer{
		consumeFn: func(ctx context.Context, queueName string, handler queue.MessageHandler) error {
			mu.Lock()
			queues[queueName]++
			mu.Unlock()
			return nil
		},
	}

	worker := newTestWorker(t, &fakeBatchRepo{}, nil, consumer)
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	names := make([]string, 0, len(queues))
	for name, n := range queues {
		if n != 2 {
			t.Fatalf("queue %s consumers = %d, want 2", name, n)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) != 3 || names[0] != queue.ContentQueue || names[1] != queue.FinalizeQueue || names[2] != queue.SubmitQueue {
		t.Fatalf("queues = %v", names)
	}
}

func TestValidationWorkerStartPropagatesConsumerError(t *testing.T) {
	t.Parallel()

	consumeErr := errors.New("consume failed")
	consumer := &fakeConsumer{
		consumeFn: func(ctx context.Context, queueName string, handler queue.MessageHandler) error {
			return consumeErr
		},
	}

	worker := newTestWorker(t, &fakeBatchRepo{}, nil, consumer)
	err := worker.Start(context.Background())
	if !errors.Is(err, consumeErr) {
		t.Fatalf("Start() error = %v, want %v", err, consumeErr)
	}
}
