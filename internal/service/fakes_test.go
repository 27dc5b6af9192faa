package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kursadbilgin/bulk-submission-engine/internal/csvcodec"
	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
	"github.com/kursadbilgin/bulk-submission-engine/internal/queue"
	"github.com/kursadbilgin/bulk-submission-engine/internal/ratelimit"
	"github.com/kursadbilgin/bulk-submission-engine/internal/repository"
)

var _ repository.BatchRepository = (*fakeBatchRepo)(nil)

type fakeBatchRepo struct {
	saveFn              func(ctx context.Context, b *domain.Batch) error
	getFn               func(ctx context.Context, id, accountID string) (*domain.Batch, error)
	listStaleFn         func(ctx context.Context, status domain.BatchStatus, olderThan time.Time, limit int) ([]domain.Batch, error)
	saveRowsFn          func(ctx context.Context, rows []domain.Row) error
	getRowsFn           func(ctx context.Context, batchID, accountID string) ([]domain.Row, error)
	getRowFn            func(ctx context.Context, batchID, accountID, rowID string) (*domain.Row, error)
	saveColumnsFn       func(ctx context.Context, batchID, accountID string, columns []domain.ErrorColumn) error
	getColumnsFn        func(ctx context.Context, batchID, accountID string) ([]domain.ErrorColumn, error)
	getColumnFn         func(ctx context.Context, batchID, accountID, columnID string) (*domain.ErrorColumn, error)
	downloadFlattenedFn func(ctx context.Context, id, accountID string) ([]csvcodec.FlatRow, error)
	queryPagedFn        func(ctx context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error)
}

func (f *fakeBatchRepo) Save(ctx context.Context, b *domain.Batch) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, b)
	}
	return nil
}

func (f *fakeBatchRepo) Get(ctx context.Context, id, accountID string) (*domain.Batch, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id, accountID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBatchRepo) ListStale(ctx context.Context, status domain.BatchStatus, olderThan time.Time, limit int) ([]domain.Batch, error) {
	if f.listStaleFn != nil {
		return f.listStaleFn(ctx, status, olderThan, limit)
	}
	return nil, nil
}

func (f *fakeBatchRepo) SaveRows(ctx context.Context, rows []domain.Row) error {
	if f.saveRowsFn != nil {
		return f.saveRowsFn(ctx, rows)
	}
	return nil
}

func (f *fakeBatchRepo) GetRows(ctx context.Context, batchID, accountID string) ([]domain.Row, error) {
	if f.getRowsFn != nil {
		return f.getRowsFn(ctx, batchID, accountID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBatchRepo) GetRow(ctx context.Context, batchID, accountID, rowID string) (*domain.Row, error) {
	if f.getRowFn != nil {
		return f.getRowFn(ctx, batchID, accountID, rowID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBatchRepo) SaveColumns(ctx context.Context, batchID, accountID string, columns []domain.ErrorColumn) error {
	if f.saveColumnsFn != nil {
		return f.saveColumnsFn(ctx, batchID, accountID, columns)
	}
	return nil
}

func (f *fakeBatchRepo) GetColumns(ctx context.Context, batchID, accountID string) ([]domain.ErrorColumn, error) {
	if f.getColumnsFn != nil {
		return f.getColumnsFn(ctx, batchID, accountID)
	}
	return nil, nil
}

func (f *fakeBatchRepo) GetColumn(ctx context.Context, batchID, accountID, columnID string) (*domain.ErrorColumn, error) {
	if f.getColumnFn != nil {
		return f.getColumnFn(ctx, batchID, accountID, columnID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBatchRepo) DownloadFlattened(ctx context.Context, id, accountID string) ([]csvcodec.FlatRow, error) {
	if f.downloadFlattenedFn != nil {
		return f.downloadFlattenedFn(ctx, id, accountID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBatchRepo) QueryPaged(ctx context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error) {
	if f.queryPagedFn != nil {
		return f.queryPagedFn(ctx, q)
	}
	return &domain.SubmissionPage{}, nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.BatchMessage) error
	closeFn   func() error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.BatchMessage) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	return nil
}


var _ ratelimit.RateLimiter = (*fakeRateLimiter)(nil)

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
}

func (f *fakeRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, key)
	}
	return true, nil
}

type fakeFinalizer struct {
	finalizeFn func(ctx context.Context, id, accountID string) (*domain.Batch, error)
}

func (f *fakeFinalizer) FinalizeBatch(ctx context.Context, id, accountID string) (*domain.Batch, error) {
	if f.finalizeFn != nil {
		return f.finalizeFn(ctx, id, accountID)
	}
	return nil, nil
}

func validSubmission() domain.Submission {
	return domain.Submission{
		Reference: "REF-001",
		Producer: domain.Producer{
			OrganisationName: "Acme Ltd",
			Address:          domain.Address{AddressLine1: "1 High St", TownCity: "Leeds", Postcode: "LS1 1AA", Country: "England"},
			Contact:          domain.Contact{Name: "Jo Bloggs", Email: "jo@example.com", Phone: "01234567890"},
		},
		WasteCollection: domain.WasteCollection{
			Address:                domain.Address{AddressLine1: "2 Low St", TownCity: "York", Country: "England"},
			LocalAuthority:         "York Council",
			WasteSource:            "Household",
			ExpectedCollectionDate: domain.Date{Day: 5, Month: 4, Year: 2026},
		},
		Receiver: domain.Receiver{
			AuthorisationType:         "Permit",
			EnvironmentalPermitNumber: "EPR/AB1234",
			OrganisationName:          "Receiver Co",
			Address:                   domain.Address{AddressLine1: "3 Mill Rd", TownCity: "Hull", Postcode: "HU1 1AA", Country: "England"},
			Contact:                   domain.Contact{Name: "Sam", Email: "sam@example.com", Phone: "07700900000"},
		},
		Carrier: domain.Carrier{
			OrganisationName: "Carrier Co",
			Address:          domain.Address{AddressLine1: "4 Dock Rd", TownCity: "Goole", Country: "England"},
			Contact:          domain.Contact{Name: "Alex", Email: "alex@example.com", Phone: "07700900001"},
			ModeOfTransport:  "Road",
		},
		WasteTransportation: domain.WasteTransportation{NumberAndTypeOfContainers: "2 skips"},
		WasteTypes: []domain.WasteType{{
			EwcCode:      "200301",
			Description:  "Mixed municipal",
			PhysicalForm: domain.PhysicalFormMixed,
			Quantity:     decimal.RequireFromString("12.5"),
			QuantityUnit: domain.QuantityUnitTonne,
			QuantityType: domain.QuantityTypeEstimate,
		}},
	}
}

// csvContent renders rows as an uncompressed upload.
func csvContent(t *testing.T, rows ...csvcodec.FlatRow) domain.Content {
	t.Helper()

	data, err := csvcodec.Encode(rows)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return domain.Content{
		Type:        domain.ContentTypeCSV,
		Compression: domain.CompressionNone,
		Value:       base64.StdEncoding.EncodeToString(data),
	}
}

func passedBatch(id string) *domain.Batch {
	s := validSubmission()
	s.ID = repository.RowID(id, 3)
	return &domain.Batch{
		ID:        id,
		AccountID: "acc-1",
		State: domain.PassedValidation{
			Timestamp:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			HasEstimates: true,
			Submissions:  []domain.Submission{s},
		},
	}
}
