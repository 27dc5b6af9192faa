package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
	"github.com/kursadbilgin/bulk-submission-engine/internal/observability"
	"github.com/kursadbilgin/bulk-submission-engine/internal/service"
	"github.com/kursadbilgin/bulk-submission-engine/internal/transport"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type stubBatchService struct {
	addContentFn     func(ctx context.Context, accountID string, content domain.Content) (string, error)
	getBatchFn       func(ctx context.Context, id, accountID string) (*service.BatchView, error)
	finalizeFn       func(ctx context.Context, id, accountID string) (*domain.Batch, error)
	downloadFn       func(ctx context.Context, id, accountID string) (*domain.Content, error)
	getSubmissionsFn func(ctx context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error)
}

func (s *stubBatchService) AddContentToBatch(ctx context.Context, accountID string, content domain.Content) (string, error) {
	if s.addContentFn == nil {
		return "", errors.New("not implemented")
	}
	return s.addContentFn(ctx, accountID, content)
}

func (s *stubBatchService) GetBatch(ctx context.Context, id, accountID string) (*service.BatchView, error) {
	if s.getBatchFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.getBatchFn(ctx, id, accountID)
}

func (s *stubBatchService) FinalizeBatch(ctx context.Context, id, accountID string) (*domain.Batch, error) {
	if s.finalizeFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.finalizeFn(ctx, id, accountID)
}

func (s *stubBatchService) DownloadBatch(ctx context.Context, id, accountID string) (*domain.Content, error) {
	if s.downloadFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.downloadFn(ctx, id, accountID)
}

func (s *stubBatchService) GetSubmissions(ctx context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error) {
	if s.getSubmissionsFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.getSubmissionsFn(ctx, q)
}

func newBatchTestApp(t *testing.T, svc BatchService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterBatchRoutes(app, svc); err != nil {
		t.Fatalf("RegisterBatchRoutes() error = %v", err)
	}

	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Value   json.RawMessage `json:"value"`
	Error   *struct {
		StatusCode int    `json:"statusCode"`
		Name       string `json:"name"`
		Message    string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("json unmarshal error = %v, body=%s", err, string(body))
	}
	return env
}

func TestRegisterBatchRoutes_RequiresService(t *testing.T) {
	t.Parallel()

	if err := RegisterBatchRoutes(fiber.New(), nil); err == nil {
		t.Fatal("RegisterBatchRoutes(nil) error = nil, want error")
	}
}

func TestBatchIntegration_AddContentToBatch(t *testing.T) {
	t.Parallel()

	var (
		gotAccount     string
		gotContent     domain.Content
		gotCorrelation string
	)
	svc := &stubBatchService{
		addContentFn: func(ctx context.Context, accountID string, content domain.Content) (string, error) {
			gotAccount = accountID
			gotContent = content
			gotCorrelation, _ = observability.CorrelationIDFromContext(ctx)
			return "b-1", nil
		},
	}
	app := newBatchTestApp(t, svc)

	body := `{"accountId":" acc-1 ","content":{"type":"text/csv","value":"YWJj"}}`
	resp, raw := performRequest(t, app, http.MethodPost, "/v1/bulk/addContentToBatch", body, fiber.HeaderXRequestID, "corr-1")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(raw))
	}

	env := decodeEnvelope(t, raw)
	if !env.Success || string(env.Value) != `{"batchId":"b-1"}` {
		t.Fatalf("envelope = %+v value=%s", env, string(env.Value))
	}
	if gotAccount != "acc-1" {
		t.Fatalf("accountID = %q, want acc-1", gotAccount)
	}
	if gotContent.Compression != domain.CompressionNone {
		t.Fatalf("compression = %q, want None default", gotContent.Compression)
	}
	if gotContent.Type != "text/csv" || gotContent.Value != "YWJj" {
		t.Fatalf("content = %+v", gotContent)
	}
	if gotCorrelation != "corr-1" {
		t.Fatalf("correlation id = %q, want corr-1", gotCorrelation)
	}
	if resp.Header.Get(fiber.HeaderXRequestID) != "corr-1" {
		t.Fatalf("X-Request-ID = %q, want corr-1", resp.Header.Get(fiber.HeaderXRequestID))
	}
}

func TestBatchIntegration_CorrelationIDGenerated(t *testing.T) {
	t.Parallel()

	var gotCorrelation string
	svc := &stubBatchService{
		addContentFn: func(ctx context.Context, _ string, _ domain.Content) (string, error) {
			gotCorrelation, _ = observability.CorrelationIDFromContext(ctx)
			return "b-1", nil
		},
	}
	app := newBatchTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPost, "/v1/bulk/addContentToBatch",
		`{"accountId":"acc-1","content":{"type":"text/csv","compression":"Snappy","value":"YWJj"}}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotCorrelation == "" {
		t.Fatal("correlation id was not generated")
	}
	if resp.Header.Get(fiber.HeaderXRequestID) != gotCorrelation {
		t.Fatalf("X-Request-ID = %q, want %q", resp.Header.Get(fiber.HeaderXRequestID), gotCorrelation)
	}
}

func TestBatchIntegration_RequestValidation(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{}
	app := newBatchTestApp(t, svc)

	tests := []struct {
		name        string
		path        string
		body        string
		wantMessage string
	}{
		{
			name:        "malformed json",
			path:        "/v1/bulk/addContentToBatch",
			body:        `{"accountId":`,
			wantMessage: "invalid request body",
		},
		{
			name:        "missing content",
			path:        "/v1/bulk/addContentToBatch",
			body:        `{"accountId":"acc-1"}`,
			wantMessage: "content is required",
		},
		{
			name:        "unknown compression",
			path:        "/v1/bulk/addContentToBatch",
			body:        `{"accountId":"acc-1","content":{"type":"text/csv","compression":"Gzip","value":"YWJj"}}`,
			wantMessage: "content.compression must be one of None Snappy",
		},
		{
			name:        "getBatch without id",
			path:        "/v1/bulk/getBatch",
			body:        `{"accountId":"acc-1"}`,
			wantMessage: "id is required",
		},
		{
			name:        "finalizeBatch without account",
			path:        "/v1/bulk/finalizeBatch",
			body:        `{"id":"b-1"}`,
			wantMessage: "accountId is required",
		},
		{
			name:        "getSubmissions with bad month",
			path:        "/v1/bulk/getSubmissions",
			body:        `{"batchId":"b-1","accountId":"acc-1","collectionDate":{"day":1,"month":13,"year":2026}}`,
			wantMessage: "collectionDate.month must be less than or equal to 12",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, raw := performRequest(t, app, http.MethodPost, tt.path, tt.body)
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body=%s", resp.StatusCode, string(raw))
			}

			env := decodeEnvelope(t, raw)
			if env.Success || env.Error == nil {
				t.Fatalf("envelope = %+v, want error", env)
			}
			if env.Error.Name != transport.NameBadRequest {
				t.Fatalf("error name = %q, want %q", env.Error.Name, transport.NameBadRequest)
			}
			if !strings.Contains(env.Error.Message, tt.wantMessage) {
				t.Fatalf("message = %q, want it to contain %q", env.Error.Message, tt.wantMessage)
			}
		})
	}
}

func TestBatchIntegration_GetBatch(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		getBatchFn: func(_ context.Context, id, accountID string) (*service.BatchView, error) {
			if id != "b-1" || accountID != "acc-1" {
				return nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, id)
			}
			rowErrors := []domain.RowError{domain.NewRowError(3, []domain.ErrorCode{domain.Code(2000)})}
			return &service.BatchView{
				Batch: &domain.Batch{
					ID:        id,
					AccountID: accountID,
					State:     domain.FailedValidation{Timestamp: testNow, RowErrors: rowErrors},
				},
				RowErrorDetails: []domain.RowErrorSummary{{RowNumber: 3, ErrorAmount: 1, ErrorDetails: []string{"message"}}},
				ErrorColumns:    []domain.ErrorColumn{{ID: "c-1", ColumnName: "Producer organisation name", ErrorAmount: 1}},
			}, nil
		},
	}
	app := newBatchTestApp(t, svc)

	resp, raw := performRequest(t, app, http.MethodPost, "/v1/bulk/getBatch", `{"id":"b-1","accountId":"acc-1"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(raw))
	}

	var value struct {
		ID        string `json:"id"`
		AccountID string `json:"accountId"`
		State     struct {
			Status string `json:"status"`
		} `json:"state"`
		RowErrorDetails []domain.RowErrorSummary `json:"rowErrorDetails"`
		ColumnErrors    []domain.ErrorColumn     `json:"columnErrors"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, raw).Value, &value); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if value.ID != "b-1" || value.AccountID != "acc-1" {
		t.Fatalf("batch = %+v", value)
	}
	if value.State.Status != string(domain.BatchStatusFailedValidation) {
		t.Fatalf("state.status = %q, want FailedValidation", value.State.Status)
	}
	if len(value.RowErrorDetails) != 1 || value.RowErrorDetails[0].RowNumber != 3 {
		t.Fatalf("rowErrorDetails = %+v", value.RowErrorDetails)
	}
	if len(value.ColumnErrors) != 1 || value.ColumnErrors[0].ColumnName != "Producer organisation name" {
		t.Fatalf("columnErrors = %+v", value.ColumnErrors)
	}

	resp, raw = performRequest(t, app, http.MethodPost, "/v1/bulk/getBatch", `{"id":"b-2","accountId":"acc-1"}`)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404, body=%s", resp.StatusCode, string(raw))
	}
	if env := decodeEnvelope(t, raw); env.Error == nil || env.Error.Name != transport.NameNotFound {
		t.Fatalf("envelope = %+v, want NotFound", env)
	}
}

func TestBatchIntegration_GetBatchOmitsEmptyProjections(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		getBatchFn: func(_ context.Context, id, accountID string) (*service.BatchView, error) {
			return &service.BatchView{Batch: domain.NewBatch(id, accountID, testNow)}, nil
		},
	}
	app := newBatchTestApp(t, svc)

	_, raw := performRequest(t, app, http.MethodPost, "/v1/bulk/getBatch", `{"id":"b-1","accountId":"acc-1"}`)
	value := string(decodeEnvelope(t, raw).Value)
	if strings.Contains(value, "rowErrorDetails") || strings.Contains(value, "columnErrors") {
		t.Fatalf("value = %s, want no error projections", value)
	}
	if !strings.Contains(value, `"status":"Processing"`) {
		t.Fatalf("value = %s, want Processing state", value)
	}
}

func TestBatchIntegration_FinalizeBatch(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		finalizeFn: func(_ context.Context, id, accountID string) (*domain.Batch, error) {
			if id == "b-bad" {
				return nil, fmt.Errorf("%w: batch b-bad is in status Processing", domain.ErrBadRequest)
			}
			return &domain.Batch{
				ID:        id,
				AccountID: accountID,
				State:     domain.Submitting{Timestamp: testNow, TransactionID: "2603_3F2A9C1E"},
			}, nil
		},
	}
	app := newBatchTestApp(t, svc)

	resp, raw := performRequest(t, app, http.MethodPost, "/v1/bulk/finalizeBatch", `{"id":"b-1","accountId":"acc-1"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(raw))
	}
	value := string(decodeEnvelope(t, raw).Value)
	if !strings.Contains(value, `"transactionId":"2603_3F2A9C1E"`) || !strings.Contains(value, `"status":"Submitting"`) {
		t.Fatalf("value = %s, want Submitting state with transaction id", value)
	}

	resp, raw = performRequest(t, app, http.MethodPost, "/v1/bulk/finalizeBatch", `{"id":"b-bad","accountId":"acc-1"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", resp.StatusCode, string(raw))
	}
}

func TestBatchIntegration_DownloadBatch(t *testing.T) {
	t.Parallel()

	svc := &stubBatchService{
		downloadFn: func(_ context.Context, id, _ string) (*domain.Content, error) {
			return &domain.Content{Type: domain.ContentTypeCSV, Compression: domain.CompressionSnappy, Value: "ZW5jb2RlZA=="}, nil
		},
	}
	app := newBatchTestApp(t, svc)

	resp, raw := performRequest(t, app, http.MethodPost, "/v1/bulk/downloadBatch", `{"id":"b-1","accountId":"acc-1"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(raw))
	}

	var content domain.Content
	if err := json.Unmarshal(decodeEnvelope(t, raw).Value, &content); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if content.Type != domain.ContentTypeCSV || content.Compression != domain.CompressionSnappy || content.Value != "ZW5jb2RlZA==" {
		t.Fatalf("content = %+v", content)
	}
}

func TestBatchIntegration_GetSubmissions(t *testing.T) {
	t.Parallel()

	var got domain.SubmissionQuery
	svc := &stubBatchService{
		getSubmissionsFn: func(_ context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error) {
			got = q
			return &domain.SubmissionPage{
				Items: []domain.SubmissionPartialSummary{{
					ID:            "r-1",
					TransactionID: "2603_3F2A9C1E",
					ProducerName:  "Acme Ltd",
					EwcCode:       "200101",
				}},
				Page:       2,
				PageSize:   5,
				TotalItems: 6,
				TotalPages: 2,
			}, nil
		},
	}
	app := newBatchTestApp(t, svc)

	body := `{"batchId":"b-1","accountId":"acc-1","page":2,"pageSize":5,"ewcCode":" 200101 ",` +
		`"producerName":"acme","collectionDate":{"day":14,"month":3,"year":2026}}`
	resp, raw := performRequest(t, app, http.MethodPost, "/v1/bulk/getSubmissions", body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(raw))
	}

	if got.BatchID != "b-1" || got.AccountID != "acc-1" || got.Page != 2 || got.PageSize != 5 {
		t.Fatalf("query = %+v", got)
	}
	if got.Filters.EwcCode != "200101" || got.Filters.ProducerName != "acme" {
		t.Fatalf("filters = %+v", got.Filters)
	}
	if d := got.Filters.CollectionDate; d == nil || *d != (domain.Date{Day: 14, Month: 3, Year: 2026}) {
		t.Fatalf("collectionDate = %+v", got.Filters.CollectionDate)
	}

	var page struct {
		Values       []domain.SubmissionPartialSummary `json:"values"`
		TotalRecords int64                             `json:"totalRecords"`
		TotalPages   int                               `json:"totalPages"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, raw).Value, &page); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(page.Values) != 1 || page.TotalRecords != 6 || page.TotalPages != 2 {
		t.Fatalf("page = %+v", page)
	}
}

func TestBatchIntegration_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantName   string
	}{
		{"throttled", fmt.Errorf("%w: upload limit reached", domain.ErrTooManyRequests), fiber.StatusTooManyRequests, transport.NameTooManyRequests},
		{"internal", fmt.Errorf("%w: addContentToBatch failed", domain.ErrInternal), fiber.StatusInternalServerError, transport.NameInternalServerError},
		{"unclassified", errors.New("connection reset"), fiber.StatusInternalServerError, transport.NameInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubBatchService{
				addContentFn: func(context.Context, string, domain.Content) (string, error) { return "", tt.err },
			}
			app := newBatchTestApp(t, svc)

			resp, raw := performRequest(t, app, http.MethodPost, "/v1/bulk/addContentToBatch",
				`{"accountId":"acc-1","content":{"type":"text/csv","value":"YWJj"}}`)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", resp.StatusCode, tt.wantStatus, string(raw))
			}
			env := decodeEnvelope(t, raw)
			if env.Error == nil || env.Error.Name != tt.wantName || env.Error.StatusCode != tt.wantStatus {
				t.Fatalf("envelope error = %+v, want %s", env.Error, tt.wantName)
			}
			if tt.wantStatus == fiber.StatusInternalServerError && strings.Contains(env.Error.Message, "connection reset") {
				t.Fatalf("internal error leaked: %q", env.Error.Message)
			}
		})
	}
}
