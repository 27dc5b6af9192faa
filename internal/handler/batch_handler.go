package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
	"github.com/kursadbilgin/bulk-submission-engine/internal/observability"
	"github.com/kursadbilgin/bulk-submission-engine/internal/service"
	"github.com/kursadbilgin/bulk-submission-engine/internal/transport"
)

type BatchService interface {
	AddContentToBatch(ctx context.Context, accountID string, content domain.Content) (string, error)
	GetBatch(ctx context.Context, id, accountID string) (*service.BatchView, error)
	FinalizeBatch(ctx context.Context, id, accountID string) (*domain.Batch, error)
	DownloadBatch(ctx context.Context, id, accountID string) (*domain.Content, error)
	GetSubmissions(ctx context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error)
}

type BatchHandler struct {
	service   BatchService
	validator *requestValidator
}

func NewBatchHandler(service BatchService) (*BatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	return &BatchHandler{service: service, validator: newRequestValidator()}, nil
}

func RegisterBatchRoutes(router fiber.Router, service BatchService) error {
	h, err := NewBatchHandler(service)
	if err != nil {
		return err
	}

	bulk := router.Group("/v1/bulk", CorrelationMiddleware())
	bulk.Post("/addContentToBatch", h.AddContentToBatch)
	bulk.Post("/getBatch", h.GetBatch)
	bulk.Post("/finalizeBatch", h.FinalizeBatch)
	bulk.Post("/downloadBatch", h.DownloadBatch)
	bulk.Post("/getSubmissions", h.GetSubmissions)

	return nil
}

// CorrelationMiddleware carries X-Request-ID into the request context,
// minting one when the caller sent none.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := requestCorrelationID(c)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), id))
		return c.Next()
	}
}

type contentRequest struct {
	Type        string `json:"type" validate:"required"`
	Compression string `json:"compression" validate:"omitempty,oneof=None Snappy"`
	Value       string `json:"value" validate:"required"`
}

type addContentRequest struct {
	AccountID string          `json:"accountId" validate:"required"`
	Content   *contentRequest `json:"content" validate:"required"`
}

type batchRequest struct {
	ID        string `json:"id" validate:"required"`
	AccountID string `json:"accountId" validate:"required"`
}

type dateRequest struct {
	Day   int `json:"day" validate:"min=1,max=31"`
	Month int `json:"month" validate:"min=1,max=12"`
	Year  int `json:"year" validate:"min=1"`
}

type getSubmissionsRequest struct {
	BatchID         string       `json:"batchId" validate:"required"`
	AccountID       string       `json:"accountId" validate:"required"`
	Page            int          `json:"page"`
	PageSize        int          `json:"pageSize"`
	EwcCode         string       `json:"ewcCode"`
	ProducerName    string       `json:"producerName"`
	CollectionDate  *dateRequest `json:"collectionDate"`
	WasteMovementID string       `json:"wasteMovementId"`
}

type addContentResponse struct {
	BatchID string `json:"batchId"`
}

type batchResponse struct {
	ID              string                   `json:"id"`
	AccountID       string                   `json:"accountId"`
	State           json.RawMessage          `json:"state"`
	RowErrorDetails []domain.RowErrorSummary `json:"rowErrorDetails,omitempty"`
	ColumnErrors    []domain.ErrorColumn     `json:"columnErrors,omitempty"`
}

func (h *BatchHandler) AddContentToBatch(c *fiber.Ctx) error {
	var req addContentRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	compression := domain.Compression(req.Content.Compression)
	if compression == "" {
		compression = domain.CompressionNone
	}

	id, err := h.service.AddContentToBatch(c.UserContext(), strings.TrimSpace(req.AccountID), domain.Content{
		Type:        req.Content.Type,
		Compression: compression,
		Value:       req.Content.Value,
	})
	if err != nil {
		return err
	}

	return transport.OK(c, addContentResponse{BatchID: id})
}

func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	view, err := h.service.GetBatch(c.UserContext(), strings.TrimSpace(req.ID), strings.TrimSpace(req.AccountID))
	if err != nil {
		return err
	}

	resp, err := toBatchResponse(view.Batch)
	if err != nil {
		return err
	}
	resp.RowErrorDetails = view.RowErrorDetails
	resp.ColumnErrors = view.ErrorColumns

	return transport.OK(c, resp)
}

func (h *BatchHandler) FinalizeBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	batch, err := h.service.FinalizeBatch(c.UserContext(), strings.TrimSpace(req.ID), strings.TrimSpace(req.AccountID))
	if err != nil {
		return err
	}

	resp, err := toBatchResponse(batch)
	if err != nil {
		return err
	}
	return transport.OK(c, resp)
}

func (h *BatchHandler) DownloadBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	content, err := h.service.DownloadBatch(c.UserContext(), strings.TrimSpace(req.ID), strings.TrimSpace(req.AccountID))
	if err != nil {
		return err
	}

	return transport.OK(c, content)
}

func (h *BatchHandler) GetSubmissions(c *fiber.Ctx) error {
	var req getSubmissionsRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	q := domain.SubmissionQuery{
		BatchID:   strings.TrimSpace(req.BatchID),
		AccountID: strings.TrimSpace(req.AccountID),
		Page:      req.Page,
		PageSize:  req.PageSize,
		Filters: domain.SubmissionFilters{
			EwcCode:         strings.TrimSpace(req.EwcCode),
			ProducerName:    strings.TrimSpace(req.ProducerName),
			WasteMovementID: strings.TrimSpace(req.WasteMovementID),
		},
	}
	if d := req.CollectionDate; d != nil {
		q.Filters.CollectionDate = &domain.Date{Day: d.Day, Month: d.Month, Year: d.Year}
	}

	page, err := h.service.GetSubmissions(c.UserContext(), q)
	if err != nil {
		return err
	}

	return transport.OK(c, page)
}

func (h *BatchHandler) parse(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrBadRequest)
	}
	return h.validator.validate(req)
}

func toBatchResponse(b *domain.Batch) (batchResponse, error) {
	state, err := domain.MarshalState(b.State)
	if err != nil {
		return batchResponse{}, err
	}
	return batchResponse{ID: b.ID, AccountID: b.AccountID, State: state}, nil
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
