package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// QueryPaged lists the submitted rows of a batch, newest first. A
// wasteMovementId filter bypasses paging and returns every match on a
// single page.
func (r *GormBatchRepo) QueryPaged(ctx context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error) {
	q = q.Normalize()

	b, err := r.Get(ctx, q.BatchID, q.AccountID)
	if err != nil {
		return nil, err
	}
	transactionID := transactionIDOf(b)

	query := r.submittedRows(ctx, q)

	if q.Filters.WasteMovementID != "" {
		var models []RowModel
		err := query.
			Where("waste_movement_id = ?", q.Filters.WasteMovementID).
			Order("created_at DESC").
			Order("row_number DESC").
			Find(&models).Error
		if err != nil {
			return nil, err
		}

		page := &domain.SubmissionPage{
			Items:      partialSummaries(models, transactionID),
			Page:       1,
			PageSize:   len(models),
			TotalItems: int64(len(models)),
		}
		if len(models) > 0 {
			page.TotalPages = 1
		}
		return page, nil
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var models []RowModel
	err = query.
		Order("created_at DESC").
		Order("row_number DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return &domain.SubmissionPage{
		Items:      partialSummaries(models, transactionID),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalItems: total,
		TotalPages: int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}, nil
}

func (r *GormBatchRepo) submittedRows(ctx context.Context, q domain.SubmissionQuery) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&RowModel{}).
		Where("batch_rows.batch_id = ? AND batch_rows.account_id = ? AND batch_rows.submitted = ?", q.BatchID, q.AccountID, true)

	if code := strings.TrimSpace(q.Filters.EwcCode); code != "" {
		query = query.Where(
			"EXISTS (SELECT 1 FROM batch_row_ewc_codes e WHERE e.row_id = batch_rows.id AND e.account_id = batch_rows.account_id AND e.ewc_code = ?)",
			strings.TrimPrefix(code, "'"),
		)
	}
	if name := strings.TrimSpace(q.Filters.ProducerName); name != "" {
		query = query.Where(
			`LOWER(batch_rows.producer_name) LIKE ? ESCAPE '\'`,
			"%"+likeEscaper.Replace(strings.ToLower(name))+"%",
		)
	}
	if d := q.Filters.CollectionDate; d != nil && !d.IsZero() {
		query = query.Where(
			"batch_rows.collection_day = ? AND batch_rows.collection_month = ? AND batch_rows.collection_year = ?",
			d.Day, d.Month, d.Year,
		)
	}

	return query
}

func transactionIDOf(b *domain.Batch) string {
	switch s := b.State.(type) {
	case domain.Submitted:
		return s.TransactionID
	case domain.Submitting:
		return s.TransactionID
	}
	return ""
}

// partialSummaries reports each row under its own waste movement id, the
// value the wasteMovementId filter matches. Rows without one fall back to
// the batch transaction id.
func partialSummaries(models []RowModel, transactionID string) []domain.SubmissionPartialSummary {
	out := make([]domain.SubmissionPartialSummary, 0, len(models))
	for _, m := range models {
		id := transactionID
		if m.WasteMovementID != nil && *m.WasteMovementID != "" {
			id = *m.WasteMovementID
		}
		out = append(out, domain.SubmissionPartialSummary{
			ID:             m.ID,
			TransactionID:  id,
			ProducerName:   m.ProducerName,
			EwcCode:        m.FirstEwcCode,
			CollectionDate: domain.Date{Day: m.CollectionDay, Month: m.CollectionMonth, Year: m.CollectionYear},
		})
	}
	return out
}
