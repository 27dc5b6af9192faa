package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kursadbilgin/bulk-submission-engine/internal/csvcodec"
	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// rowChunkSize bounds the number of rows written per statement.
const rowChunkSize = 50

type BatchRepository interface {
	Save(ctx context.Context, b *domain.Batch) error
	Get(ctx context.Context, id, accountID string) (*domain.Batch, error)
	ListStale(ctx context.Context, status domain.BatchStatus, olderThan time.Time, limit int) ([]domain.Batch, error)

	SaveRows(ctx context.Context, rows []domain.Row) error
	GetRows(ctx context.Context, batchID, accountID string) ([]domain.Row, error)
	GetRow(ctx context.Context, batchID, accountID, rowID string) (*domain.Row, error)

	SaveColumns(ctx context.Context, batchID, accountID string, columns []domain.ErrorColumn) error
	GetColumns(ctx context.Context, batchID, accountID string) ([]domain.ErrorColumn, error)
	GetColumn(ctx context.Context, batchID, accountID, columnID string) (*domain.ErrorColumn, error)

	DownloadFlattened(ctx context.Context, id, accountID string) ([]csvcodec.FlatRow, error)
	QueryPaged(ctx context.Context, q domain.SubmissionQuery) (*domain.SubmissionPage, error)
}

type GormBatchRepo struct {
	db *gorm.DB
}

func NewGormBatchRepo(db *gorm.DB) *GormBatchRepo {
	return &GormBatchRepo{db: db}
}

// Save inserts the batch or replaces its state.
func (r *GormBatchRepo) Save(ctx context.Context, b *domain.Batch) error {
	if b == nil {
		return fmt.Errorf("%w: batch is nil", domain.ErrBadRequest)
	}

	model, err := batchModelFromDomain(b)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "state", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = model.CreatedAt
	}
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormBatchRepo) Get(ctx context.Context, id, accountID string) (*domain.Batch, error) {
	if !isUUID(id) {
		return nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, id)
	}

	var model BatchModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return batchModelToDomain(&model)
}

// ListStale returns batches that have been in status since before olderThan,
// oldest first.
func (r *GormBatchRepo) ListStale(ctx context.Context, status domain.BatchStatus, olderThan time.Time, limit int) ([]domain.Batch, error) {
	var models []BatchModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status, olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	batches := make([]domain.Batch, 0, len(models))
	for i := range models {
		b, err := batchModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, nil
}

// SaveRows upserts rows in chunks. Each chunk and its EWC index entries are
// written in one transaction.
func (r *GormBatchRepo) SaveRows(ctx context.Context, rows []domain.Row) error {
	for start := 0; start < len(rows); start += rowChunkSize {
		end := min(start+rowChunkSize, len(rows))
		if err := r.saveRowChunk(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *GormBatchRepo) saveRowChunk(ctx context.Context, rows []domain.Row) error {
	models := make([]RowModel, 0, len(rows))
	ids := make([]string, 0, len(rows))
	var codes []RowEwcCodeModel

	for i := range rows {
		m, ewc, err := rowModelFromDomain(&rows[i])
		if err != nil {
			return err
		}
		models = append(models, *m)
		ids = append(ids, m.ID)
		codes = append(codes, ewc...)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&models).Error
		if err != nil {
			return err
		}

		if err := tx.Where("row_id IN ?", ids).Delete(&RowEwcCodeModel{}).Error; err != nil {
			return err
		}
		if len(codes) == 0 {
			return nil
		}
		return tx.Create(&codes).Error
	})
	if err != nil {
		return err
	}

	for i := range models {
		rows[i].ID = models[i].ID
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = models[i].CreatedAt
		}
		rows[i].UpdatedAt = models[i].UpdatedAt
	}
	return nil
}

// GetRows returns every row of a batch in line order. A batch without rows
// is reported as not found.
func (r *GormBatchRepo) GetRows(ctx context.Context, batchID, accountID string) ([]domain.Row, error) {
	var models []RowModel
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND account_id = ?", batchID, accountID).
		Order("row_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no rows for batch %s", domain.ErrNotFound, batchID)
	}

	return rowsToDomain(models)
}

func (r *GormBatchRepo) GetRow(ctx context.Context, batchID, accountID, rowID string) (*domain.Row, error) {
	if !isUUID(batchID) || !isUUID(rowID) {
		return nil, fmt.Errorf("%w: row %s", domain.ErrNotFound, rowID)
	}

	var model RowModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND batch_id = ? AND account_id = ?", rowID, batchID, accountID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: row %s", domain.ErrNotFound, rowID)
	}
	if err != nil {
		return nil, err
	}
	return rowModelToDomain(&model)
}

// SaveColumns replaces the error columns of a batch.
func (r *GormBatchRepo) SaveColumns(ctx context.Context, batchID, accountID string, columns []domain.ErrorColumn) error {
	models := make([]ColumnModel, 0, len(columns))
	for i, c := range columns {
		m, err := columnModelFromDomain(batchID, accountID, i, c)
		if err != nil {
			return err
		}
		models = append(models, *m)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("batch_id = ? AND account_id = ?", batchID, accountID).
			Delete(&ColumnModel{}).Error
		if err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(&models, rowChunkSize).Error
	})
}

// GetColumns returns the stored error columns in field order.
func (r *GormBatchRepo) GetColumns(ctx context.Context, batchID, accountID string) ([]domain.ErrorColumn, error) {
	var models []ColumnModel
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND account_id = ?", batchID, accountID).
		Order("position ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	columns := make([]domain.ErrorColumn, 0, len(models))
	for i := range models {
		c, err := columnModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		columns = append(columns, *c)
	}
	return columns, nil
}

func (r *GormBatchRepo) GetColumn(ctx context.Context, batchID, accountID, columnID string) (*domain.ErrorColumn, error) {
	if !isUUID(batchID) || !isUUID(columnID) {
		return nil, fmt.Errorf("%w: column %s", domain.ErrNotFound, columnID)
	}

	var model ColumnModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND batch_id = ? AND account_id = ?", columnID, batchID, accountID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: column %s", domain.ErrNotFound, columnID)
	}
	if err != nil {
		return nil, err
	}
	return columnModelToDomain(&model)
}

// DownloadFlattened renders the submitted rows of a Submitted batch onto
// the download column set.
func (r *GormBatchRepo) DownloadFlattened(ctx context.Context, id, accountID string) ([]csvcodec.FlatRow, error) {
	b, err := r.Get(ctx, id, accountID)
	if err != nil {
		return nil, err
	}
	if b.Status() != domain.BatchStatusSubmitted {
		return nil, fmt.Errorf("%w: batch %s is in status %s, expected %s",
			domain.ErrBadRequest, id, b.Status(), domain.BatchStatusSubmitted)
	}

	var models []RowModel
	err = r.db.WithContext(ctx).
		Where("batch_id = ? AND account_id = ? AND submitted = ?", id, accountID, true).
		Order("row_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no submitted rows for batch %s", domain.ErrNotFound, id)
	}

	rows, err := rowsToDomain(models)
	if err != nil {
		return nil, err
	}

	flat := make([]csvcodec.FlatRow, 0, len(rows))
	for _, row := range rows {
		if row.Content == nil {
			continue
		}
		flat = append(flat, csvcodec.Flatten(*row.Content))
	}
	return flat, nil
}

// isUUID guards id lookups; postgres rejects a malformed uuid literal
// instead of matching nothing.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func rowsToDomain(models []RowModel) ([]domain.Row, error) {
	rows := make([]domain.Row, 0, len(models))
	for i := range models {
		row, err := rowModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}
