package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// BatchModel is the persistence model for the batches table.
type BatchModel struct {
	ID        string             `gorm:"type:uuid;primaryKey"`
	AccountID string             `gorm:"type:varchar(64);not null"`
	Status    domain.BatchStatus `gorm:"type:varchar(20);not null"`
	State     datatypes.JSON     `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BatchModel) TableName() string {
	return "batches"
}

// RowModel is the persistence model for batch_rows. The producer name and
// collection date are copied out of Content so listings can filter on them.
type RowModel struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	BatchID         string         `gorm:"type:uuid;not null"`
	AccountID       string         `gorm:"type:varchar(64);not null"`
	RowNumber       int            `gorm:"not null"`
	Valid           bool           `gorm:"not null"`
	Submitted       bool           `gorm:"not null"`
	Content         datatypes.JSON `gorm:"type:jsonb"`
	Errors          datatypes.JSON `gorm:"type:jsonb"`
	WasteMovementID *string        `gorm:"type:varchar(32)"`
	ProducerName    string         `gorm:"type:varchar(250)"`
	FirstEwcCode    string         `gorm:"type:varchar(6)"`
	CollectionDay   int
	CollectionMonth int
	CollectionYear  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (RowModel) TableName() string {
	return "batch_rows"
}

// RowEwcCodeModel indexes every EWC code of a row for the ewcCode filter.
type RowEwcCodeModel struct {
	RowID     string `gorm:"type:uuid;primaryKey"`
	Position  int    `gorm:"primaryKey"`
	BatchID   string `gorm:"type:uuid;not null"`
	AccountID string `gorm:"type:varchar(64);not null"`
	EwcCode   string `gorm:"type:varchar(6);not null"`
}

func (RowEwcCodeModel) TableName() string {
	return "batch_row_ewc_codes"
}

// ColumnModel is one precomputed column of the column-indexed error summary.
type ColumnModel struct {
	ID           string         `gorm:"type:uuid;primaryKey"`
	BatchID      string         `gorm:"type:uuid;not null"`
	AccountID    string         `gorm:"type:varchar(64);not null"`
	Position     int            `gorm:"not null"`
	ColumnName   string         `gorm:"type:varchar(100);not null"`
	ErrorAmount  int            `gorm:"not null"`
	ErrorDetails datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time
}

func (ColumnModel) TableName() string {
	return "batch_columns"
}

// RowID derives the id of a row from its batch and line number, so that
// writing the same row twice updates it in place.
func RowID(batchID string, rowNumber int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(batchID+":"+strconv.Itoa(rowNumber))).String()
}

// ColumnID derives the id of an error column from its batch and name.
func ColumnID(batchID, columnName string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(batchID+":column:"+columnName)).String()
}

func batchModelFromDomain(b *domain.Batch) (*BatchModel, error) {
	state, err := domain.MarshalState(b.State)
	if err != nil {
		return nil, err
	}

	return &BatchModel{
		ID:        b.ID,
		AccountID: b.AccountID,
		Status:    b.Status(),
		State:     datatypes.JSON(state),
		CreatedAt: b.CreatedAt,
	}, nil
}

func batchModelToDomain(m *BatchModel) (*domain.Batch, error) {
	state, err := domain.UnmarshalState(m.State)
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", m.ID, err)
	}

	return &domain.Batch{
		ID:        m.ID,
		AccountID: m.AccountID,
		State:     state,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func rowModelFromDomain(r *domain.Row) (*RowModel, []RowEwcCodeModel, error) {
	id := r.ID
	if id == "" {
		id = RowID(r.BatchID, r.RowNumber)
	}

	m := &RowModel{
		ID:        id,
		BatchID:   r.BatchID,
		AccountID: r.AccountID,
		RowNumber: r.RowNumber,
		Valid:     r.Valid,
		Submitted: r.Submitted,
		CreatedAt: r.CreatedAt,
	}

	if len(r.Errors) > 0 {
		errs, err := json.Marshal(r.Errors)
		if err != nil {
			return nil, nil, fmt.Errorf("encode row errors: %w", err)
		}
		m.Errors = datatypes.JSON(errs)
	}

	var codes []RowEwcCodeModel
	if r.Content != nil {
		content, err := json.Marshal(r.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("encode row content: %w", err)
		}
		m.Content = datatypes.JSON(content)
		m.ProducerName = r.Content.Producer.OrganisationName
		date := r.Content.WasteCollection.ExpectedCollectionDate
		m.CollectionDay, m.CollectionMonth, m.CollectionYear = date.Day, date.Month, date.Year
		if r.Content.WasteMovementID != "" {
			wmid := r.Content.WasteMovementID
			m.WasteMovementID = &wmid
		}

		for i, code := range r.Content.EwcCodes() {
			if i == 0 {
				m.FirstEwcCode = code
			}
			codes = append(codes, RowEwcCodeModel{
				RowID:     id,
				Position:  i,
				BatchID:   r.BatchID,
				AccountID: r.AccountID,
				EwcCode:   code,
			})
		}
	}

	return m, codes, nil
}

func rowModelToDomain(m *RowModel) (*domain.Row, error) {
	r := &domain.Row{
		ID:        m.ID,
		BatchID:   m.BatchID,
		AccountID: m.AccountID,
		RowNumber: m.RowNumber,
		Valid:     m.Valid,
		Submitted: m.Submitted,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if len(m.Content) > 0 && string(m.Content) != "null" {
		var s domain.Submission
		if err := json.Unmarshal(m.Content, &s); err != nil {
			return nil, fmt.Errorf("decode content of row %s: %w", m.ID, err)
		}
		r.Content = &s
	}
	if len(m.Errors) > 0 && string(m.Errors) != "null" {
		if err := json.Unmarshal(m.Errors, &r.Errors); err != nil {
			return nil, fmt.Errorf("decode errors of row %s: %w", m.ID, err)
		}
	}

	return r, nil
}

func columnModelFromDomain(batchID, accountID string, position int, c domain.ErrorColumn) (*ColumnModel, error) {
	details, err := json.Marshal(c.ErrorDetails)
	if err != nil {
		return nil, fmt.Errorf("encode column details: %w", err)
	}

	return &ColumnModel{
		ID:           ColumnID(batchID, c.ColumnName),
		BatchID:      batchID,
		AccountID:    accountID,
		Position:     position,
		ColumnName:   c.ColumnName,
		ErrorAmount:  c.ErrorAmount,
		ErrorDetails: datatypes.JSON(details),
	}, nil
}

func columnModelToDomain(m *ColumnModel) (*domain.ErrorColumn, error) {
	c := &domain.ErrorColumn{
		ID:          m.ID,
		ColumnName:  m.ColumnName,
		ErrorAmount: m.ErrorAmount,
	}
	if err := json.Unmarshal(m.ErrorDetails, &c.ErrorDetails); err != nil {
		return nil, fmt.Errorf("decode column %s: %w", m.ID, err)
	}
	return c, nil
}
