package taxonomy

import (
	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// SkippedCode is an error code left out of the column projection because
// its field is not declared.
type SkippedCode struct {
	RowNumber int
	Code      int
}

// RowErrorDetails resolves every code of every row, keeping row and code order.
func RowErrorDetails(rowErrors []domain.RowError) []domain.RowErrorSummary {
	out := make([]domain.RowErrorSummary, 0, len(rowErrors))
	for _, re := range rowErrors {
		details := make([]string, 0, len(re.ErrorCodes))
		for _, code := range re.ErrorCodes {
			details = append(details, Resolve(code))
		}
		out = append(out, domain.RowErrorSummary{
			RowNumber:    re.RowNumber,
			ErrorAmount:  re.ErrorAmount,
			ErrorDetails: details,
		})
	}
	return out
}

// ColumnErrors groups errors by field. Columns follow the order of Fields
// and columns without errors are omitted. Codes that do not map to a
// declared field are returned as skipped.
func ColumnErrors(rowErrors []domain.RowError) ([]domain.ErrorColumn, []SkippedCode) {
	byField := make(map[Field][]domain.ErrorDetail)
	var skipped []SkippedCode

	for _, re := range rowErrors {
		for _, code := range re.ErrorCodes {
			field, ok := FieldOf(code)
			if !ok {
				skipped = append(skipped, SkippedCode{RowNumber: re.RowNumber, Code: code.Code})
				continue
			}
			byField[field] = append(byField[field], domain.ErrorDetail{
				RowNumber:   re.RowNumber,
				ErrorReason: Resolve(code),
			})
		}
	}

	columns := make([]domain.ErrorColumn, 0, len(byField))
	for _, field := range Fields {
		details, ok := byField[field]
		if !ok {
			continue
		}
		columns = append(columns, domain.ErrorColumn{
			ColumnName:   string(field),
			ErrorAmount:  len(details),
			ErrorDetails: details,
		})
	}

	return columns, skipped
}
