package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ErrorCode identifies a validation failure. A code without arguments is
// encoded as a bare number; a parametrized code as {"code":n,"args":[...]}.
type ErrorCode struct {
	Code int
	Args []string
}

// Code returns a bare error code.
func Code(code int) ErrorCode { return ErrorCode{Code: code} }

// CodeWithArgs returns a parametrized error code.
func CodeWithArgs(code int, args ...string) ErrorCode {
	return ErrorCode{Code: code, Args: args}
}

type errorCodeJSON struct {
	Code int      `json:"code"`
	Args []string `json:"args"`
}

func (c ErrorCode) MarshalJSON() ([]byte, error) {
	if len(c.Args) == 0 {
		return json.Marshal(c.Code)
	}
	return json.Marshal(errorCodeJSON{Code: c.Code, Args: c.Args})
}

func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var v errorCodeJSON
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("decode error code: %w", err)
		}
		c.Code, c.Args = v.Code, v.Args
		return nil
	}

	var n int
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode error code: %w", err)
	}
	c.Code, c.Args = n, nil
	return nil
}

// RowError lists the error codes raised by one invalid row.
type RowError struct {
	RowNumber   int         `json:"rowNumber"`
	ErrorAmount int         `json:"errorAmount"`
	ErrorCodes  []ErrorCode `json:"errorCodes"`
}

// NewRowError builds a RowError whose ErrorAmount matches its codes.
func NewRowError(rowNumber int, codes []ErrorCode) RowError {
	return RowError{RowNumber: rowNumber, ErrorAmount: len(codes), ErrorCodes: codes}
}

// ErrorDetail is one entry of a column-indexed error summary.
type ErrorDetail struct {
	RowNumber   int    `json:"rowNumber"`
	ErrorReason string `json:"errorReason"`
}

// ErrorColumn aggregates the errors of one form field across all rows.
type ErrorColumn struct {
	ID           string        `json:"id,omitempty"`
	ColumnName   string        `json:"columnName"`
	ErrorAmount  int           `json:"errorAmount"`
	ErrorDetails []ErrorDetail `json:"errorDetails"`
}

// Row is one data line of an uploaded CSV.
type Row struct {
	ID        string
	BatchID   string
	AccountID string
	RowNumber int
	Valid     bool
	Submitted bool
	Content   *Submission
	Errors    []ErrorCode
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RowErrorSummary is the row-indexed projection of a RowError with every
// code resolved to its message.
type RowErrorSummary struct {
	RowNumber    int      `json:"rowNumber"`
	ErrorAmount  int      `json:"errorAmount"`
	ErrorDetails []string `json:"errorDetails"`
}
