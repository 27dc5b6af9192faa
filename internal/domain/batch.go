package domain

import (
	"fmt"
	"strings"
	"time"
)

// BatchStatus represents the lifecycle state of a batch.
type BatchStatus string

const (
	BatchStatusProcessing       BatchStatus = "Processing"
	BatchStatusFailedValidation BatchStatus = "FailedValidation"
	BatchStatusPassedValidation BatchStatus = "PassedValidation"
	BatchStatusSubmitting       BatchStatus = "Submitting"
	BatchStatusSubmitted        BatchStatus = "Submitted"
)

func (s BatchStatus) String() string { return string(s) }

func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusProcessing, BatchStatusFailedValidation, BatchStatusPassedValidation,
		BatchStatusSubmitting, BatchStatusSubmitted:
		return true
	}
	return false
}

// State is the batch state. The set of implementations is closed: only the
// five variants below satisfy it.
type State interface {
	Status() BatchStatus
	At() time.Time
	state()
}

type Processing struct {
	Timestamp time.Time `json:"timestamp"`
}

type FailedValidation struct {
	Timestamp time.Time  `json:"timestamp"`
	RowErrors []RowError `json:"rowErrors"`
}

type PassedValidation struct {
	Timestamp    time.Time    `json:"timestamp"`
	HasEstimates bool         `json:"hasEstimates"`
	Submissions  []Submission `json:"submissions"`
}

type Submitting struct {
	Timestamp     time.Time    `json:"timestamp"`
	TransactionID string       `json:"transactionId"`
	HasEstimates  bool         `json:"hasEstimates"`
	Submissions   []Submission `json:"submissions"`
}

type Submitted struct {
	Timestamp     time.Time           `json:"timestamp"`
	TransactionID string              `json:"transactionId"`
	Submissions   []SubmissionSummary `json:"submissions"`
}

func (Processing) Status() BatchStatus       { return BatchStatusProcessing }
func (FailedValidation) Status() BatchStatus { return BatchStatusFailedValidation }
func (PassedValidation) Status() BatchStatus { return BatchStatusPassedValidation }
func (Submitting) Status() BatchStatus       { return BatchStatusSubmitting }
func (Submitted) Status() BatchStatus        { return BatchStatusSubmitted }

func (s Processing) At() time.Time       { return s.Timestamp }
func (s FailedValidation) At() time.Time { return s.Timestamp }
func (s PassedValidation) At() time.Time { return s.Timestamp }
func (s Submitting) At() time.Time       { return s.Timestamp }
func (s Submitted) At() time.Time        { return s.Timestamp }

func (Processing) state()       {}
func (FailedValidation) state() {}
func (PassedValidation) state() {}
func (Submitting) state()       {}
func (Submitted) state()        {}

// Batch is the aggregate root of one bulk upload. Rows and error columns
// belong to exactly one batch; only State changes after creation and it is
// always replaced wholesale.
type Batch struct {
	ID        string
	AccountID string
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBatch returns a batch in the Processing state.
func NewBatch(id, accountID string, now time.Time) *Batch {
	return &Batch{
		ID:        id,
		AccountID: accountID,
		State:     Processing{Timestamp: now.UTC()},
	}
}

// Status returns the current state's status, or "" for a batch without state.
func (b *Batch) Status() BatchStatus {
	if b == nil || b.State == nil {
		return ""
	}
	return b.State.Status()
}

// CompleteValidation records the outcome of the validation pass. Any row
// error moves the batch to FailedValidation; otherwise it passes with the
// supplied submissions.
func (b *Batch) CompleteValidation(now time.Time, rowErrors []RowError, submissions []Submission) error {
	if err := b.require(BatchStatusProcessing); err != nil {
		return err
	}

	if len(rowErrors) > 0 {
		b.State = FailedValidation{Timestamp: now.UTC(), RowErrors: rowErrors}
		return nil
	}

	hasEstimates := false
	for i := range submissions {
		if submissions[i].HasEstimates() {
			hasEstimates = true
			break
		}
	}

	b.State = PassedValidation{
		Timestamp:    now.UTC(),
		HasEstimates: hasEstimates,
		Submissions:  submissions,
	}
	return nil
}

// Finalize moves a PassedValidation batch to Submitting and assigns its
// transaction id. HasEstimates and Submissions carry over unchanged.
func (b *Batch) Finalize(now time.Time) error {
	if err := b.require(BatchStatusPassedValidation); err != nil {
		return err
	}

	passed := b.State.(PassedValidation)
	b.State = Submitting{
		Timestamp:     now.UTC(),
		TransactionID: TransactionID(b.ID, now),
		HasEstimates:  passed.HasEstimates,
		Submissions:   passed.Submissions,
	}
	return nil
}

// MarkSubmitted moves a Submitting batch to Submitted, keeping its
// transaction id and replacing the submissions with their summaries.
func (b *Batch) MarkSubmitted(now time.Time, summaries []SubmissionSummary) error {
	if err := b.require(BatchStatusSubmitting); err != nil {
		return err
	}

	submitting := b.State.(Submitting)
	b.State = Submitted{
		Timestamp:     now.UTC(),
		TransactionID: submitting.TransactionID,
		Submissions:   summaries,
	}
	return nil
}

func (b *Batch) require(expected BatchStatus) error {
	if b == nil || b.State == nil {
		return fmt.Errorf("%w: batch has no state, expected %s", ErrBadRequest, expected)
	}
	if got := b.State.Status(); got != expected {
		return fmt.Errorf("%w: batch %s is in status %s, expected %s", ErrBadRequest, b.ID, got, expected)
	}
	return nil
}

// TransactionID derives the human facing id of a finalized batch:
// YYMM_XXXXXXXX where X are the first eight hex characters of the batch id.
func TransactionID(batchID string, now time.Time) string {
	return now.UTC().Format("0601") + "_" + hexPrefix(batchID)
}

// WasteMovementID derives the id of a single submitted movement.
func WasteMovementID(submissionID string, now time.Time) string {
	return "WM" + now.UTC().Format("0601") + "_" + hexPrefix(submissionID)
}

func hexPrefix(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return strings.ToUpper(compact)
}
