package domain

const DefaultPageSize = 15

// SubmissionFilters narrow the submitted-rows listing. All set filters
// must match.
type SubmissionFilters struct {
	EwcCode         string `json:"ewcCode,omitempty"`
	ProducerName    string `json:"producerName,omitempty"`
	CollectionDate  *Date  `json:"collectionDate,omitempty"`
	WasteMovementID string `json:"wasteMovementId,omitempty"`
}

// SubmissionQuery selects a page of the submitted rows of one batch.
type SubmissionQuery struct {
	BatchID   string
	AccountID string
	Page      int
	PageSize  int
	Filters   SubmissionFilters
}

// Normalize clamps the page and the page size to >= 1, defaulting an unset
// page size. The requested size is otherwise kept so totalPages stays
// ceil(total/pageSize).
func (q SubmissionQuery) Normalize() SubmissionQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = DefaultPageSize
	case q.PageSize < 1:
		q.PageSize = 1
	}
	return q
}

// SubmissionPage is one page of the submitted-rows listing.
type SubmissionPage struct {
	Items      []SubmissionPartialSummary `json:"values"`
	Page       int                        `json:"page"`
	PageSize   int                        `json:"pageSize"`
	TotalItems int64                      `json:"totalRecords"`
	TotalPages int                        `json:"totalPages"`
}
