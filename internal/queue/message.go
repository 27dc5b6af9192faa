package queue

import (
	"fmt"
	"strings"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

// BatchMessage is the broker payload for every batch queue. Content is only
// set on the content queue.
type BatchMessage struct {
	BatchID       string          `json:"batchId"`
	AccountID     string          `json:"accountId"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Content       *domain.Content `json:"content,omitempty"`
}

func (m BatchMessage) Validate() error {
	if strings.TrimSpace(m.BatchID) == "" {
		return fmt.Errorf("batchId is required")
	}
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("accountId is required")
	}
	return nil
}
