package queue

import (
	"context"
	"errors"
	"fmt"
)

// Publisher publishes batch messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg BatchMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg BatchMessage) error

// Consumer consumes batch messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
}

// ErrRejected marks a handler failure that retrying cannot fix. The message
// goes straight to the dead-letter queue.
var ErrRejected = errors.New("message rejected")

const (
	// ContentQueue carries uploaded files awaiting validation.
	ContentQueue = "bulk.content"
	// FinalizeQueue carries finalize requests for validated batches.
	FinalizeQueue = "bulk.finalize"
	// SubmitQueue carries batches in Submitting awaiting row submission.
	SubmitQueue = "bulk.submit"
)

var workQueues = []string{ContentQueue, FinalizeQueue, SubmitQueue}

// DLQName returns the dead-letter queue name of a work queue, e.g. dlq.bulk.submit.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns all work queues.
func WorkQueueNames() []string {
	return append([]string(nil), workQueues...)
}

// DLQNames returns all dead-letter queues.
func DLQNames() []string {
	queues := make([]string, 0, len(workQueues))
	for _, q := range workQueues {
		queues = append(queues, DLQName(q))
	}
	return queues
}
