package queue

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
	amqp "github.com/rabbitmq/amqp091-go"
)

// snappyEncoding marks a snappy block encoded body. Content messages carry
// whole uploads and are always sent this way.
const snappyEncoding = "snappy"

func encodeBody(msg BatchMessage) ([]byte, string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal batch message: %w", err)
	}
	if msg.Content == nil {
		return payload, "", nil
	}
	return snappy.Encode(nil, payload), snappyEncoding, nil
}

func decodeBody(d amqp.Delivery) (BatchMessage, error) {
	body := d.Body
	switch d.ContentEncoding {
	case "":
	case snappyEncoding:
		decoded, err := snappy.Decode(nil, d.Body)
		if err != nil {
			return BatchMessage{}, fmt.Errorf("decode snappy body: %w", err)
		}
		body = decoded
	default:
		return BatchMessage{}, fmt.Errorf("unsupported content encoding %q", d.ContentEncoding)
	}

	var msg BatchMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return BatchMessage{}, fmt.Errorf("invalid JSON: %w", err)
	}
	// Fall back to the AMQP property.
	if msg.CorrelationID == "" {
		msg.CorrelationID = d.CorrelationId
	}
	return msg, nil
}
