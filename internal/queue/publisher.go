package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher publishes on one confirm-mode channel and waits for the
// broker to confirm each message, so a nil error means the message is
// durable.
type RabbitMQPublisher struct {
	client *RabbitMQ

	mu sync.Mutex
	ch *amqp.Channel
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, queue string, msg BatchMessage) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	if queue == "" {
		return fmt.Errorf("queue name is required")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid batch message: %w", err)
	}

	body, encoding, err := encodeBody(msg)
	if err != nil {
		return err
	}

	publishing := amqp.Publishing{
		ContentType:     "application/json",
		ContentEncoding: encoding,
		DeliveryMode:    amqp.Persistent,
		Timestamp:       time.Now().UTC(),
		MessageId:       msg.BatchID,
		CorrelationId:   msg.CorrelationID,
		Type:            queue,
		Headers:         amqp.Table{"x-account-id": msg.AccountID},
		Body:            body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.confirmChannel(ctx)
	if err != nil {
		return err
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, publishing)
	if err != nil {
		p.resetChannel()
		return fmt.Errorf("failed to publish message to queue %q: %w", queue, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		p.resetChannel()
		return fmt.Errorf("failed to confirm message on queue %q: %w", queue, err)
	}
	if !acked {
		return fmt.Errorf("broker nacked message on queue %q", queue)
	}
	return nil
}

// Close closes the publishing channel. The connection belongs to RabbitMQ.
func (p *RabbitMQPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		p.ch = nil
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

func (p *RabbitMQPublisher) confirmChannel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	p.ch = ch
	return ch, nil
}

func (p *RabbitMQPublisher) resetChannel() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	p.ch = nil
}
