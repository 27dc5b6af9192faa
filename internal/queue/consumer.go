package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type RabbitMQConsumer struct {
	client   *RabbitMQ
	prefetch int
	logger   *zap.Logger
}

func NewRabbitMQConsumer(client *RabbitMQ, prefetch int, logger *zap.Logger) *RabbitMQConsumer {
	if prefetch < 1 {
		prefetch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RabbitMQConsumer{
		client:   client,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Consume delivers messages from queue to handler until ctx is done. A lost
// channel is reopened with exponential backoff.
func (c *RabbitMQConsumer) Consume(ctx context.Context, queue string, handler MessageHandler) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if queue == "" {
		return fmt.Errorf("queue name is required")
	}
	if handler == nil {
		return fmt.Errorf("message handler is required")
	}

	backoff := reconnectBackoff
	for {
		err := c.consumeOnce(ctx, queue, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = reconnectBackoff
			continue
		}

		c.logger.Warn("consumer interrupted, retrying",
			zap.String("queue", queue),
			zap.Duration("retryIn", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (c *RabbitMQConsumer) consumeOnce(ctx context.Context, queue string, handler MessageHandler) error {
	ch, err := c.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close() //nolint:errcheck

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %q: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel of %q closed", queue)
			}
			if err := c.handleDelivery(ctx, d, handler); err != nil {
				return err
			}
		}
	}
}

type disposition int

const (
	dispositionAck disposition = iota
	dispositionRequeue
	dispositionDeadLetter
)

// dispose decides what happens to a delivery after its handler returned
// err. A message is retried once; a rejected one is never retried.
func dispose(err error, redelivered bool) disposition {
	switch {
	case err == nil:
		return dispositionAck
	case errors.Is(err, ErrRejected), redelivered:
		return dispositionDeadLetter
	default:
		return dispositionRequeue
	}
}

func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, d amqp.Delivery, handler MessageHandler) error {
	msg, err := decodeBody(d)
	if err == nil {
		err = msg.Validate()
	}
	if err != nil {
		c.logger.Warn("dead-lettering malformed message",
			zap.Error(err),
			zap.String("queue", d.RoutingKey),
			zap.String("messageId", d.MessageId),
		)
		if rejectErr := d.Reject(false); rejectErr != nil {
			return fmt.Errorf("failed to reject malformed message: %w", rejectErr)
		}
		return nil
	}

	logger := c.logger.With(
		zap.String("queue", d.RoutingKey),
		zap.String("batchId", msg.BatchID),
		zap.String("correlationId", msg.CorrelationID),
	)

	handlerErr := handler(ctx, msg)
	switch dispose(handlerErr, d.Redelivered) {
	case dispositionAck:
		if err := d.Ack(false); err != nil {
			return fmt.Errorf("failed to ack delivery: %w", err)
		}
	case dispositionDeadLetter:
		logger.Error("dead-lettering message", zap.Bool("redelivered", d.Redelivered), zap.Error(handlerErr))
		if err := d.Reject(false); err != nil {
			return fmt.Errorf("handler failed and reject failed: %w", err)
		}
	case dispositionRequeue:
		logger.Warn("requeueing message after handler failure", zap.Error(handlerErr))
		if err := d.Nack(false, true); err != nil {
			return fmt.Errorf("handler failed and nack failed: %w", err)
		}
	}
	return nil
}
