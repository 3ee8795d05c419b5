package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/biotechlab/lis-backend/pkg/logger"
)

// Publisher publishes events to RabbitMQ
type Publisher struct {
	rmq    *RabbitMQ
	logger *logger.Logger
	source string
}

// NewPublisher creates a new event publisher and declares the service exchange
func NewPublisher(rmq *RabbitMQ, log *logger.Logger, source string) (*Publisher, error) {
	if err := rmq.DeclareExchange(Exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		rmq:    rmq,
		logger: log.WithComponent("publisher"),
		source: source,
	}, nil
}

// Publish publishes an event to the service exchange. The event type is used
// as the routing key.
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	event := NewEvent(eventType, p.source, data)

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.rmq.Channel().PublishWithContext(ctx,
		Exchange,   // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Type:         event.Type,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Msg("event published")

	return nil
}
