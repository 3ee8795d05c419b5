// Package events publishes LIS domain events to the message broker.
// Publishing is best-effort: a broker failure is logged and never fails
// the database transaction that already committed.
package events

import (
	"context"

	"github.com/biotechlab/lis-backend/pkg/logger"
	"github.com/biotechlab/lis-backend/pkg/messaging"
)

// Backend is the transport events are published through.
type Backend interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Publisher publishes stock and sales events
type Publisher struct {
	backend Backend
	logger  *logger.Logger
}

// NewPublisher creates a publisher on a RabbitMQ connection
func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	backend, err := messaging.NewPublisher(rmq, log, "lis-service")
	if err != nil {
		return nil, err
	}

	return &Publisher{
		backend: backend,
		logger:  log,
	}, nil
}

// NewPublisherWithBackend creates a publisher on an arbitrary backend.
// Tests use this with an in-memory recorder.
func NewPublisherWithBackend(backend Backend, log *logger.Logger) *Publisher {
	return &Publisher{
		backend: backend,
		logger:  log,
	}
}

// PublishStockAdjusted publishes a stock adjusted event
func (p *Publisher) PublishStockAdjusted(ctx context.Context, data messaging.StockAdjustedData) {
	if p == nil {
		return
	}
	if err := p.backend.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Str("item_code", data.ItemCode).Msg("failed to publish stock adjusted event")
	}
}

// PublishLowStock publishes a low stock alert event
func (p *Publisher) PublishLowStock(ctx context.Context, data messaging.LowStockData) {
	if p == nil {
		return
	}
	if err := p.backend.Publish(ctx, messaging.EventLowStock, data); err != nil {
		p.logger.Error().Err(err).Str("item_code", data.ItemCode).Msg("failed to publish low stock event")
	}
}

// PublishSaleRecorded publishes a sale recorded event
func (p *Publisher) PublishSaleRecorded(ctx context.Context, data messaging.SaleRecordedData) {
	if p == nil {
		return
	}
	if err := p.backend.Publish(ctx, messaging.EventSaleRecorded, data); err != nil {
		p.logger.Error().Err(err).Str("invoice_reference", data.InvoiceReference).Msg("failed to publish sale recorded event")
	}
}

// PublishSaleReversed publishes a sale reversed event
func (p *Publisher) PublishSaleReversed(ctx context.Context, data messaging.SaleRecordedData) {
	if p == nil {
		return
	}
	if err := p.backend.Publish(ctx, messaging.EventSaleReversed, data); err != nil {
		p.logger.Error().Err(err).Str("invoice_reference", data.InvoiceReference).Msg("failed to publish sale reversed event")
	}
}

// PublishPurchaseRecorded publishes a purchase order recorded event
func (p *Publisher) PublishPurchaseRecorded(ctx context.Context, data messaging.PurchaseRecordedData) {
	if p == nil {
		return
	}
	if err := p.backend.Publish(ctx, messaging.EventPurchaseRecorded, data); err != nil {
		p.logger.Error().Err(err).Str("item_code", data.ItemCode).Msg("failed to publish purchase recorded event")
	}
}

// PublishPurchaseReversed publishes a purchase order reversed event
func (p *Publisher) PublishPurchaseReversed(ctx context.Context, data messaging.PurchaseRecordedData) {
	if p == nil {
		return
	}
	if err := p.backend.Publish(ctx, messaging.EventPurchaseReversed, data); err != nil {
		p.logger.Error().Err(err).Str("item_code", data.ItemCode).Msg("failed to publish purchase reversed event")
	}
}

// PublishItemCreated publishes an inventory item created event
func (p *Publisher) PublishItemCreated(ctx context.Context, itemCode, itemName string) {
	if p == nil {
		return
	}
	data := map[string]string{"item_code": itemCode, "item_name": itemName}
	if err := p.backend.Publish(ctx, messaging.EventItemCreated, data); err != nil {
		p.logger.Error().Err(err).Str("item_code", itemCode).Msg("failed to publish item created event")
	}
}

// PublishItemDeleted publishes an inventory item deleted event
func (p *Publisher) PublishItemDeleted(ctx context.Context, itemCode string) {
	if p == nil {
		return
	}
	data := map[string]string{"item_code": itemCode}
	if err := p.backend.Publish(ctx, messaging.EventItemDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("item_code", itemCode).Msg("failed to publish item deleted event")
	}
}

// PublishUserRegistered publishes a user registered event
func (p *Publisher) PublishUserRegistered(ctx context.Context, email string) {
	if p == nil {
		return
	}
	data := map[string]string{"email": email}
	if err := p.backend.Publish(ctx, messaging.EventUserRegistered, data); err != nil {
		p.logger.Error().Err(err).Str("email", email).Msg("failed to publish user registered event")
	}
}
