package service

import (
	"context"
	"time"

	"github.com/biotechlab/lis-backend/internal/lis/events"
	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/logger"
	"github.com/biotechlab/lis-backend/pkg/messaging"
)

// PurchaseService handles stock intake via purchase orders. Every order
// mints a fresh item code and creates the counterpart inventory item and
// ledger entry in the same transaction.
type PurchaseService struct {
	store     repository.Store
	publisher *events.Publisher
	logger    *logger.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(store repository.Store, publisher *events.Publisher, log *logger.Logger) *PurchaseService {
	return &PurchaseService{
		store:     store,
		publisher: publisher,
		logger:    log,
	}
}

// CreateOrderInput describes one stock intake.
type CreateOrderInput struct {
	ItemName      string
	Brand         string
	Quantity      int
	CostPrice     float64
	RetailPrice   float64
	PackSize      *string
	ExpiryDate    *time.Time
	POPIReference *string
	LocationID    int64
}

// OrderWithItem is a purchase order together with the inventory item it
// created.
type OrderWithItem struct {
	*repository.PurchaseOrder
	Item *repository.Inventory `json:"item"`
}

// CreateOrder records an intake: mints a code for the brand, writes the
// order, creates the counterpart inventory item, and places the stock. All
// inside one transaction.
func (s *PurchaseService) CreateOrder(ctx context.Context, input CreateOrderInput, by *actor.Actor) (*OrderWithItem, error) {
	if input.Quantity <= 0 {
		return nil, errors.BadRequest("quantity must be positive")
	}

	var (
		order *repository.PurchaseOrder
		item  *repository.Inventory
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetLocation(ctx, input.LocationID); err != nil {
			return err
		}

		itemCode, _, err := mintItemCode(ctx, tx, input.Brand)
		if err != nil {
			return err
		}

		order = &repository.PurchaseOrder{
			ItemCode:      itemCode,
			ItemName:      input.ItemName,
			Brand:         input.Brand,
			Quantity:      input.Quantity,
			CostPrice:     input.CostPrice,
			RetailPrice:   input.RetailPrice,
			PackSize:      input.PackSize,
			ExpiryDate:    input.ExpiryDate,
			POPIReference: input.POPIReference,
			ReceivedBy:    by.FullName(),
		}
		if err := tx.CreatePurchaseOrder(ctx, order); err != nil {
			return err
		}

		item = &repository.Inventory{
			ItemCode:      itemCode,
			ItemName:      input.ItemName,
			Brand:         input.Brand,
			CostPrice:     input.CostPrice,
			RetailPrice:   input.RetailPrice,
			PackSize:      input.PackSize,
			ExpiryDate:    input.ExpiryDate,
			POPIReference: input.POPIReference,
			AddedBy:       by.FullName(),
		}
		if err := tx.CreateInventory(ctx, item); err != nil {
			return err
		}

		if err := tx.UpsertItemLocation(ctx, itemCode, input.LocationID, input.Quantity); err != nil {
			return err
		}

		total, err := syncQuantity(ctx, tx, itemCode)
		if err != nil {
			return err
		}
		item.Quantity = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishPurchaseRecorded(ctx, messaging.PurchaseRecordedData{
		ItemCode:   order.ItemCode,
		ItemName:   order.ItemName,
		Quantity:   order.Quantity,
		ReceivedBy: order.ReceivedBy,
	})
	s.publisher.PublishItemCreated(ctx, item.ItemCode, item.ItemName)
	s.logger.Info().
		Str("item_code", order.ItemCode).
		Int("quantity", order.Quantity).
		Str("received_by", order.ReceivedBy).
		Msg("purchase order recorded")

	return &OrderWithItem{PurchaseOrder: order, Item: item}, nil
}

// GetOrder gets a purchase order by ID
func (s *PurchaseService) GetOrder(ctx context.Context, id int64) (*repository.PurchaseOrder, error) {
	return s.store.GetPurchaseOrder(ctx, id)
}

// ListOrders lists all purchase orders
func (s *PurchaseService) ListOrders(ctx context.Context) ([]*repository.PurchaseOrder, error) {
	return s.store.ListPurchaseOrders(ctx)
}

// DeleteOrder reverses an intake: the order and its counterpart inventory
// item (with its ledger) are removed together.
func (s *PurchaseService) DeleteOrder(ctx context.Context, id int64) error {
	var order *repository.PurchaseOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		order, err = tx.GetPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.DeletePurchaseOrder(ctx, id); err != nil {
			return err
		}

		// The counterpart item may already have been removed on its own.
		if err := tx.DeleteInventory(ctx, order.ItemCode); err != nil && !isNotFound(err) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.PublishPurchaseReversed(ctx, messaging.PurchaseRecordedData{
		ItemCode:   order.ItemCode,
		ItemName:   order.ItemName,
		Quantity:   order.Quantity,
		ReceivedBy: order.ReceivedBy,
	})
	s.logger.Info().Str("item_code", order.ItemCode).Msg("purchase order reversed")
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, errors.ErrNotFound)
}
