package service

import (
	"context"
	"fmt"
	"time"

	"github.com/biotechlab/lis-backend/internal/lis/events"
	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/logger"
	"github.com/biotechlab/lis-backend/pkg/messaging"
)

// InventoryService handles the inventory aggregate and its per-location
// ledger.
type InventoryService struct {
	store             repository.Store
	publisher         *events.Publisher
	logger            *logger.Logger
	lowStockThreshold int
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	store repository.Store,
	publisher *events.Publisher,
	log *logger.Logger,
	lowStockThreshold int,
) *InventoryService {
	return &InventoryService{
		store:             store,
		publisher:         publisher,
		logger:            log,
		lowStockThreshold: lowStockThreshold,
	}
}

// LocationQuantity is one requested placement of stock at a location.
type LocationQuantity struct {
	LocationID int64 `json:"location_id"`
	Quantity   int   `json:"quantity"`
}

// CreateItemInput describes a new inventory item and where its stock sits.
type CreateItemInput struct {
	ItemName      string
	Brand         string
	CostPrice     float64
	RetailPrice   float64
	LotNumber     *string
	PackSize      *string
	ExpiryDate    *time.Time
	Note          *string
	POPIReference *string
	InvoiceNumber *string
	Locations     []LocationQuantity
}

// UpdateItemInput updates an item's details and, when Locations is non-nil,
// replaces its entire ledger.
type UpdateItemInput struct {
	ItemName      string
	Brand         string
	CostPrice     float64
	RetailPrice   float64
	LotNumber     *string
	PackSize      *string
	ExpiryDate    *time.Time
	Note          *string
	POPIReference *string
	InvoiceNumber *string
	Locations     []LocationQuantity
}

// LocationStock is one ledger entry enriched with the location name.
type LocationStock struct {
	LocationID   int64  `json:"location_id"`
	LocationName string `json:"location_name"`
	Quantity     int    `json:"quantity"`
}

// ItemWithLocations is an inventory item with its per-location breakdown.
type ItemWithLocations struct {
	*repository.Inventory
	Locations []LocationStock `json:"locations"`
}

// CreateItem mints a code for the item, records it, and places its stock.
// Everything happens in one transaction: either the item exists with its
// full ledger, or nothing does.
func (s *InventoryService) CreateItem(ctx context.Context, input CreateItemInput, by *actor.Actor) (*ItemWithLocations, error) {
	if err := validateLocationQuantities(input.Locations); err != nil {
		return nil, err
	}

	var item *repository.Inventory
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		itemCode, _, err := mintItemCode(ctx, tx, input.Brand)
		if err != nil {
			return err
		}

		for _, lq := range input.Locations {
			if _, err := tx.GetLocation(ctx, lq.LocationID); err != nil {
				return err
			}
		}

		item = &repository.Inventory{
			ItemCode:      itemCode,
			ItemName:      input.ItemName,
			Brand:         input.Brand,
			CostPrice:     input.CostPrice,
			RetailPrice:   input.RetailPrice,
			LotNumber:     input.LotNumber,
			PackSize:      input.PackSize,
			ExpiryDate:    input.ExpiryDate,
			Note:          input.Note,
			POPIReference: input.POPIReference,
			InvoiceNumber: input.InvoiceNumber,
			AddedBy:       by.FullName(),
		}
		if err := tx.CreateInventory(ctx, item); err != nil {
			return err
		}

		entries := toLedgerEntries(input.Locations)
		if err := tx.ReplaceItemLocations(ctx, item.ItemCode, entries); err != nil {
			return err
		}

		total, err := syncQuantity(ctx, tx, item.ItemCode)
		if err != nil {
			return err
		}
		item.Quantity = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishItemCreated(ctx, item.ItemCode, item.ItemName)
	s.logger.Info().Str("item_code", item.ItemCode).Str("added_by", item.AddedBy).Msg("inventory item created")

	return s.withLocations(ctx, item)
}

// GetItem gets an item with its per-location breakdown
func (s *InventoryService) GetItem(ctx context.Context, itemCode string) (*ItemWithLocations, error) {
	item, err := s.store.GetInventoryByCode(ctx, itemCode)
	if err != nil {
		return nil, err
	}
	return s.withLocations(ctx, item)
}

// ListItems lists all items with their per-location breakdowns
func (s *InventoryService) ListItems(ctx context.Context) ([]*ItemWithLocations, error) {
	items, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	locationNames, err := s.locationNames(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*ItemWithLocations, len(items))
	for i, item := range items {
		entries, err := s.store.ListItemLocations(ctx, item.ItemCode)
		if err != nil {
			return nil, err
		}
		result[i] = enrich(item, entries, locationNames)
	}
	return result, nil
}

// UpdateItem updates an item's details. When the input carries locations the
// whole ledger is replaced by them and the aggregate re-derived; entries not
// listed are dropped.
func (s *InventoryService) UpdateItem(ctx context.Context, itemCode string, input UpdateItemInput, by *actor.Actor) (*ItemWithLocations, error) {
	if input.Locations != nil {
		if err := validateLocationQuantities(input.Locations); err != nil {
			return nil, err
		}
	}

	var (
		item     *repository.Inventory
		oldTotal int
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		item, err = tx.GetInventoryByCode(ctx, itemCode)
		if err != nil {
			return err
		}
		oldTotal = item.Quantity

		item.ItemName = input.ItemName
		item.Brand = input.Brand
		item.CostPrice = input.CostPrice
		item.RetailPrice = input.RetailPrice
		item.LotNumber = input.LotNumber
		item.PackSize = input.PackSize
		item.ExpiryDate = input.ExpiryDate
		item.Note = input.Note
		item.POPIReference = input.POPIReference
		item.InvoiceNumber = input.InvoiceNumber
		if err := tx.UpdateInventoryDetails(ctx, item); err != nil {
			return err
		}

		if input.Locations == nil {
			return nil
		}

		for _, lq := range input.Locations {
			if _, err := tx.GetLocation(ctx, lq.LocationID); err != nil {
				return err
			}
		}

		if err := tx.ReplaceItemLocations(ctx, itemCode, toLedgerEntries(input.Locations)); err != nil {
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

	if input.Locations != nil && item.Quantity != oldTotal {
		s.publisher.PublishStockAdjusted(ctx, messaging.StockAdjustedData{
			ItemCode:    item.ItemCode,
			ItemName:    item.ItemName,
			Delta:       item.Quantity - oldTotal,
			NewTotal:    item.Quantity,
			Reason:      "manual_adjustment",
			PerformedBy: by.FullName(),
		})
		s.notifyIfLow(ctx, item)
	}

	return s.withLocations(ctx, item)
}

// DeleteItem removes an item and its ledger
func (s *InventoryService) DeleteItem(ctx context.Context, itemCode string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.DeleteInventory(ctx, itemCode)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishItemDeleted(ctx, itemCode)
	s.logger.Info().Str("item_code", itemCode).Msg("inventory item deleted")
	return nil
}

// StockAlerts lists items at or below the configured low-stock threshold
func (s *InventoryService) StockAlerts(ctx context.Context) ([]*repository.Inventory, error) {
	return s.store.ListLowStock(ctx, s.lowStockThreshold)
}

// HighestStock lists the items with the most units on hand
func (s *InventoryService) HighestStock(ctx context.Context, limit int) ([]*repository.Inventory, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.store.HighestStock(ctx, limit)
}

// LowestStock lists the items with the fewest units on hand
func (s *InventoryService) LowestStock(ctx context.Context, limit int) ([]*repository.Inventory, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.store.LowestStock(ctx, limit)
}

// ExpiringStock lists items expiring within the given number of days. The
// cutoff is a whole date: an item expiring exactly N days from today counts,
// regardless of the current time of day.
func (s *InventoryService) ExpiringStock(ctx context.Context, withinDays int) ([]*repository.Inventory, error) {
	if withinDays <= 0 {
		withinDays = 30
	}
	year, month, day := time.Now().UTC().Date()
	cutoff := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, withinDays)
	return s.store.ListExpiringBy(ctx, cutoff)
}

func (s *InventoryService) withLocations(ctx context.Context, item *repository.Inventory) (*ItemWithLocations, error) {
	entries, err := s.store.ListItemLocations(ctx, item.ItemCode)
	if err != nil {
		return nil, err
	}
	locationNames, err := s.locationNames(ctx)
	if err != nil {
		return nil, err
	}
	return enrich(item, entries, locationNames), nil
}

func (s *InventoryService) locationNames(ctx context.Context) (map[int64]string, error) {
	locations, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(locations))
	for _, l := range locations {
		names[l.ID] = l.Name
	}
	return names, nil
}

func (s *InventoryService) notifyIfLow(ctx context.Context, item *repository.Inventory) {
	if item.Quantity > s.lowStockThreshold {
		return
	}
	s.publisher.PublishLowStock(ctx, messaging.LowStockData{
		ItemCode:  item.ItemCode,
		ItemName:  item.ItemName,
		Quantity:  item.Quantity,
		Threshold: s.lowStockThreshold,
	})
}

func enrich(item *repository.Inventory, entries []*repository.ItemLocation, names map[int64]string) *ItemWithLocations {
	locations := make([]LocationStock, len(entries))
	for i, e := range entries {
		locations[i] = LocationStock{
			LocationID:   e.LocationID,
			LocationName: names[e.LocationID],
			Quantity:     e.Quantity,
		}
	}
	return &ItemWithLocations{Inventory: item, Locations: locations}
}

func toLedgerEntries(lqs []LocationQuantity) []*repository.ItemLocation {
	entries := make([]*repository.ItemLocation, len(lqs))
	for i, lq := range lqs {
		entries[i] = &repository.ItemLocation{
			LocationID: lq.LocationID,
			Quantity:   lq.Quantity,
		}
	}
	return entries
}

func validateLocationQuantities(lqs []LocationQuantity) error {
	if len(lqs) == 0 {
		return errors.BadRequest("at least one location is required")
	}
	seen := make(map[int64]bool, len(lqs))
	for _, lq := range lqs {
		if lq.Quantity < 0 {
			return errors.BadRequest("location quantity must not be negative")
		}
		if seen[lq.LocationID] {
			return errors.BadRequest("duplicate location in request")
		}
		seen[lq.LocationID] = true
	}
	return nil
}

// mintItemCode allocates the next sequence for the brand and formats the
// item code: abbreviation plus four-digit sequence.
func mintItemCode(ctx context.Context, tx repository.Store, brandName string) (string, int, error) {
	abbreviation, sequence, err := tx.AllocateBrandSequence(ctx, brandName)
	if err != nil {
		return "", 0, err
	}
	return fmt.Sprintf("%s%04d", abbreviation, sequence), sequence, nil
}
