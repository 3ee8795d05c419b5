package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/biotechlab/lis-backend/pkg/errors"
)

// Inventory is the per-item stock aggregate. Quantity is derived: inside
// every mutating transaction it is re-set to the sum of the item's ledger
// entries, never adjusted independently.
type Inventory struct {
	ID            int64      `db:"id" json:"id"`
	ItemCode      string     `db:"item_code" json:"item_code"`
	ItemName      string     `db:"item_name" json:"item_name"`
	Brand         string     `db:"brand" json:"brand"`
	Quantity      int        `db:"quantity" json:"quantity"`
	CostPrice     float64    `db:"cost_price" json:"cost_price"`
	RetailPrice   float64    `db:"retail_price" json:"retail_price"`
	LotNumber     *string    `db:"lot_number" json:"lot_number,omitempty"`
	PackSize      *string    `db:"pack_size" json:"pack_size,omitempty"`
	ExpiryDate    *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	Note          *string    `db:"note" json:"note,omitempty"`
	POPIReference *string    `db:"po_pi_reference" json:"po_pi_reference,omitempty"`
	InvoiceNumber *string    `db:"invoice_number" json:"invoice_number,omitempty"`
	AddedBy       string     `db:"added_by" json:"added_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ItemLocation is one ledger entry: how many units of an item sit at a
// location. An item has at most one entry per location.
type ItemLocation struct {
	ID         int64     `db:"id" json:"id"`
	ItemCode   string    `db:"item_code" json:"item_code"`
	LocationID int64     `db:"location_id" json:"location_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CreateInventory inserts a new inventory item
func (s *SQLStore) CreateInventory(ctx context.Context, item *Inventory) error {
	query := `
		INSERT INTO inventory (
			item_code, item_name, brand, quantity, cost_price, retail_price,
			lot_number, pack_size, expiry_date, note, po_pi_reference,
			invoice_number, added_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		item.ItemCode, item.ItemName, item.Brand, item.Quantity,
		item.CostPrice, item.RetailPrice, item.LotNumber, item.PackSize,
		item.ExpiryDate, item.Note, item.POPIReference, item.InvoiceNumber,
		item.AddedBy,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetInventoryByCode gets an inventory item by its item code
func (s *SQLStore) GetInventoryByCode(ctx context.Context, itemCode string) (*Inventory, error) {
	var item Inventory
	query := `SELECT * FROM inventory WHERE item_code = $1`
	if err := s.get(ctx, &item, query, itemCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("inventory item")
		}
		return nil, err
	}
	return &item, nil
}

// ListInventory lists all inventory items ordered by item name
func (s *SQLStore) ListInventory(ctx context.Context) ([]*Inventory, error) {
	items := []*Inventory{}
	query := `SELECT * FROM inventory ORDER BY item_name`
	if err := s.selectList(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateInventoryDetails updates descriptive fields of an item. Quantity is
// deliberately excluded; it only moves via SetInventoryQuantity.
func (s *SQLStore) UpdateInventoryDetails(ctx context.Context, item *Inventory) error {
	query := `
		UPDATE inventory
		SET item_name = $1, brand = $2, cost_price = $3, retail_price = $4,
		    lot_number = $5, pack_size = $6, expiry_date = $7, note = $8,
		    po_pi_reference = $9, invoice_number = $10, updated_at = NOW()
		WHERE item_code = $11
		RETURNING updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		item.ItemName, item.Brand, item.CostPrice, item.RetailPrice,
		item.LotNumber, item.PackSize, item.ExpiryDate, item.Note,
		item.POPIReference, item.InvoiceNumber, item.ItemCode,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("inventory item")
		}
		return mapError(err)
	}
	return nil
}

// SetInventoryQuantity re-syncs the aggregate quantity to the given value,
// which callers compute from the ledger inside the same transaction.
func (s *SQLStore) SetInventoryQuantity(ctx context.Context, itemCode string, quantity int) error {
	result, err := s.ext.ExecContext(ctx,
		`UPDATE inventory SET quantity = $1, updated_at = NOW() WHERE item_code = $2`,
		quantity, itemCode,
	)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("inventory item")
	}
	return nil
}

// DeleteInventory deletes an item. Ledger entries go with it via the
// item_locations foreign key cascade.
func (s *SQLStore) DeleteInventory(ctx context.Context, itemCode string) error {
	result, err := s.ext.ExecContext(ctx, `DELETE FROM inventory WHERE item_code = $1`, itemCode)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("inventory item")
	}
	return nil
}

// ListLowStock lists items at or below the given quantity threshold
func (s *SQLStore) ListLowStock(ctx context.Context, threshold int) ([]*Inventory, error) {
	items := []*Inventory{}
	query := `SELECT * FROM inventory WHERE quantity <= $1 ORDER BY quantity ASC, item_name`
	if err := s.selectList(ctx, &items, query, threshold); err != nil {
		return nil, err
	}
	return items, nil
}

// HighestStock lists the items with the most stock
func (s *SQLStore) HighestStock(ctx context.Context, limit int) ([]*Inventory, error) {
	items := []*Inventory{}
	query := `SELECT * FROM inventory ORDER BY quantity DESC, item_name LIMIT $1`
	if err := s.selectList(ctx, &items, query, limit); err != nil {
		return nil, err
	}
	return items, nil
}

// LowestStock lists the items with the least stock
func (s *SQLStore) LowestStock(ctx context.Context, limit int) ([]*Inventory, error) {
	items := []*Inventory{}
	query := `SELECT * FROM inventory ORDER BY quantity ASC, item_name LIMIT $1`
	if err := s.selectList(ctx, &items, query, limit); err != nil {
		return nil, err
	}
	return items, nil
}

// ListExpiringBy lists items whose expiry date falls on or before the cutoff
// date. Items without an expiry date are skipped.
func (s *SQLStore) ListExpiringBy(ctx context.Context, cutoff time.Time) ([]*Inventory, error) {
	items := []*Inventory{}
	query := `
		SELECT * FROM inventory
		WHERE expiry_date IS NOT NULL AND expiry_date <= $1
		ORDER BY expiry_date ASC
	`
	if err := s.selectList(ctx, &items, query, cutoff); err != nil {
		return nil, err
	}
	return items, nil
}

// ListItemLocations lists the ledger entries for an item
func (s *SQLStore) ListItemLocations(ctx context.Context, itemCode string) ([]*ItemLocation, error) {
	entries := []*ItemLocation{}
	query := `SELECT * FROM item_locations WHERE item_code = $1 ORDER BY location_id`
	if err := s.selectList(ctx, &entries, query, itemCode); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceItemLocations swaps an item's ledger for the given entries. Callers
// run this inside a transaction and re-sync the aggregate afterwards.
func (s *SQLStore) ReplaceItemLocations(ctx context.Context, itemCode string, entries []*ItemLocation) error {
	if _, err := s.ext.ExecContext(ctx, `DELETE FROM item_locations WHERE item_code = $1`, itemCode); err != nil {
		return mapError(err)
	}

	query := `
		INSERT INTO item_locations (item_code, location_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	for _, entry := range entries {
		entry.ItemCode = itemCode
		err := s.ext.QueryRowxContext(ctx, query,
			itemCode, entry.LocationID, entry.Quantity,
		).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

// GetItemLocationForUpdate fetches a ledger entry with a row lock, so two
// concurrent deductions against the same item and location serialize.
func (s *SQLStore) GetItemLocationForUpdate(ctx context.Context, itemCode string, locationID int64) (*ItemLocation, error) {
	var entry ItemLocation
	query := `SELECT * FROM item_locations WHERE item_code = $1 AND location_id = $2 FOR UPDATE`
	if err := s.get(ctx, &entry, query, itemCode, locationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("stock at location")
		}
		return nil, err
	}
	return &entry, nil
}

// UpsertItemLocation adds delta units of an item at a location, creating the
// ledger entry when it does not exist yet.
func (s *SQLStore) UpsertItemLocation(ctx context.Context, itemCode string, locationID int64, delta int) error {
	query := `
		INSERT INTO item_locations (item_code, location_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_code, location_id)
		DO UPDATE SET quantity = item_locations.quantity + $3, updated_at = NOW()
	`

	if _, err := s.ext.ExecContext(ctx, query, itemCode, locationID, delta); err != nil {
		return mapError(err)
	}
	return nil
}

// SetItemLocationQuantity sets a ledger entry's quantity by primary key
func (s *SQLStore) SetItemLocationQuantity(ctx context.Context, id int64, quantity int) error {
	result, err := s.ext.ExecContext(ctx,
		`UPDATE item_locations SET quantity = $1, updated_at = NOW() WHERE id = $2`,
		quantity, id,
	)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("stock at location")
	}
	return nil
}

// SumItemLocations returns the total units of an item across all locations
func (s *SQLStore) SumItemLocations(ctx context.Context, itemCode string) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM item_locations WHERE item_code = $1`
	if err := s.get(ctx, &total, query, itemCode); err != nil {
		return 0, err
	}
	return total, nil
}
