package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/biotechlab/lis-backend/pkg/errors"
)

// PurchaseOrder records one stock intake. Its counterpart inventory item and
// ledger entry are created in the same transaction.
type PurchaseOrder struct {
	ID            int64      `db:"id" json:"id"`
	ItemCode      string     `db:"item_code" json:"item_code"`
	ItemName      string     `db:"item_name" json:"item_name"`
	Brand         string     `db:"brand" json:"brand"`
	Quantity      int        `db:"quantity" json:"quantity"`
	CostPrice     float64    `db:"cost_price" json:"cost_price"`
	RetailPrice   float64    `db:"retail_price" json:"retail_price"`
	PackSize      *string    `db:"pack_size" json:"pack_size,omitempty"`
	ExpiryDate    *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	POPIReference *string    `db:"po_pi_reference" json:"po_pi_reference,omitempty"`
	ReceivedBy    string     `db:"received_by" json:"received_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CreatePurchaseOrder inserts a new purchase order
func (s *SQLStore) CreatePurchaseOrder(ctx context.Context, order *PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (
			item_code, item_name, brand, quantity, cost_price, retail_price,
			pack_size, expiry_date, po_pi_reference, received_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		order.ItemCode, order.ItemName, order.Brand, order.Quantity,
		order.CostPrice, order.RetailPrice, order.PackSize,
		order.ExpiryDate, order.POPIReference, order.ReceivedBy,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetPurchaseOrder gets a purchase order by ID
func (s *SQLStore) GetPurchaseOrder(ctx context.Context, id int64) (*PurchaseOrder, error) {
	var order PurchaseOrder
	query := `SELECT * FROM purchase_orders WHERE id = $1`
	if err := s.get(ctx, &order, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("purchase order")
		}
		return nil, err
	}
	return &order, nil
}

// ListPurchaseOrders lists all purchase orders, newest first
func (s *SQLStore) ListPurchaseOrders(ctx context.Context) ([]*PurchaseOrder, error) {
	orders := []*PurchaseOrder{}
	query := `SELECT * FROM purchase_orders ORDER BY created_at DESC`
	if err := s.selectList(ctx, &orders, query); err != nil {
		return nil, err
	}
	return orders, nil
}

// DeletePurchaseOrder deletes a purchase order by ID
func (s *SQLStore) DeletePurchaseOrder(ctx context.Context, id int64) error {
	result, err := s.ext.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("purchase order")
	}
	return nil
}
