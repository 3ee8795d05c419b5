package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/biotechlab/lis-backend/pkg/errors"
)

// CustomerTransaction is the header of one sale. Its line items live in
// sold_items and are written in the same transaction as the stock deduction.
type CustomerTransaction struct {
	ID               int64     `db:"id" json:"id"`
	InvoiceReference string    `db:"invoice_reference" json:"invoice_reference"`
	CustomerName     string    `db:"customer_name" json:"customer_name"`
	TotalRetailPrice float64   `db:"total_retail_price" json:"total_retail_price"`
	SoldBy           string    `db:"sold_by" json:"sold_by"`
	TransactionDate  time.Time `db:"transaction_date" json:"transaction_date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// SoldItem is one line of a sale: an item quantity taken from one location.
type SoldItem struct {
	ID            int64     `db:"id" json:"id"`
	TransactionID int64     `db:"transaction_id" json:"transaction_id"`
	ItemCode      string    `db:"item_code" json:"item_code"`
	ItemName      string    `db:"item_name" json:"item_name"`
	Brand         string    `db:"brand" json:"brand"`
	LotNumber     *string   `db:"lot_number" json:"lot_number,omitempty"`
	LocationID    int64     `db:"location_id" json:"location_id"`
	Quantity      int       `db:"quantity" json:"quantity"`
	RetailPrice   float64   `db:"retail_price" json:"retail_price"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// SalesStats aggregates sales over a period for the dashboard.
type SalesStats struct {
	TransactionCount int64   `db:"transaction_count" json:"transaction_count"`
	TotalQuantity    int64   `db:"total_quantity" json:"total_quantity"`
	TotalRevenue     float64 `db:"total_revenue" json:"total_revenue"`
}

// CreateTransaction inserts a sale header
func (s *SQLStore) CreateTransaction(ctx context.Context, txn *CustomerTransaction) error {
	query := `
		INSERT INTO customer_transactions (
			invoice_reference, customer_name, total_retail_price, sold_by, transaction_date
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		txn.InvoiceReference, txn.CustomerName, txn.TotalRetailPrice,
		txn.SoldBy, txn.TransactionDate,
	).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// CreateSoldItem inserts one sale line
func (s *SQLStore) CreateSoldItem(ctx context.Context, item *SoldItem) error {
	query := `
		INSERT INTO sold_items (
			transaction_id, item_code, item_name, brand, lot_number,
			location_id, quantity, retail_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		item.TransactionID, item.ItemCode, item.ItemName, item.Brand,
		item.LotNumber, item.LocationID, item.Quantity, item.RetailPrice,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetTransaction gets a sale header by ID
func (s *SQLStore) GetTransaction(ctx context.Context, id int64) (*CustomerTransaction, error) {
	var txn CustomerTransaction
	query := `SELECT * FROM customer_transactions WHERE id = $1`
	if err := s.get(ctx, &txn, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("transaction")
		}
		return nil, err
	}
	return &txn, nil
}

// GetTransactionByInvoice gets a sale header by invoice reference
func (s *SQLStore) GetTransactionByInvoice(ctx context.Context, invoiceReference string) (*CustomerTransaction, error) {
	var txn CustomerTransaction
	query := `SELECT * FROM customer_transactions WHERE invoice_reference = $1`
	if err := s.get(ctx, &txn, query, invoiceReference); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("transaction")
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions lists all sale headers, newest first
func (s *SQLStore) ListTransactions(ctx context.Context) ([]*CustomerTransaction, error) {
	txns := []*CustomerTransaction{}
	query := `SELECT * FROM customer_transactions ORDER BY transaction_date DESC`
	if err := s.selectList(ctx, &txns, query); err != nil {
		return nil, err
	}
	return txns, nil
}

// ListSoldItems lists the lines of one sale
func (s *SQLStore) ListSoldItems(ctx context.Context, transactionID int64) ([]*SoldItem, error) {
	items := []*SoldItem{}
	query := `SELECT * FROM sold_items WHERE transaction_id = $1 ORDER BY id`
	if err := s.selectList(ctx, &items, query, transactionID); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteTransaction deletes a sale header. Lines go with it via the
// sold_items foreign key cascade.
func (s *SQLStore) DeleteTransaction(ctx context.Context, id int64) error {
	result, err := s.ext.ExecContext(ctx, `DELETE FROM customer_transactions WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("transaction")
	}
	return nil
}

// SalesStatsBetween aggregates sales whose transaction date falls in
// [from, to]. Both boundaries are inclusive.
func (s *SQLStore) SalesStatsBetween(ctx context.Context, from, to time.Time) (*SalesStats, error) {
	var stats SalesStats
	query := `
		SELECT
			COUNT(DISTINCT t.id) AS transaction_count,
			COALESCE(SUM(si.quantity), 0) AS total_quantity,
			COALESCE(SUM(si.quantity * si.retail_price), 0) AS total_revenue
		FROM customer_transactions t
		LEFT JOIN sold_items si ON si.transaction_id = t.id
		WHERE t.transaction_date >= $1 AND t.transaction_date <= $2
	`
	if err := s.get(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return &stats, nil
}
