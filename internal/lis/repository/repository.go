// Package repository implements PostgreSQL persistence for the LIS backend.
// All stock-mutating flows run through Store.WithTx so the inventory
// aggregate, the per-location ledger, and the intake/sales records move
// together or not at all.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/biotechlab/lis-backend/pkg/database"
)

// Store is the persistence interface the service layer depends on.
// Implementations must guarantee that every method invoked on the Store
// passed to a WithTx callback runs inside that transaction.
type Store interface {
	// Brands
	CreateBrand(ctx context.Context, brand *Brand) error
	GetBrand(ctx context.Context, id int64) (*Brand, error)
	GetBrandByName(ctx context.Context, name string) (*Brand, error)
	ListBrands(ctx context.Context) ([]*Brand, error)
	UpdateBrand(ctx context.Context, brand *Brand) error
	DeleteBrand(ctx context.Context, id int64) error
	AllocateBrandSequence(ctx context.Context, name string) (abbreviation string, sequence int, err error)

	// Locations
	CreateLocation(ctx context.Context, location *Location) error
	GetLocation(ctx context.Context, id int64) (*Location, error)
	GetLocationByName(ctx context.Context, name string) (*Location, error)
	ListLocations(ctx context.Context) ([]*Location, error)
	UpdateLocation(ctx context.Context, location *Location) error
	DeleteLocation(ctx context.Context, id int64) error

	// Inventory aggregate
	CreateInventory(ctx context.Context, item *Inventory) error
	GetInventoryByCode(ctx context.Context, itemCode string) (*Inventory, error)
	ListInventory(ctx context.Context) ([]*Inventory, error)
	UpdateInventoryDetails(ctx context.Context, item *Inventory) error
	SetInventoryQuantity(ctx context.Context, itemCode string, quantity int) error
	DeleteInventory(ctx context.Context, itemCode string) error
	ListLowStock(ctx context.Context, threshold int) ([]*Inventory, error)
	HighestStock(ctx context.Context, limit int) ([]*Inventory, error)
	LowestStock(ctx context.Context, limit int) ([]*Inventory, error)
	ListExpiringBy(ctx context.Context, cutoff time.Time) ([]*Inventory, error)

	// Per-location ledger
	ListItemLocations(ctx context.Context, itemCode string) ([]*ItemLocation, error)
	ReplaceItemLocations(ctx context.Context, itemCode string, entries []*ItemLocation) error
	GetItemLocationForUpdate(ctx context.Context, itemCode string, locationID int64) (*ItemLocation, error)
	UpsertItemLocation(ctx context.Context, itemCode string, locationID int64, delta int) error
	SetItemLocationQuantity(ctx context.Context, id int64, quantity int) error
	SumItemLocations(ctx context.Context, itemCode string) (int, error)

	// Purchase orders
	CreatePurchaseOrder(ctx context.Context, order *PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id int64) (*PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context) ([]*PurchaseOrder, error)
	DeletePurchaseOrder(ctx context.Context, id int64) error

	// Customer transactions
	CreateTransaction(ctx context.Context, txn *CustomerTransaction) error
	CreateSoldItem(ctx context.Context, item *SoldItem) error
	GetTransaction(ctx context.Context, id int64) (*CustomerTransaction, error)
	GetTransactionByInvoice(ctx context.Context, invoiceReference string) (*CustomerTransaction, error)
	ListTransactions(ctx context.Context) ([]*CustomerTransaction, error)
	ListSoldItems(ctx context.Context, transactionID int64) ([]*SoldItem, error)
	DeleteTransaction(ctx context.Context, id int64) error
	SalesStatsBetween(ctx context.Context, from, to time.Time) (*SalesStats, error)

	// Customers
	CreateCustomer(ctx context.Context, customer *Customer) error
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, customer *Customer) error
	DeleteCustomer(ctx context.Context, id int64) error

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// WithTx runs fn inside a database transaction. The Store handed to fn
	// executes against that transaction; a returned error rolls it back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// SQLStore is the sqlx-backed Store implementation.
type SQLStore struct {
	db  *database.DB
	ext sqlx.ExtContext
}

var _ Store = (*SQLStore)(nil)

// NewStore creates a SQLStore on the given database handle.
func NewStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db, ext: db.DB}
}

// WithTx runs fn inside a transaction. The SQLStore passed to fn routes every
// query through the transaction, so nested calls see uncommitted writes and
// row locks taken earlier in the same flow.
func (s *SQLStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(ctx, &SQLStore{db: s.db, ext: tx})
	})
}

func (s *SQLStore) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, s.ext, dest, query, args...)
}

func (s *SQLStore) selectList(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, s.ext, dest, query, args...)
}

// mapError converts driver-level errors into the application taxonomy,
// leaving already-mapped errors alone.
func mapError(err error) error {
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}
