package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/biotechlab/lis-backend/pkg/errors"
)

// Customer is a customer contact record. Sales reference customers by name,
// so deleting a customer never touches transaction history.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCustomer inserts a new customer
func (s *SQLStore) CreateCustomer(ctx context.Context, customer *Customer) error {
	query := `
		INSERT INTO customers (name, email, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		customer.Name, customer.Email, customer.Phone, customer.Address,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetCustomer gets a customer by ID
func (s *SQLStore) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var customer Customer
	query := `SELECT * FROM customers WHERE id = $1`
	if err := s.get(ctx, &customer, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("customer")
		}
		return nil, err
	}
	return &customer, nil
}

// ListCustomers lists all customers ordered by name
func (s *SQLStore) ListCustomers(ctx context.Context) ([]*Customer, error) {
	customers := []*Customer{}
	query := `SELECT * FROM customers ORDER BY name`
	if err := s.selectList(ctx, &customers, query); err != nil {
		return nil, err
	}
	return customers, nil
}

// UpdateCustomer updates a customer's contact details
func (s *SQLStore) UpdateCustomer(ctx context.Context, customer *Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, address = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		customer.Name, customer.Email, customer.Phone, customer.Address, customer.ID,
	).Scan(&customer.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("customer")
		}
		return mapError(err)
	}
	return nil
}

// DeleteCustomer deletes a customer by ID
func (s *SQLStore) DeleteCustomer(ctx context.Context, id int64) error {
	result, err := s.ext.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("customer")
	}
	return nil
}
