package service

import (
	"context"
	"strings"

	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/logger"
)

// CustomerService handles the customer contact registry
type CustomerService struct {
	store  repository.Store
	logger *logger.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store repository.Store, log *logger.Logger) *CustomerService {
	return &CustomerService{
		store:  store,
		logger: log,
	}
}

// CustomerInput describes a customer's contact details.
type CustomerInput struct {
	Name    string
	Email   *string
	Phone   *string
	Address *string
}

// AddCustomer registers a new customer
func (s *CustomerService) AddCustomer(ctx context.Context, input CustomerInput) (*repository.Customer, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, errors.BadRequest("customer name must not be empty")
	}

	customer := &repository.Customer{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer gets a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*repository.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// ListCustomers lists all customers
func (s *CustomerService) ListCustomers(ctx context.Context) ([]*repository.Customer, error) {
	return s.store.ListCustomers(ctx)
}

// UpdateCustomer updates a customer's contact details
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, input CustomerInput) (*repository.Customer, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, errors.BadRequest("customer name must not be empty")
	}

	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.Address = input.Address
	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer deletes a customer. Past sales reference customers by name
// and stay untouched.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	return s.store.DeleteCustomer(ctx, id)
}
