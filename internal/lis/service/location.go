package service

import (
	"context"
	"strings"

	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/logger"
)

// LocationService handles the storage location registry
type LocationService struct {
	store  repository.Store
	logger *logger.Logger
}

// NewLocationService creates a new location service
func NewLocationService(store repository.Store, log *logger.Logger) *LocationService {
	return &LocationService{
		store:  store,
		logger: log,
	}
}

// AddLocation registers a new storage location. Names are unique
// case-insensitively, so "Fridge A" and "fridge a" are the same place.
func (s *LocationService) AddLocation(ctx context.Context, name string) (*repository.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.BadRequest("location name must not be empty")
	}

	if existing, err := s.store.GetLocationByName(ctx, name); err == nil {
		return nil, errors.Conflict("location already exists: " + existing.Name)
	}

	location := &repository.Location{Name: name}
	if err := s.store.CreateLocation(ctx, location); err != nil {
		return nil, err
	}

	s.logger.Info().Str("location", location.Name).Msg("location registered")
	return location, nil
}

// GetLocation gets a location by ID
func (s *LocationService) GetLocation(ctx context.Context, id int64) (*repository.Location, error) {
	return s.store.GetLocation(ctx, id)
}

// ListLocations lists all locations
func (s *LocationService) ListLocations(ctx context.Context) ([]*repository.Location, error) {
	return s.store.ListLocations(ctx)
}

// UpdateLocation renames a location
func (s *LocationService) UpdateLocation(ctx context.Context, id int64, name string) (*repository.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.BadRequest("location name must not be empty")
	}

	if existing, err := s.store.GetLocationByName(ctx, name); err == nil && existing.ID != id {
		return nil, errors.Conflict("location already exists: " + existing.Name)
	}

	location, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}

	location.Name = name
	if err := s.store.UpdateLocation(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// DeleteLocation deletes a location. Locations still holding stock cannot be
// removed; the ledger's foreign key surfaces that as a bad request.
func (s *LocationService) DeleteLocation(ctx context.Context, id int64) error {
	return s.store.DeleteLocation(ctx, id)
}
