package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/biotechlab/lis-backend/pkg/errors"
)

// Location represents a physical storage location (shelf, fridge, cabinet).
type Location struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateLocation inserts a new location
func (s *SQLStore) CreateLocation(ctx context.Context, location *Location) error {
	query := `
		INSERT INTO locations (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query, location.Name).
		Scan(&location.ID, &location.CreatedAt, &location.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetLocation gets a location by ID
func (s *SQLStore) GetLocation(ctx context.Context, id int64) (*Location, error) {
	var location Location
	query := `SELECT * FROM locations WHERE id = $1`
	if err := s.get(ctx, &location, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("location")
		}
		return nil, err
	}
	return &location, nil
}

// GetLocationByName gets a location by name, case-insensitively
func (s *SQLStore) GetLocationByName(ctx context.Context, name string) (*Location, error) {
	var location Location
	query := `SELECT * FROM locations WHERE LOWER(name) = LOWER($1)`
	if err := s.get(ctx, &location, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("location")
		}
		return nil, err
	}
	return &location, nil
}

// ListLocations lists all locations ordered by name
func (s *SQLStore) ListLocations(ctx context.Context) ([]*Location, error) {
	locations := []*Location{}
	query := `SELECT * FROM locations ORDER BY name`
	if err := s.selectList(ctx, &locations, query); err != nil {
		return nil, err
	}
	return locations, nil
}

// UpdateLocation renames a location
func (s *SQLStore) UpdateLocation(ctx context.Context, location *Location) error {
	query := `
		UPDATE locations
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query, location.Name, location.ID).
		Scan(&location.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("location")
		}
		return mapError(err)
	}
	return nil
}

// DeleteLocation deletes a location by ID
func (s *SQLStore) DeleteLocation(ctx context.Context, id int64) error {
	result, err := s.ext.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("location")
	}
	return nil
}
