package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/biotechlab/lis-backend/pkg/errors"
)

// Brand represents a supplier brand. The abbreviation and latest sequence
// together drive item code minting.
type Brand struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Abbreviation   string    `db:"abbreviation" json:"abbreviation"`
	LatestSequence int       `db:"latest_sequence" json:"latest_sequence"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CreateBrand inserts a new brand
func (s *SQLStore) CreateBrand(ctx context.Context, brand *Brand) error {
	query := `
		INSERT INTO brands (name, abbreviation, latest_sequence)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		brand.Name, brand.Abbreviation, brand.LatestSequence,
	).Scan(&brand.ID, &brand.CreatedAt, &brand.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetBrand gets a brand by ID
func (s *SQLStore) GetBrand(ctx context.Context, id int64) (*Brand, error) {
	var brand Brand
	query := `SELECT * FROM brands WHERE id = $1`
	if err := s.get(ctx, &brand, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("brand")
		}
		return nil, err
	}
	return &brand, nil
}

// GetBrandByName gets a brand by name. The match is case-insensitive, so
// "Acme" and "acme" resolve to the same brand.
func (s *SQLStore) GetBrandByName(ctx context.Context, name string) (*Brand, error) {
	var brand Brand
	query := `SELECT * FROM brands WHERE LOWER(name) = LOWER($1)`
	if err := s.get(ctx, &brand, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("brand")
		}
		return nil, err
	}
	return &brand, nil
}

// ListBrands lists all brands ordered by name
func (s *SQLStore) ListBrands(ctx context.Context) ([]*Brand, error) {
	brands := []*Brand{}
	query := `SELECT * FROM brands ORDER BY name`
	if err := s.selectList(ctx, &brands, query); err != nil {
		return nil, err
	}
	return brands, nil
}

// UpdateBrand updates a brand's name and abbreviation. The sequence counter
// is only ever moved by AllocateBrandSequence.
func (s *SQLStore) UpdateBrand(ctx context.Context, brand *Brand) error {
	query := `
		UPDATE brands
		SET name = $1, abbreviation = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`

	err := s.ext.QueryRowxContext(ctx, query,
		brand.Name, brand.Abbreviation, brand.ID,
	).Scan(&brand.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("brand")
		}
		return mapError(err)
	}
	return nil
}

// DeleteBrand deletes a brand by ID
func (s *SQLStore) DeleteBrand(ctx context.Context, id int64) error {
	result, err := s.ext.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("brand")
	}
	return nil
}

// AllocateBrandSequence atomically claims the next sequence number for the
// named brand. The single UPDATE..RETURNING means two concurrent intakes for
// the same brand can never mint the same code: the row lock serializes them
// and each sees its own increment. The returned sequence is the pre-increment
// value, so a fresh brand mints code 0 first.
func (s *SQLStore) AllocateBrandSequence(ctx context.Context, name string) (string, int, error) {
	var (
		abbreviation string
		sequence     int
	)

	query := `
		UPDATE brands
		SET latest_sequence = latest_sequence + 1, updated_at = NOW()
		WHERE LOWER(name) = LOWER($1)
		RETURNING abbreviation, latest_sequence - 1
	`

	err := s.ext.QueryRowxContext(ctx, query, name).Scan(&abbreviation, &sequence)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", 0, errors.NotFound("brand")
		}
		return "", 0, err
	}
	return abbreviation, sequence, nil
}
