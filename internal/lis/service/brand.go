// Package service implements the LIS business logic on top of the
// repository layer. Stock-mutating operations run inside a single
// transaction so the inventory aggregate and the per-location ledger
// never drift apart.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/logger"
)

// BrandService handles brand registry and item code minting
type BrandService struct {
	store  repository.Store
	logger *logger.Logger
}

// NewBrandService creates a new brand service
func NewBrandService(store repository.Store, log *logger.Logger) *BrandService {
	return &BrandService{
		store:  store,
		logger: log,
	}
}

// AddBrand registers a new brand. Names are unique case-insensitively, so
// "Acme" and "acme" are the same brand. The abbreviation is derived from the
// trimmed name: its first and last characters.
func (s *BrandService) AddBrand(ctx context.Context, name string) (*repository.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.BadRequest("brand name must not be empty")
	}

	if existing, err := s.store.GetBrandByName(ctx, name); err == nil {
		return nil, errors.Conflict("brand already exists: " + existing.Name)
	}

	brand := &repository.Brand{
		Name:         name,
		Abbreviation: abbreviate(name),
	}
	if err := s.store.CreateBrand(ctx, brand); err != nil {
		return nil, err
	}

	s.logger.Info().Str("brand", brand.Name).Str("abbreviation", brand.Abbreviation).Msg("brand registered")
	return brand, nil
}

// GetBrand gets a brand by ID
func (s *BrandService) GetBrand(ctx context.Context, id int64) (*repository.Brand, error) {
	return s.store.GetBrand(ctx, id)
}

// ListBrands lists all brands
func (s *BrandService) ListBrands(ctx context.Context) ([]*repository.Brand, error) {
	return s.store.ListBrands(ctx)
}

// UpdateBrand renames a brand. The abbreviation follows the new name;
// already-minted item codes keep the old one.
func (s *BrandService) UpdateBrand(ctx context.Context, id int64, name string) (*repository.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.BadRequest("brand name must not be empty")
	}

	if existing, err := s.store.GetBrandByName(ctx, name); err == nil && existing.ID != id {
		return nil, errors.Conflict("brand already exists: " + existing.Name)
	}

	brand, err := s.store.GetBrand(ctx, id)
	if err != nil {
		return nil, err
	}

	brand.Name = name
	brand.Abbreviation = abbreviate(name)
	if err := s.store.UpdateBrand(ctx, brand); err != nil {
		return nil, err
	}
	return brand, nil
}

// DeleteBrand deletes a brand by ID
func (s *BrandService) DeleteBrand(ctx context.Context, id int64) error {
	return s.store.DeleteBrand(ctx, id)
}

// GenerateItemCode mints the next item code for the named brand. Codes are
// the brand abbreviation followed by a four-digit sequence, starting at 0000
// for a fresh brand. Allocation is atomic, so concurrent intakes never mint
// the same code.
func (s *BrandService) GenerateItemCode(ctx context.Context, brandName string) (string, error) {
	abbreviation, sequence, err := s.store.AllocateBrandSequence(ctx, brandName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", abbreviation, sequence), nil
}

// abbreviate derives a brand abbreviation from its name: first character
// plus last character. Single-character names repeat the character.
func abbreviate(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[0]) + string(runes[len(runes)-1])
}
