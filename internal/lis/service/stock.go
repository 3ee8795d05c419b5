package service

import (
	"context"

	"github.com/biotechlab/lis-backend/internal/lis/repository"
)

// syncQuantity re-derives an item's aggregate quantity from its ledger and
// writes it back. Must run inside the same transaction as the ledger change.
func syncQuantity(ctx context.Context, tx repository.Store, itemCode string) (int, error) {
	total, err := tx.SumItemLocations(ctx, itemCode)
	if err != nil {
		return 0, err
	}
	if err := tx.SetInventoryQuantity(ctx, itemCode, total); err != nil {
		return 0, err
	}
	return total, nil
}
