package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biotechlab/lis-backend/internal/lis/service"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/messaging"
)

func newTransactionService(env *testEnv) *service.TransactionService {
	return service.NewTransactionService(env.store, env.publisher, env.log, lowStockThreshold)
}

func TestCreateSale(t *testing.T) {
	env := newTestEnv()
	inv := newInventoryService(env)
	svc := newTransactionService(env)
	ctx := context.Background()

	seedBrand(t, env, "Bioxene", "Be")
	locA := seedLocation(t, env, "Shelf A")
	locB := seedLocation(t, env, "Shelf B")
	item := seedItem(t, env, inv, "Bioxene", []service.LocationQuantity{
		{LocationID: locA.ID, Quantity: 60},
		{LocationID: locB.ID, Quantity: 40},
	})

	sale, err := svc.CreateSale(ctx, service.CreateSaleInput{
		InvoiceReference: "INV-001",
		CustomerName:     "Acme Labs",
		Lines: []service.SaleLine{
			{ItemCode: item.ItemCode, LocationID: locA.ID, Quantity: 15},
		},
	}, env.by)
	require.NoError(t, err)

	assert.Equal(t, "INV-001", sale.InvoiceReference)
	assert.Equal(t, "Jane Doe", sale.SoldBy)
	assert.InDelta(t, 150.0, sale.TotalRetailPrice, 0.001)
	require.Len(t, sale.Lines, 1)
	assert.Equal(t, 15, sale.Lines[0].Quantity)

	// 60 at A minus 15 sold, plus the untouched 40 at B.
	after, err := env.store.GetInventoryByCode(ctx, item.ItemCode)
	require.NoError(t, err)
	assert.Equal(t, 85, after.Quantity)

	entry, err := env.store.GetItemLocationForUpdate(ctx, item.ItemCode, locA.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, entry.Quantity)

	env.published.AssertEventPublished(t, messaging.EventSaleRecorded)
	env.published.AssertEventPublished(t, messaging.EventStockAdjusted)
}

func TestCreateSale_InsufficientStockRollsBackAllLines(t *testing.T) {
	env := newTestEnv()
	inv := newInventoryService(env)
	svc := newTransactionService(env)
	ctx := context.Background()

	seedBrand(t, env, "Bioxene", "Be")
	locA := seedLocation(t, env, "Shelf A")
	locB := seedLocation(t, env, "Shelf B")
	item := seedItem(t, env, inv, "Bioxene", []service.LocationQuantity{
		{LocationID: locA.ID, Quantity: 60},
		{LocationID: locB.ID, Quantity: 40},
	})
	env.published.Reset()

	_, err := svc.CreateSale(ctx, service.CreateSaleInput{
		InvoiceReference: "INV-002",
		CustomerName:     "Acme Labs",
		Lines: []service.SaleLine{
			{ItemCode: item.ItemCode, LocationID: locA.ID, Quantity: 10},
			{ItemCode: item.ItemCode, LocationID: locB.ID, Quantity: 41},
		},
	}, env.by)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	assert.Equal(t, "41", appErr.Details["requested"])
	assert.Equal(t, "40", appErr.Details["available"])

	// The first line's deduction was rolled back with the rest.
	after, err := env.store.GetInventoryByCode(ctx, item.ItemCode)
	require.NoError(t, err)
	assert.Equal(t, 100, after.Quantity)

	entryA, err := env.store.GetItemLocationForUpdate(ctx, item.ItemCode, locA.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, entryA.Quantity)

	sales, err := svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
	env.published.AssertNoEventsPublished(t)
}

func TestCreateSale_DuplicateInvoice(t *testing.T) {
	env := newTestEnv()
	inv := newInventoryService(env)
	svc := newTransactionService(env)
	ctx := context.Background()

	seedBrand(t, env, "Bioxene", "Be")
	loc := seedLocation(t, env, "Shelf A")
	item := seedItem(t, env, inv, "Bioxene", []service.LocationQuantity{{LocationID: loc.ID, Quantity: 100}})

	lines := []service.SaleLine{{ItemCode: item.ItemCode, LocationID: loc.ID, Quantity: 5}}

	_, err := svc.CreateSale(ctx, service.CreateSaleInput{
		InvoiceReference: "INV-003", CustomerName: "Acme Labs", Lines: lines,
	}, env.by)
	require.NoError(t, err)

	_, err = svc.CreateSale(ctx, service.CreateSaleInput{
		InvoiceReference: "INV-003", CustomerName: "Acme Labs", Lines: lines,
	}, env.by)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	// The duplicate deducted nothing.
	after, err := env.store.GetInventoryByCode(ctx, item.ItemCode)
	require.NoError(t, err)
	assert.Equal(t, 95, after.Quantity)
}

func TestCreateSale_LowStockEvent(t *testing.T) {
	env := newTestEnv()
	inv := newInventoryService(env)
	svc := newTransactionService(env)
	ctx := context.Background()

	seedBrand(t, env, "Bioxene", "Be")
	loc := seedLocation(t, env, "Shelf A")
	item := seedItem(t, env, inv, "Bioxene", []service.LocationQuantity{{LocationID: loc.ID, Quantity: 12}})

	_, err := svc.CreateSale(ctx, service.CreateSaleInput{
		InvoiceReference: "INV-004",
		CustomerName:     "Acme Labs",
		Lines:            []service.SaleLine{{ItemCode: item.ItemCode, LocationID: loc.ID, Quantity: 5}},
	}, env.by)
	require.NoError(t, err)

	// 12 - 5 = 7, at or below the threshold of 10.
	env.published.AssertEventPublished(t, messaging.EventLowStock)
}

func TestDeleteSale_RestoresStock(t *testing.T) {
	env := newTestEnv()
	inv := newInventoryService(env)
	svc := newTransactionService(env)
	ctx := context.Background()

	seedBrand(t, env, "Bioxene", "Be")
	loc := seedLocation(t, env, "Shelf A")
	item := seedItem(t, env, inv, "Bioxene", []service.LocationQuantity{{LocationID: loc.ID, Quantity: 100}})

	sale, err := svc.CreateSale(ctx, service.CreateSaleInput{
		InvoiceReference: "INV-005",
		CustomerName:     "Acme Labs",
		Lines:            []service.SaleLine{{ItemCode: item.ItemCode, LocationID: loc.ID, Quantity: 30}},
	}, env.by)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSale(ctx, sale.ID))

	after, err := env.store.GetInventoryByCode(ctx, item.ItemCode)
	require.NoError(t, err)
	assert.Equal(t, 100, after.Quantity)

	_, err = svc.GetSale(ctx, sale.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	env.published.AssertEventPublished(t, messaging.EventSaleReversed)
}

func TestDeleteSale_SkipsRemovedItems(t *testing.T) {
	env := newTestEnv()
	inv := newInventoryService(env)
	svc := newTransactionService(env)
	ctx := context.Background()

	seedBrand(t, env, "Bioxene", "Be")
	loc := seedLocation(t, env, "Shelf A")
	item := seedItem(t, env, inv, "Bioxene", []service.LocationQuantity{{LocationID: loc.ID, Quantity: 100}})

	sale, err := svc.CreateSale(ctx, service.CreateSaleInput{
		InvoiceReference: "INV-006",
		CustomerName:     "Acme Labs",
		Lines:            []service.SaleLine{{ItemCode: item.ItemCode, LocationID: loc.ID, Quantity: 30}},
	}, env.by)
	require.NoError(t, err)

	require.NoError(t, inv.DeleteItem(ctx, item.ItemCode))

	// The deleted item cannot take its stock back; the sale still goes away.
	require.NoError(t, svc.DeleteSale(ctx, sale.ID))
}

func TestDashboard_Monthly(t *testing.T) {
	env := newTestEnv()
	inv := newInventoryService(env)
	svc := newTransactionService(env)
	ctx := context.Background()

	seedBrand(t, env, "Bioxene", "Be")
	loc := seedLocation(t, env, "Shelf A")
	item := seedItem(t, env, inv, "Bioxene", []service.LocationQuantity{{LocationID: loc.ID, Quantity: 1000}})

	dates := []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),   // first instant of March
		time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC), // last second of March
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),   // April, outside
	}
	for i, d := range dates {
		date := d
		_, err := svc.CreateSale(ctx, service.CreateSaleInput{
			InvoiceReference: "INV-MONTH-" + string(rune('A'+i)),
			CustomerName:     "Acme Labs",
			TransactionDate:  &date,
			Lines:            []service.SaleLine{{ItemCode: item.ItemCode, LocationID: loc.ID, Quantity: 2}},
		}, env.by)
		require.NoError(t, err)
	}

	stats, err := svc.Dashboard(ctx, "monthly", "2026-03")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TransactionCount)
	assert.Equal(t, int64(4), stats.TotalQuantity)
	assert.InDelta(t, 40.0, stats.TotalRevenue, 0.001)
}

func TestDashboard_Daily(t *testing.T) {
	env := newTestEnv()
	inv := newInventoryService(env)
	svc := newTransactionService(env)
	ctx := context.Background()

	seedBrand(t, env, "Bioxene", "Be")
	loc := seedLocation(t, env, "Shelf A")
	item := seedItem(t, env, inv, "Bioxene", []service.LocationQuantity{{LocationID: loc.ID, Quantity: 1000}})

	date := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	_, err := svc.CreateSale(ctx, service.CreateSaleInput{
		InvoiceReference: "INV-DAY-1",
		CustomerName:     "Acme Labs",
		TransactionDate:  &date,
		Lines:            []service.SaleLine{{ItemCode: item.ItemCode, LocationID: loc.ID, Quantity: 3}},
	}, env.by)
	require.NoError(t, err)

	stats, err := svc.Dashboard(ctx, "daily", "2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TransactionCount)

	stats, err = svc.Dashboard(ctx, "daily", "2026-03-16")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TransactionCount)
}

func TestDashboard_InvalidPeriod(t *testing.T) {
	env := newTestEnv()
	svc := newTransactionService(env)

	_, err := svc.Dashboard(context.Background(), "weekly", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestDashboard_InvalidDate(t *testing.T) {
	env := newTestEnv()
	svc := newTransactionService(env)

	_, err := svc.Dashboard(context.Background(), "daily", "15-03-2026")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}
