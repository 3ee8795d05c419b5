package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biotechlab/lis-backend/internal/lis/events"
	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/internal/lis/service"
	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/logger"
	"github.com/biotechlab/lis-backend/pkg/testutil"
)

const lowStockThreshold = 10

type testEnv struct {
	store     *fakeStore
	published *testutil.MockPublisher
	publisher *events.Publisher
	log       *logger.Logger
	by        *actor.Actor
}

func newTestEnv() *testEnv {
	published := testutil.NewMockPublisher()
	log := logger.New("test", "test")
	return &testEnv{
		store:     newFakeStore(),
		published: published,
		publisher: events.NewPublisherWithBackend(published, log),
		log:       log,
		by: &actor.Actor{
			ID:        "1",
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane.doe@lis.local",
		},
	}
}

func seedBrand(t *testing.T, env *testEnv, name, abbreviation string) *repository.Brand {
	t.Helper()
	brand := &repository.Brand{Name: name, Abbreviation: abbreviation}
	require.NoError(t, env.store.CreateBrand(context.Background(), brand))
	return brand
}

func seedLocation(t *testing.T, env *testEnv, name string) *repository.Location {
	t.Helper()
	location := &repository.Location{Name: name}
	require.NoError(t, env.store.CreateLocation(context.Background(), location))
	return location
}

// seedItem creates an item with stock placed at the given locations.
func seedItem(t *testing.T, env *testEnv, svc *service.InventoryService, brand string, locations []service.LocationQuantity) *service.ItemWithLocations {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), service.CreateItemInput{
		ItemName:    "Test Item",
		Brand:       brand,
		CostPrice:   5,
		RetailPrice: 10,
		Locations:   locations,
	}, env.by)
	require.NoError(t, err)
	return item
}
