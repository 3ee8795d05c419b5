package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/database"
	"github.com/biotechlab/lis-backend/pkg/logger"
	"github.com/biotechlab/lis-backend/pkg/testutil"
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

var (
	integrationOnce  sync.Once
	integrationStore *repository.SQLStore
	integrationErr   error
)

// setupIntegrationStore starts a shared PostgreSQL container on first use.
// Tests calling it are skipped in short mode.
func setupIntegrationStore(t *testing.T) repository.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	integrationOnce.Do(func() {
		ctx := context.Background()
		container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
		if err != nil {
			integrationErr = err
			return
		}

		db, err := container.Connect(ctx)
		if err != nil {
			integrationErr = err
			return
		}

		if err := container.CreateSchema(ctx, db); err != nil {
			integrationErr = err
			return
		}

		integrationStore = repository.NewStore(database.NewFromSqlx(db, logger.New("test", "test")))
	})

	require.NoError(t, integrationErr, "integration store setup failed")
	return integrationStore
}
