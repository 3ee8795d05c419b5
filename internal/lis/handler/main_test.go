package handler_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/database"
	"github.com/biotechlab/lis-backend/pkg/logger"
	"github.com/biotechlab/lis-backend/pkg/testutil"
)

var (
	suiteOnce  sync.Once
	suiteStore repository.Store
	suiteErr   error
)

// setupStore starts a shared PostgreSQL container on first use.
// Tests calling it are skipped in short mode.
func setupStore(t *testing.T) repository.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	suiteOnce.Do(func() {
		ctx := context.Background()
		container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
		if err != nil {
			suiteErr = err
			return
		}

		db, err := container.Connect(ctx)
		if err != nil {
			suiteErr = err
			return
		}

		if err := container.CreateSchema(ctx, db); err != nil {
			suiteErr = err
			return
		}

		suiteStore = repository.NewStore(database.NewFromSqlx(db, logger.New("test", "test")))
	})

	require.NoError(t, suiteErr, "handler test setup failed")
	return suiteStore
}

// withTestActor attaches a fixed authenticated user to every request,
// standing in for the JWT middleware.
func withTestActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := actor.WithActor(r.Context(), &actor.Actor{
			ID:        "1",
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane.doe@lis.local",
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
