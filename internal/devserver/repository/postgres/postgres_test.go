package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/devserver/database"
	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/devserver/repository/postgres"
	"ticketing-front/internal/devserver/repository/repotest"
)

// Set DEVSERVER_TEST_DATABASE_URL to a disposable database to run these.
// Every subtest truncates the ticketing tables.
func TestPostgresStores(t *testing.T) {
	url := os.Getenv("DEVSERVER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DEVSERVER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, database.Options{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.Health(ctx))
	assert.Equal(t, 6, testutil.CollectAndCount(db.Collector()))

	repotest.Run(t, func(t *testing.T) repository.Stores {
		_, err := db.Pool.Exec(ctx, `TRUNCATE tickets, orders, offers, otp_codes, users RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		return postgres.NewStores(db.Pool)
	})
}
