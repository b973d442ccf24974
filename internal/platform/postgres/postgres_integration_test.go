//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pensio/internal/platform/config"
	"pensio/internal/platform/postgres"
	"pensio/pkg/testutil/containers"
)

func TestOpen(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()

	t.Run("connects with pool settings", func(t *testing.T) {
		db, err := postgres.Open(ctx, config.DatabaseConfig{
			URL:             pg.DSN,
			MaxOpenConns:    3,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Minute,
		})
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		var one int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT 1").Scan(&one))
		assert.Equal(t, 1, one)
		assert.Equal(t, 3, db.Stats().MaxOpenConnections)
	})

	t.Run("empty url means not configured", func(t *testing.T) {
		db, err := postgres.Open(ctx, config.DatabaseConfig{})
		require.NoError(t, err)
		assert.Nil(t, db)
	})
}
