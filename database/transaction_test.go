package database_test

import (
	"context"
	"errors"
	"testing"

	"refbot/repository/testutil"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTransaction(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		err := testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO users (telegram_id, referrer_id) VALUES (1, 1)`)
			return err
		})
		require.NoError(t, err)

		var count int
		err = testDB.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE telegram_id = 1`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `INSERT INTO users (telegram_id, referrer_id) VALUES (2, 2)`); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		var count int
		err = testDB.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE telegram_id = 2`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}
