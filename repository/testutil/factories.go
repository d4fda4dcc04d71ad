package testutil

import (
	"context"
	"testing"

	"refbot/database"
	"refbot/models"

	"github.com/stretchr/testify/require"
)

// SeedUser inserts a user row directly, bypassing the repository under test
func SeedUser(t *testing.T, db *database.DB, telegramID, referrerID int64) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`INSERT INTO users (telegram_id, referrer_id) VALUES ($1, $2)`,
		telegramID, referrerID)
	require.NoError(t, err)
}

// SeedUserWithBalance inserts a user row with a specific balance
func SeedUserWithBalance(t *testing.T, db *database.DB, telegramID, referrerID, balance int64) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`INSERT INTO users (telegram_id, referrer_id, balance) VALUES ($1, $2, $3)`,
		telegramID, referrerID, balance)
	require.NoError(t, err)
}

// SeedUserWithReferrals inserts a user row with a referral count and the
// matching level
func SeedUserWithReferrals(t *testing.T, db *database.DB, telegramID int64, referredCount, perLevel int) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`INSERT INTO users (telegram_id, referrer_id, referred_count, level) VALUES ($1, $1, $2, $3)`,
		telegramID, referredCount, models.LevelFor(referredCount, perLevel))
	require.NoError(t, err)
}
