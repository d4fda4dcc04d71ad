package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"refbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown user returns nil", func(t *testing.T) {
		user, err := repo.GetByTelegramID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("create and retrieve", func(t *testing.T) {
		created, err := repo.Create(ctx, 100, 555)
		require.NoError(t, err)
		assert.True(t, created)

		user, err := repo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.Equal(t, int64(100), user.TelegramID)
		assert.Equal(t, int64(555), user.ReferrerID)
		assert.Equal(t, 0, user.ReferredCount)
		assert.Equal(t, 1, user.Level)
		assert.Equal(t, int64(0), user.Balance)
		assert.Nil(t, user.WalletAddress)
		assert.Equal(t, 0, user.WithdrawalCount)
		assert.Nil(t, user.LastBonusAt)
		assert.False(t, user.ReferralClaimed)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("duplicate create is a no-op", func(t *testing.T) {
		created, err := repo.Create(ctx, 100, 777)
		require.NoError(t, err)
		assert.False(t, created)

		// Original referrer must survive the duplicate attempt
		user, err := repo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(555), user.ReferrerID)
	})
}

func TestUserRepository_ClaimReferral(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("first claim succeeds, second is rejected", func(t *testing.T) {
		testutil.SeedUser(t, testDB.DB, 200, 100)

		claimed, err := repo.ClaimReferral(ctx, 200)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = repo.ClaimReferral(ctx, 200)
		require.NoError(t, err)
		assert.False(t, claimed)

		user, err := repo.GetByTelegramID(ctx, 200)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.True(t, user.ReferralClaimed)
	})

	t.Run("unknown user cannot claim", func(t *testing.T) {
		claimed, err := repo.ClaimReferral(ctx, 999999)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("concurrent claims yield exactly one success", func(t *testing.T) {
		testutil.SeedUser(t, testDB.DB, 201, 100)

		const attempts = 10
		var successes int64
		var wg sync.WaitGroup

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				claimed, err := repo.ClaimReferral(ctx, 201)
				assert.NoError(t, err)
				if claimed {
					atomic.AddInt64(&successes, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), successes)
	})
}

func TestUserRepository_CreditReferrer(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing referrer is not credited", func(t *testing.T) {
		_, _, credited, err := repo.CreditReferrer(ctx, 999999, 10, 5)
		require.NoError(t, err)
		assert.False(t, credited)
	})

	t.Run("credit accumulates count, balance and level", func(t *testing.T) {
		testutil.SeedUser(t, testDB.DB, 300, 300)

		for i := 1; i <= 4; i++ {
			newCount, newLevel, credited, err := repo.CreditReferrer(ctx, 300, 10, 5)
			require.NoError(t, err)
			assert.True(t, credited)
			assert.Equal(t, i, newCount)
			assert.Equal(t, 1, newLevel)
		}

		// Fifth referral crosses the level threshold
		newCount, newLevel, credited, err := repo.CreditReferrer(ctx, 300, 10, 5)
		require.NoError(t, err)
		assert.True(t, credited)
		assert.Equal(t, 5, newCount)
		assert.Equal(t, 2, newLevel)

		user, err := repo.GetByTelegramID(ctx, 300)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, 5, user.ReferredCount)
		assert.Equal(t, 2, user.Level)
		assert.Equal(t, int64(50), user.Balance)
	})

	t.Run("level steps every perLevel referrals", func(t *testing.T) {
		testutil.SeedUserWithReferrals(t, testDB.DB, 301, 9, 5)

		newCount, newLevel, credited, err := repo.CreditReferrer(ctx, 301, 10, 5)
		require.NoError(t, err)
		assert.True(t, credited)
		assert.Equal(t, 10, newCount)
		assert.Equal(t, 3, newLevel)
	})
}

func TestUserRepository_Withdraw(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("sufficient balance", func(t *testing.T) {
		testutil.SeedUserWithBalance(t, testDB.DB, 400, 400, 50)

		accepted, err := repo.Withdraw(ctx, 400, 30)
		require.NoError(t, err)
		assert.True(t, accepted)

		user, err := repo.GetByTelegramID(ctx, 400)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(20), user.Balance)
		assert.Equal(t, 1, user.WithdrawalCount)
	})

	t.Run("insufficient balance leaves the row untouched", func(t *testing.T) {
		accepted, err := repo.Withdraw(ctx, 400, 30)
		require.NoError(t, err)
		assert.False(t, accepted)

		user, err := repo.GetByTelegramID(ctx, 400)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(20), user.Balance)
		assert.Equal(t, 1, user.WithdrawalCount)
	})

	t.Run("exact balance is withdrawable", func(t *testing.T) {
		accepted, err := repo.Withdraw(ctx, 400, 20)
		require.NoError(t, err)
		assert.True(t, accepted)

		user, err := repo.GetByTelegramID(ctx, 400)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(0), user.Balance)
	})

	t.Run("concurrent withdrawals cannot overdraw", func(t *testing.T) {
		testutil.SeedUserWithBalance(t, testDB.DB, 401, 401, 30)

		const attempts = 10
		var successes int64
		var wg sync.WaitGroup

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				accepted, err := repo.Withdraw(ctx, 401, 30)
				assert.NoError(t, err)
				if accepted {
					atomic.AddInt64(&successes, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), successes)

		user, err := repo.GetByTelegramID(ctx, 401)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(0), user.Balance)
		assert.Equal(t, 1, user.WithdrawalCount)
	})
}

func TestUserRepository_AddBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		applied, err := repo.AddBalance(ctx, 999999, 10)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("positive and negative deltas", func(t *testing.T) {
		testutil.SeedUserWithBalance(t, testDB.DB, 500, 500, 10)

		applied, err := repo.AddBalance(ctx, 500, 15)
		require.NoError(t, err)
		assert.True(t, applied)

		// Admin adjustments may push the balance negative
		applied, err = repo.AddBalance(ctx, 500, -40)
		require.NoError(t, err)
		assert.True(t, applied)

		user, err := repo.GetByTelegramID(ctx, 500)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(-15), user.Balance)
	})
}

func TestUserRepository_SetWallet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	testutil.SeedUser(t, testDB.DB, 600, 600)

	applied, err := repo.SetWallet(ctx, 600, "UQAbcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJ")
	require.NoError(t, err)
	assert.True(t, applied)

	user, err := repo.GetByTelegramID(ctx, 600)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, user.WalletAddress)
	assert.Equal(t, "UQAbcdefghijklmnopqrstuvwxyz0123456789ABCDEFGHIJ", *user.WalletAddress)

	applied, err = repo.SetWallet(ctx, 999999, "UQ-unknown")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestUserRepository_SetLastBonus(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	testutil.SeedUser(t, testDB.DB, 700, 700)

	claimTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	applied, err := repo.SetLastBonus(ctx, 700, claimTime)
	require.NoError(t, err)
	assert.True(t, applied)

	user, err := repo.GetByTelegramID(ctx, 700)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, user.LastBonusAt)
	assert.True(t, user.LastBonusAt.Equal(claimTime))
}

func TestUserRepository_Leaderboard(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("empty leaderboard", func(t *testing.T) {
		entries, err := repo.Leaderboard(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("ordered by referral count with ranks", func(t *testing.T) {
		testutil.SeedUserWithReferrals(t, testDB.DB, 801, 3, 5)
		testutil.SeedUserWithReferrals(t, testDB.DB, 802, 12, 5)
		testutil.SeedUserWithReferrals(t, testDB.DB, 803, 7, 5)

		entries, err := repo.Leaderboard(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, int64(802), entries[0].TelegramID)
		assert.Equal(t, 12, entries[0].ReferredCount)
		assert.Equal(t, 3, entries[0].Level)
		assert.Equal(t, 1, entries[0].Rank)

		assert.Equal(t, int64(803), entries[1].TelegramID)
		assert.Equal(t, 2, entries[1].Rank)

		assert.Equal(t, int64(801), entries[2].TelegramID)
		assert.Equal(t, 3, entries[2].Rank)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		entries, err := repo.Leaderboard(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}
