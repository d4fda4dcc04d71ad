package repository

import (
	"context"
	"fmt"
	"time"

	"refbot/database"
	"refbot/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable is satisfied by both *pgxpool.Pool and pgx.Tx
type queryable interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository bound to a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `telegram_id, referrer_id, referred_count, level, balance,
			wallet_address, withdrawal_count, last_bonus_at, referral_claimed,
			created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.TelegramID,
		&user.ReferrerID,
		&user.ReferredCount,
		&user.Level,
		&user.Balance,
		&user.WalletAddress,
		&user.WithdrawalCount,
		&user.LastBonusAt,
		&user.ReferralClaimed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTelegramID retrieves a user by their Telegram ID. Returns nil when no
// such user exists.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, telegramID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", telegramID, err)
	}
	return user, nil
}

// Create inserts a new user row. It is idempotent: a second insert for the
// same Telegram ID is a no-op and reports created=false.
func (r *UserRepository) Create(ctx context.Context, telegramID, referrerID int64) (bool, error) {
	query := `
		INSERT INTO users (telegram_id, referrer_id)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, telegramID, referrerID)
	if err != nil {
		return false, fmt.Errorf("failed to create user %d: %w", telegramID, err)
	}

	return result.RowsAffected() > 0, nil
}

// ClaimReferral flips the referral_claimed flag, but only if it is still
// unset. The WHERE predicate makes this a single atomic check-and-set, so two
// concurrent claims for the same user cannot both succeed.
func (r *UserRepository) ClaimReferral(ctx context.Context, telegramID int64) (bool, error) {
	query := `
		UPDATE users
		SET referral_claimed = TRUE, updated_at = NOW()
		WHERE telegram_id = $1 AND NOT referral_claimed
	`

	result, err := r.q.Exec(ctx, query, telegramID)
	if err != nil {
		return false, fmt.Errorf("failed to claim referral for user %d: %w", telegramID, err)
	}

	return result.RowsAffected() > 0, nil
}

// CreditReferrer increments the referrer's referral count and balance in one
// UPDATE, recomputing the level from the new count. Returns the new count and
// level, with credited=false when no such referrer row exists.
func (r *UserRepository) CreditReferrer(ctx context.Context, referrerID, bonus int64, perLevel int) (newCount, newLevel int, credited bool, err error) {
	query := `
		UPDATE users
		SET referred_count = referred_count + 1,
		    balance = balance + $2,
		    level = CASE WHEN referred_count + 1 < $3 THEN 1
		                 ELSE 1 + (referred_count + 1) / $3 END,
		    updated_at = NOW()
		WHERE telegram_id = $1
		RETURNING referred_count, level
	`

	err = r.q.QueryRow(ctx, query, referrerID, bonus, perLevel).Scan(&newCount, &newLevel)
	if err == pgx.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to credit referrer %d: %w", referrerID, err)
	}

	return newCount, newLevel, true, nil
}

// AddBalance applies an unconditional balance delta (positive or negative).
// Reports applied=false when the user does not exist.
func (r *UserRepository) AddBalance(ctx context.Context, telegramID, delta int64) (bool, error) {
	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, delta, telegramID)
	if err != nil {
		return false, fmt.Errorf("failed to adjust balance for user %d: %w", telegramID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Withdraw deducts amount and bumps the withdrawal counter, but only when the
// balance covers it. The balance check and the decrement are one atomic
// conditional UPDATE; a plain read-then-write would over-withdraw under
// concurrent attempts.
func (r *UserRepository) Withdraw(ctx context.Context, telegramID, amount int64) (bool, error) {
	query := `
		UPDATE users
		SET balance = balance - $1,
		    withdrawal_count = withdrawal_count + 1,
		    updated_at = NOW()
		WHERE telegram_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, telegramID)
	if err != nil {
		return false, fmt.Errorf("failed to withdraw for user %d: %w", telegramID, err)
	}

	return result.RowsAffected() > 0, nil
}

// SetWallet stores the user's payout wallet address
func (r *UserRepository) SetWallet(ctx context.Context, telegramID int64, address string) (bool, error) {
	query := `
		UPDATE users
		SET wallet_address = $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, address, telegramID)
	if err != nil {
		return false, fmt.Errorf("failed to set wallet for user %d: %w", telegramID, err)
	}

	return result.RowsAffected() > 0, nil
}

// SetLastBonus records when the user last claimed the recurring bonus
func (r *UserRepository) SetLastBonus(ctx context.Context, telegramID int64, at time.Time) (bool, error) {
	query := `
		UPDATE users
		SET last_bonus_at = $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, at, telegramID)
	if err != nil {
		return false, fmt.Errorf("failed to set bonus time for user %d: %w", telegramID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Leaderboard returns up to limit users ordered by referral count descending.
// Ties break on Telegram ID for a stable order.
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT telegram_id, referred_count, level
		FROM users
		ORDER BY referred_count DESC, telegram_id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.TelegramID, &entry.ReferredCount, &entry.Level); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}

	return entries, nil
}
