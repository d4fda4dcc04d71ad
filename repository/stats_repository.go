package repository

import (
	"context"
	"fmt"

	"refbot/database"
	"refbot/models"
)

// StatsRepository implements the service.StatsRepository interface over the
// singleton global_stats row. Every increment is an upsert, so the row is
// created lazily on first use.
type StatsRepository struct {
	q queryable
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{q: db.Pool}
}

func newStatsRepositoryWithTx(tx queryable) *StatsRepository {
	return &StatsRepository{q: tx}
}

// Get returns the aggregate counters, initializing them to zero on first read
func (r *StatsRepository) Get(ctx context.Context) (*models.GlobalStats, error) {
	ensure := `INSERT INTO global_stats (id) VALUES (TRUE) ON CONFLICT (id) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure); err != nil {
		return nil, fmt.Errorf("failed to initialize stats: %w", err)
	}

	query := `
		SELECT total_users, total_referrals, total_withdrawals, total_withdrawal_amount
		FROM global_stats
	`

	var stats models.GlobalStats
	err := r.q.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.TotalReferrals,
		&stats.TotalWithdrawals,
		&stats.TotalWithdrawalAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &stats, nil
}

// IncrementUsers bumps the registered-user counter
func (r *StatsRepository) IncrementUsers(ctx context.Context) error {
	query := `
		INSERT INTO global_stats (id, total_users) VALUES (TRUE, 1)
		ON CONFLICT (id) DO UPDATE SET total_users = global_stats.total_users + 1
	`
	if _, err := r.q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to increment user count: %w", err)
	}
	return nil
}

// IncrementReferrals bumps the credited-referral counter
func (r *StatsRepository) IncrementReferrals(ctx context.Context) error {
	query := `
		INSERT INTO global_stats (id, total_referrals) VALUES (TRUE, 1)
		ON CONFLICT (id) DO UPDATE SET total_referrals = global_stats.total_referrals + 1
	`
	if _, err := r.q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to increment referral count: %w", err)
	}
	return nil
}

// RecordWithdrawal bumps the withdrawal counter and total amount
func (r *StatsRepository) RecordWithdrawal(ctx context.Context, amount int64) error {
	query := `
		INSERT INTO global_stats (id, total_withdrawals, total_withdrawal_amount)
		VALUES (TRUE, 1, $1)
		ON CONFLICT (id) DO UPDATE
		SET total_withdrawals = global_stats.total_withdrawals + 1,
		    total_withdrawal_amount = global_stats.total_withdrawal_amount + $1
	`
	if _, err := r.q.Exec(ctx, query, amount); err != nil {
		return fmt.Errorf("failed to record withdrawal: %w", err)
	}
	return nil
}
