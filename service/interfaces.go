package service

import (
	"context"
	"time"

	"refbot/events"
	"refbot/models"
)

// UserRepository defines the interface for user data access. Reads return nil
// for missing users; conditional writes report whether their predicate held
// instead of returning an error, so "already claimed" and "insufficient
// balance" stay ordinary outcomes.
type UserRepository interface {
	// GetByTelegramID retrieves a user by their Telegram ID
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)

	// Create inserts a new user; created=false when the ID already exists
	Create(ctx context.Context, telegramID, referrerID int64) (bool, error)

	// ClaimReferral atomically flips the one-way referral_claimed flag
	ClaimReferral(ctx context.Context, telegramID int64) (bool, error)

	// CreditReferrer bumps the referrer's count and balance, recomputing level
	CreditReferrer(ctx context.Context, referrerID, bonus int64, perLevel int) (newCount, newLevel int, credited bool, err error)

	// AddBalance applies an unconditional balance delta
	AddBalance(ctx context.Context, telegramID, delta int64) (bool, error)

	// Withdraw atomically deducts amount when the balance covers it
	Withdraw(ctx context.Context, telegramID, amount int64) (bool, error)

	// SetWallet stores the payout wallet address
	SetWallet(ctx context.Context, telegramID int64, address string) (bool, error)

	// SetLastBonus records the time of the latest bonus claim
	SetLastBonus(ctx context.Context, telegramID int64, at time.Time) (bool, error)

	// Leaderboard returns users ordered by referral count descending
	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// StatsRepository defines the interface for the aggregate counters singleton
type StatsRepository interface {
	// Get returns the counters, lazily initialized to zero
	Get(ctx context.Context) (*models.GlobalStats, error)

	// IncrementUsers bumps total_users
	IncrementUsers(ctx context.Context) error

	// IncrementReferrals bumps total_referrals
	IncrementReferrals(ctx context.Context) error

	// RecordWithdrawal bumps total_withdrawals and total_withdrawal_amount
	RecordWithdrawal(ctx context.Context, amount int64) error
}

// JoinRequestRepository defines the interface for join request tracking
type JoinRequestRepository interface {
	// Save records a join request; duplicates are no-ops
	Save(ctx context.Context, userID, channelID int64) error

	// Exists reports whether a join request was recorded
	Exists(ctx context.Context, userID, channelID int64) (bool, error)
}

// LedgerService defines the referral-and-reward ledger offered to the bot
// front-end. All operations are safe under concurrent invocation; single-user
// check-and-mutate operations compile down to one atomic conditional write.
type LedgerService interface {
	// Register creates the user on first contact. An absent, unknown or
	// self-pointing referrer falls back to the self-referral sentinel.
	Register(ctx context.Context, telegramID, referrerID int64) (created bool, err error)

	// Get returns the user record, or nil when unregistered
	Get(ctx context.Context, telegramID int64) (*models.User, error)

	// CreditReferral credits the referred user's referral to their referrer,
	// at most once per referred user
	CreditReferral(ctx context.Context, referredID int64) (*models.ReferralResult, error)

	// AdjustBalance applies a balance delta; applied=false for unknown users
	AdjustBalance(ctx context.Context, telegramID, delta int64) (bool, error)

	// Withdraw deducts amount if it meets the minimum and the balance covers it
	Withdraw(ctx context.Context, telegramID, amount int64) (accepted bool, err error)

	// SetWallet stores the payout wallet address
	SetWallet(ctx context.Context, telegramID int64, address string) (bool, error)

	// GetBalance returns the current balance, zero for unknown users
	GetBalance(ctx context.Context, telegramID int64) (int64, error)

	// GetWallet returns the wallet address, nil when unset or unknown
	GetWallet(ctx context.Context, telegramID int64) (*string, error)

	// CanClaimDailyBonus reports whether the bonus cooldown has elapsed
	CanClaimDailyBonus(ctx context.Context, telegramID int64) (bool, error)

	// MarkBonusClaimed stamps the bonus cooldown without crediting
	MarkBonusClaimed(ctx context.Context, telegramID int64) error

	// ClaimDailyBonus credits the daily bonus when the cooldown allows it
	ClaimDailyBonus(ctx context.Context, telegramID int64) (claimed bool, err error)

	// Leaderboard returns the top referrers
	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)

	// Stats returns the global aggregate counters
	Stats(ctx context.Context) (*models.GlobalStats, error)

	// RecordJoinRequest stores a pending join request for a channel
	RecordJoinRequest(ctx context.Context, userID, channelID int64) error

	// HasJoinRequest reports whether the user requested to join the channel
	HasJoinRequest(ctx context.Context, userID, channelID int64) (bool, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	Users() UserRepository
	Stats() StatsRepository
	JoinRequests() JoinRequestRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
