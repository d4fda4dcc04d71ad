package service

import (
	"context"
	"fmt"
	"time"

	"refbot/config"
	"refbot/events"
	"refbot/models"
)

// bonusCooldown is how long a user must wait between daily bonus claims
const bonusCooldown = 24 * time.Hour

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return NewLedgerServiceWithClock(uowFactory, time.Now)
}

// NewLedgerServiceWithClock creates a ledger service with an injected clock,
// used by tests to control the bonus cooldown.
func NewLedgerServiceWithClock(uowFactory UnitOfWorkFactory, now func() time.Time) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		now:        now,
	}
}

// Register creates the user record on first contact. A referrer that is
// absent, unknown, or the user themselves is replaced by the self-referral
// sentinel. The user insert and the total_users increment commit together, so
// a duplicate registration can never double-count.
func (s *ledgerService) Register(ctx context.Context, telegramID, referrerID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if referrerID <= 0 || referrerID == telegramID {
		referrerID = telegramID
	} else {
		referrer, err := uow.Users().GetByTelegramID(ctx, referrerID)
		if err != nil {
			return false, fmt.Errorf("failed to check referrer: %w", err)
		}
		if referrer == nil {
			referrerID = telegramID
		}
	}

	created, err := uow.Users().Create(ctx, telegramID, referrerID)
	if err != nil {
		return false, fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		return false, nil
	}

	if err := uow.Stats().IncrementUsers(ctx); err != nil {
		return false, fmt.Errorf("failed to count registration: %w", err)
	}

	uow.EventBus().Publish(events.UserRegisteredEvent{
		TelegramID: telegramID,
		ReferrerID: referrerID,
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// Get returns the user record, or nil when unregistered
func (s *ledgerService) Get(ctx context.Context, telegramID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Users().GetByTelegramID(ctx, telegramID)
}

// CreditReferral credits the referred user's one-time referral to their
// referrer. The claim flag is an atomic check-and-set, so a second call (or a
// concurrent duplicate) is rejected without touching the referrer. The claim
// is kept even when the referrer row no longer exists: marking stays permanent
// once attempted, which is what guarantees at-most-once crediting.
func (s *ledgerService) CreditReferral(ctx context.Context, referredID int64) (*models.ReferralResult, error) {
	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.Users().GetByTelegramID(ctx, referredID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referred user: %w", err)
	}
	if user == nil || user.ReferralClaimed {
		return &models.ReferralResult{}, nil
	}

	claimed, err := uow.Users().ClaimReferral(ctx, referredID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim referral: %w", err)
	}
	if !claimed {
		// Lost the race against a concurrent claim
		return &models.ReferralResult{}, nil
	}

	if user.SelfReferred() {
		// Nothing to credit, but the claim is settled
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return &models.ReferralResult{}, nil
	}

	newCount, newLevel, credited, err := uow.Users().CreditReferrer(ctx, user.ReferrerID, cfg.ReferralBonus, cfg.ReferralsPerLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to credit referrer: %w", err)
	}

	result := &models.ReferralResult{}
	if credited {
		if err := uow.Stats().IncrementReferrals(ctx); err != nil {
			return nil, fmt.Errorf("failed to count referral: %w", err)
		}

		result.Credited = true
		result.ReferrerID = user.ReferrerID
		result.NewLevel = newLevel
		result.LeveledUp = newLevel > models.LevelFor(newCount-1, cfg.ReferralsPerLevel)

		uow.EventBus().Publish(events.ReferralCreditedEvent{
			ReferredID: referredID,
			ReferrerID: user.ReferrerID,
			Bonus:      cfg.ReferralBonus,
			NewLevel:   newLevel,
			LeveledUp:  result.LeveledUp,
		})
	}

	// Commit either way: a vanished referrer must not roll back the claim
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// AdjustBalance applies an unconditional balance delta
func (s *ledgerService) AdjustBalance(ctx context.Context, telegramID, delta int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	applied, err := uow.Users().AddBalance(ctx, telegramID, delta)
	if err != nil {
		return false, fmt.Errorf("failed to adjust balance: %w", err)
	}
	if !applied {
		return false, nil
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// Withdraw deducts amount when it is at least the configured minimum and the
// balance covers it. The balance predicate rides inside a single conditional
// update, so concurrent withdrawals can never drive the balance negative.
func (s *ledgerService) Withdraw(ctx context.Context, telegramID, amount int64) (bool, error) {
	cfg := config.Get()
	if amount <= 0 || amount < cfg.MinWithdrawal {
		return false, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	accepted, err := uow.Users().Withdraw(ctx, telegramID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to withdraw: %w", err)
	}
	if !accepted {
		return false, nil
	}

	if err := uow.Stats().RecordWithdrawal(ctx, amount); err != nil {
		return false, fmt.Errorf("failed to count withdrawal: %w", err)
	}

	uow.EventBus().Publish(events.WithdrawalCompletedEvent{
		TelegramID: telegramID,
		Amount:     amount,
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// SetWallet stores the payout wallet address
func (s *ledgerService) SetWallet(ctx context.Context, telegramID int64, address string) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	applied, err := uow.Users().SetWallet(ctx, telegramID, address)
	if err != nil {
		return false, fmt.Errorf("failed to set wallet: %w", err)
	}
	if !applied {
		return false, nil
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// GetBalance returns the current balance, zero for unknown users
func (s *ledgerService) GetBalance(ctx context.Context, telegramID int64) (int64, error) {
	user, err := s.Get(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}
	return user.Balance, nil
}

// GetWallet returns the wallet address, nil when unset or unknown
func (s *ledgerService) GetWallet(ctx context.Context, telegramID int64) (*string, error) {
	user, err := s.Get(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user.WalletAddress, nil
}

// CanClaimDailyBonus reports whether the bonus cooldown has elapsed. Unknown
// users report true; the claim itself will reject them.
func (s *ledgerService) CanClaimDailyBonus(ctx context.Context, telegramID int64) (bool, error) {
	user, err := s.Get(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return s.canClaimBonus(user), nil
}

func (s *ledgerService) canClaimBonus(user *models.User) bool {
	if user == nil || user.LastBonusAt == nil {
		return true
	}
	return s.now().Sub(*user.LastBonusAt) >= bonusCooldown
}

// MarkBonusClaimed stamps the bonus cooldown without crediting
func (s *ledgerService) MarkBonusClaimed(ctx context.Context, telegramID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.Users().SetLastBonus(ctx, telegramID, s.now()); err != nil {
		return fmt.Errorf("failed to mark bonus claimed: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClaimDailyBonus credits the configured daily bonus when the cooldown allows
// it; the credit and the cooldown stamp commit together.
func (s *ledgerService) ClaimDailyBonus(ctx context.Context, telegramID int64) (bool, error) {
	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.Users().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !s.canClaimBonus(user) {
		return false, nil
	}

	if _, err := uow.Users().AddBalance(ctx, telegramID, cfg.DailyBonus); err != nil {
		return false, fmt.Errorf("failed to credit bonus: %w", err)
	}
	if _, err := uow.Users().SetLastBonus(ctx, telegramID, s.now()); err != nil {
		return false, fmt.Errorf("failed to stamp bonus cooldown: %w", err)
	}

	uow.EventBus().Publish(events.BonusClaimedEvent{
		TelegramID: telegramID,
		Amount:     cfg.DailyBonus,
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// Leaderboard returns the top referrers
func (s *ledgerService) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Users().Leaderboard(ctx, limit)
}

// Stats returns the global aggregate counters
func (s *ledgerService) Stats(ctx context.Context) (*models.GlobalStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stats, err := uow.Stats().Get(ctx)
	if err != nil {
		return nil, err
	}

	// The lazy zero-row insert must stick even though this is a read path
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stats, nil
}

// RecordJoinRequest stores a pending join request for a channel
func (s *ledgerService) RecordJoinRequest(ctx context.Context, userID, channelID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.JoinRequests().Save(ctx, userID, channelID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HasJoinRequest reports whether the user requested to join the channel
func (s *ledgerService) HasJoinRequest(ctx context.Context, userID, channelID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.JoinRequests().Exists(ctx, userID, channelID)
}
