package models

import (
	"time"
)

// User represents a Telegram user tracked by the referral ledger
type User struct {
	TelegramID      int64      `db:"telegram_id"`
	ReferrerID      int64      `db:"referrer_id"` // equals TelegramID when the user joined without a referrer
	ReferredCount   int        `db:"referred_count"`
	Level           int        `db:"level"`
	Balance         int64      `db:"balance"`
	WalletAddress   *string    `db:"wallet_address"`
	WithdrawalCount int        `db:"withdrawal_count"`
	LastBonusAt     *time.Time `db:"last_bonus_at"`
	ReferralClaimed bool       `db:"referral_claimed"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// SelfReferred reports whether the user joined without a valid referrer.
func (u *User) SelfReferred() bool {
	return u.ReferrerID == u.TelegramID
}
