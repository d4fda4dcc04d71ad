package models

// GlobalStats is the singleton aggregate counter record. It is maintained
// incrementally as a side effect of successful user mutations, never
// recomputed by summing user rows.
type GlobalStats struct {
	TotalUsers            int64 `db:"total_users"`
	TotalReferrals        int64 `db:"total_referrals"`
	TotalWithdrawals      int64 `db:"total_withdrawals"`
	TotalWithdrawalAmount int64 `db:"total_withdrawal_amount"`
}

// LeaderboardEntry represents a user's position in the referral leaderboard
type LeaderboardEntry struct {
	Rank          int
	TelegramID    int64
	ReferredCount int
	Level         int
}

// ReferralResult reports the outcome of crediting a referral
type ReferralResult struct {
	Credited   bool  // false when the referral was already claimed or the user is unknown
	ReferrerID int64 // set when the referrer row was actually credited
	NewLevel   int
	LeveledUp  bool
}
