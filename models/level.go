package models

// LevelFor returns the level derived from a referral count. Levels start at 1
// and increase by one for every perLevel credited referrals, so the level is a
// pure function of the count and can be recomputed on every credit.
func LevelFor(referredCount, perLevel int) int {
	if perLevel <= 0 || referredCount < perLevel {
		return 1
	}
	return 1 + referredCount/perLevel
}

// ReferralsToNextLevel returns how many more credited referrals are needed to
// reach the next level. The result is always in [1, perLevel].
func ReferralsToNextLevel(referredCount, perLevel int) int {
	if perLevel <= 0 {
		return 0
	}
	return LevelFor(referredCount, perLevel)*perLevel - referredCount
}
