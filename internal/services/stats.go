package services

import "go.uber.org/atomic"

// SpinStats counts engine outcomes since process start.
type SpinStats struct {
	Spins          atomic.Int64
	NoEligible     atomic.Int64
	AlreadySpun    atomic.Int64
	LoyaltyAwards  atomic.Int64
	QuotaRaces     atomic.Int64
	SessionsOpened atomic.Int64
	DailyResets    atomic.Int64
}

func NewSpinStats() *SpinStats {
	return &SpinStats{}
}

// Snapshot returns the current counter values keyed by name.
func (s *SpinStats) Snapshot() map[string]int64 {
	return map[string]int64{
		"spins":          s.Spins.Load(),
		"noEligible":     s.NoEligible.Load(),
		"alreadySpun":    s.AlreadySpun.Load(),
		"loyaltyAwards":  s.LoyaltyAwards.Load(),
		"quotaRaces":     s.QuotaRaces.Load(),
		"sessionsOpened": s.SessionsOpened.Load(),
		"dailyResets":    s.DailyResets.Load(),
	}
}
