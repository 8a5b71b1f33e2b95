package referral

import "time"

// Referral statuses. A referral is rewarded exactly once, when the referred
// profile's first deposit is approved.
const (
	StatusPending  = "pending"
	StatusRewarded = "rewarded"
)

// Referral links a referrer to a profile that signed up with their code.
type Referral struct {
	ID           string    `json:"id" db:"id"`
	ReferrerID   string    `json:"referrer_id" db:"referrer_id"`
	ReferredID   string    `json:"referred_id" db:"referred_id"`
	RewardAmount float64   `json:"reward_amount" db:"reward_amount"`
	Status       string    `json:"status" db:"status"`
	RewardedAt   time.Time `json:"rewarded_at,omitempty" db:"rewarded_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Stats aggregates a referrer's totals for display.
type Stats struct {
	TotalReferred int     `json:"total_referred"`
	TotalRewarded int     `json:"total_rewarded"`
	TotalEarned   float64 `json:"total_earned"`
}
