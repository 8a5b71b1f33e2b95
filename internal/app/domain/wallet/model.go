package wallet

import "time"

// Wallet holds a profile's funds. PendingReturns tracks the unrealized profit
// of currently active investments and is released into Balance at maturation.
type Wallet struct {
	ProfileID      string    `json:"profile_id" db:"profile_id"`
	Balance        float64   `json:"balance" db:"balance"`
	TotalInvested  float64   `json:"total_invested" db:"total_invested"`
	TotalReturns   float64   `json:"total_returns" db:"total_returns"`
	PendingReturns float64   `json:"pending_returns" db:"pending_returns"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Delta describes an atomic adjustment to a wallet. A negative Balance delta
// is rejected by stores when it would leave the balance below zero.
type Delta struct {
	Balance        float64
	TotalInvested  float64
	TotalReturns   float64
	PendingReturns float64
}

// Transaction types cover every wallet-affecting event.
const (
	TypeDeposit          = "deposit"
	TypeWithdrawal       = "withdrawal"
	TypeInvestment       = "investment"
	TypeReturn           = "return"
	TypeReferralBonus    = "referral_bonus"
	TypeStreakBonus      = "streak_bonus"
	TypeSpinPrize        = "spin_prize"
	TypeAchievementBonus = "achievement_bonus"
	TypeChallengeBonus   = "challenge_bonus"
	TypeWelcomeBonus     = "welcome_bonus"
	TypeAdminAdjustment  = "admin_adjustment"
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// Transaction is an append-only ledger row. Rows are never mutated after
// creation except for pending deposit/withdrawal rows flipping status when
// an admin resolves them.
type Transaction struct {
	ID          string    `json:"id" db:"id"`
	ProfileID   string    `json:"profile_id" db:"profile_id"`
	Type        string    `json:"type" db:"type"`
	Amount      float64   `json:"amount" db:"amount"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
