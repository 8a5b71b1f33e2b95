package payment

import "time"

// Request statuses for deposits and withdrawals.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Deposit is a user-submitted mobile-money deposit awaiting admin review.
// The wallet is credited only on approval.
type Deposit struct {
	ID         string    `json:"id" db:"id"`
	ProfileID  string    `json:"profile_id" db:"profile_id"`
	Amount     float64   `json:"amount" db:"amount"`
	Method     string    `json:"method" db:"method"`
	Reference  string    `json:"reference" db:"reference"`
	Status     string    `json:"status" db:"status"`
	ReviewedBy string    `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Withdrawal is a user-submitted payout request. The amount is held (debited
// from the wallet) at submission time; rejection refunds the hold.
type Withdrawal struct {
	ID          string    `json:"id" db:"id"`
	ProfileID   string    `json:"profile_id" db:"profile_id"`
	Amount      float64   `json:"amount" db:"amount"`
	Destination string    `json:"destination" db:"destination"`
	Status      string    `json:"status" db:"status"`
	ReviewedBy  string    `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt  time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
