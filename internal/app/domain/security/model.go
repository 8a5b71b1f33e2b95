package security

import "time"

// Activity kinds written by the request dispatcher and services.
const (
	KindAuthFailure     = "auth_failure"
	KindLargeWithdrawal = "large_withdrawal"
	KindAdminAction     = "admin_action"
)

// Severity levels. Admin actions are always logged at SeverityLow; this is a
// blanket audit trail, not a detection engine.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Activity is a security audit row, resolved manually by an admin.
type Activity struct {
	ID        string    `json:"id" db:"id"`
	ProfileID string    `json:"profile_id,omitempty" db:"profile_id"`
	Kind      string    `json:"kind" db:"kind"`
	Severity  string    `json:"severity" db:"severity"`
	Detail    string    `json:"detail" db:"detail"`
	Resolved  bool      `json:"resolved" db:"resolved"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
