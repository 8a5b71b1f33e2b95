package profile

import "time"

// Profile is a registered user of the platform. PasswordHash is never
// serialized in API responses.
type Profile struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	ReferralCode string    `json:"referral_code" db:"referral_code"`
	ReferredBy   string    `json:"referred_by,omitempty" db:"referred_by"`
	HideBalance  bool      `json:"hide_balance" db:"hide_balance"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
