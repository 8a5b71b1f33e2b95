package investment

import "time"

// Investment statuses.
const (
	StatusActive  = "active"
	StatusMatured = "matured"
)

// Investment is a profile's purchase of a product. MaturesAt is fixed at
// purchase time as PurchasedAt plus the product's duration.
type Investment struct {
	ID             string    `json:"id" db:"id"`
	ProfileID      string    `json:"profile_id" db:"profile_id"`
	ProductID      string    `json:"product_id" db:"product_id"`
	Amount         float64   `json:"amount" db:"amount"`
	ExpectedReturn float64   `json:"expected_return" db:"expected_return"`
	Status         string    `json:"status" db:"status"`
	PurchasedAt    time.Time `json:"purchased_at" db:"purchased_at"`
	MaturesAt      time.Time `json:"matures_at" db:"matures_at"`
	MaturedAt      time.Time `json:"matured_at,omitempty" db:"matured_at"`
}

// Profit is the unrealized return component of the investment.
func (i Investment) Profit() float64 {
	return i.ExpectedReturn - i.Amount
}
