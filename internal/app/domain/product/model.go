package product

import "time"

// Product is an investable fixed-term offering. Units are a finite inventory;
// UnitsSold never exceeds TotalUnits.
type Product struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Price          float64   `json:"price" db:"price"`
	ExpectedReturn float64   `json:"expected_return" db:"expected_return"`
	DurationDays   int       `json:"duration_days" db:"duration_days"`
	TotalUnits     int       `json:"total_units" db:"total_units"`
	UnitsSold      int       `json:"units_sold" db:"units_sold"`
	Active         bool      `json:"active" db:"active"`
	Popular        bool      `json:"popular" db:"popular"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
