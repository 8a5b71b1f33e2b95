package setting

import "time"

// Known platform setting keys. Each key has a typed schema validated on
// write; values are stored as JSON.
const (
	KeyDepositsFrozen     = "deposits_frozen"
	KeyWithdrawalsFrozen  = "withdrawals_frozen"
	KeyMaintenanceMessage = "maintenance_message"
	KeyOverlayMessage     = "overlay_message"
	KeyWelcomeBonus       = "welcome_bonus"
	KeyOfficeContact      = "office_contact"
	KeyCommunityLink      = "community_link"
	KeyWhatsappSupport    = "whatsapp_support"
)

// Setting is one platform configuration row. Value holds the raw JSON as
// written after schema validation.
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     []byte    `json:"value" db:"value"`
	UpdatedBy string    `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
