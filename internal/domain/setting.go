package domain

import "time"

// Setting keys
const (
	SettingSpinTicketCost  = "spin_ticket_cost"
	SettingSpinEnabled     = "spin_is_enabled"
	SettingSpinTicketPrice = "spin_ticket_price_coins"
	SettingLinkvertise     = "linkvertise"
)

// Setting is a key/value site setting, values are JSON encoded
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkvertiseSetting is the decoded value of the linkvertise setting
type LinkvertiseSetting struct {
	Enabled bool   `json:"enabled"`
	UserID  string `json:"user_id"`
}
