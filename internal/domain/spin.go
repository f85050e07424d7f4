package domain

import "time"

// Prize types
const (
	PrizeCoins   = "coins"
	PrizeTicket  = "ticket"
	PrizeNothing = "nothing"
)

// Ticket types and daily claim types
const (
	TicketDaily    = "daily"
	TicketPurchase = "purchase"
	TicketPrize    = "prize"
	TicketAdmin    = "admin"

	ClaimSpinTickets = "spin_tickets"
)

// SpinPrize Model
type SpinPrize struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Type        string    `gorm:"size:16;not null" json:"type"`          // coins, ticket or nothing
	Value       int64     `gorm:"not null;default:0" json:"value"`       // Coins or tickets granted
	Probability float64   `gorm:"not null;default:0" json:"probability"` // Relative weight
	Color       string    `gorm:"size:16" json:"color"`
	Rarity      string    `gorm:"size:16;default:common" json:"rarity"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SpinTicket Model
type SpinTicket struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	TicketType string     `gorm:"size:16;not null" json:"ticket_type"`
	IsUsed     bool       `gorm:"not null;default:false;index" json:"is_used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at,omitempty"` // Nil never expires
	CreatedAt  time.Time  `json:"created_at"`
}

// SpinHistory Model
type SpinHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	PrizeID     uint      `gorm:"not null" json:"prize_id"`
	PrizeName   string    `gorm:"size:100" json:"prize_name"`
	PrizeType   string    `gorm:"size:16" json:"prize_type"`
	PrizeValue  int64     `json:"prize_value"`
	TicketsUsed int       `json:"tickets_used"`
	Forced      bool      `gorm:"not null;default:false" json:"forced"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// DailyClaim records a claim per user, type and UTC date
type DailyClaim struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_daily_claim;not null" json:"user_id"`
	ClaimType string    `gorm:"size:32;uniqueIndex:idx_daily_claim;not null" json:"claim_type"`
	ClaimDate string    `gorm:"size:10;uniqueIndex:idx_daily_claim;not null" json:"claim_date"` // YYYY-MM-DD in UTC
	Streak    int       `gorm:"not null;default:1" json:"streak"`
	Tickets   int       `gorm:"not null;default:0" json:"tickets"`
	CreatedAt time.Time `json:"created_at"`
}

// ForceWin is an admin-queued outcome for a user's next spin
type ForceWin struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	PrizeID   uint       `gorm:"not null" json:"prize_id"`
	Prize     *SpinPrize `gorm:"foreignKey:PrizeID" json:"prize,omitempty"`
	CreatedBy uint       `json:"created_by"`
	IsUsed    bool       `gorm:"not null;default:false;index" json:"is_used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
