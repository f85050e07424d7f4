package domain

import "time"

// Notification types
const (
	NotifyReply    = "reply"
	NotifyLike     = "like"
	NotifyDownload = "download"
	NotifyBadge    = "badge"
	NotifyReward   = "reward"
	NotifyCoins    = "coins"
	NotifyLevelUp  = "level_up"
	NotifyNewAsset = "new_asset"
	NotifyReview   = "review"
	NotifySystem   = "system"
	NotifyMessage  = "message"
	NotifyReport   = "report"
)

// Notification Model
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"size:1000" json:"message"`
	Link      string    `gorm:"size:512" json:"link,omitempty"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Banner Model
type Banner struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	ImageURL  string     `gorm:"size:1024;not null" json:"image_url"`
	LinkURL   string     `gorm:"size:1024" json:"link_url"`
	Position  string     `gorm:"size:32;index;not null;default:top" json:"position"`
	SortOrder int        `gorm:"not null;default:0" json:"sort_order"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
