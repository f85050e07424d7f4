package domain

import "time"

// XPTransaction Model
type XPTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Activity    string    `gorm:"size:32;not null" json:"activity"`
	Amount      int64     `gorm:"not null" json:"amount"`
	ReferenceID string    `gorm:"size:64" json:"reference_id,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// Badge is a catalog entry, the ID is a stable slug
type Badge struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	Name             string    `gorm:"size:100;not null" json:"name"`
	Description      string    `gorm:"size:255" json:"description"`
	Icon             string    `gorm:"size:32" json:"icon"`
	Color            string    `gorm:"size:16" json:"color"`
	RequirementType  string    `gorm:"size:32" json:"requirement_type"` // xp, posts, threads, likes, assets, downloads or manual
	RequirementValue int64     `json:"requirement_value"`
	SortOrder        int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt        time.Time `json:"created_at"`
}

// UserBadge Model, one per user and badge
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID  string    `gorm:"size:64;uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	Badge    *Badge    `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `json:"earned_at"`
}
