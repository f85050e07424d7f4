package domain

import "time"

// Roles and memberships
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	MembershipFree  = "free"
	MembershipVIP   = "vip"
	MembershipAdmin = "admin"
)

// User Model
type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`                           // Primary key
	DiscordID        string     `gorm:"size:32;uniqueIndex;not null" json:"discord_id"` // Discord snowflake
	Username         string     `gorm:"size:64;not null" json:"username"`               // Discord username
	Email            string     `gorm:"size:255" json:"-"`                              // Never exposed
	Avatar           string     `gorm:"size:512" json:"avatar"`                         // CDN avatar URL
	Role             string     `gorm:"size:16;default:user" json:"role"`               // Role: user or admin
	Membership       string     `gorm:"size:16;default:free" json:"membership"`         // free, vip or admin
	Coins            int64      `gorm:"not null;default:0" json:"coins"`                // Coin balance, never negative
	XP               int64      `gorm:"not null;default:0" json:"xp"`                   // Total XP
	Level            int        `gorm:"not null;default:1" json:"level"`                // Level derived from XP
	BadgeTier        int        `gorm:"not null;default:1" json:"badge_tier"`           // Badge tier derived from XP
	IsBanned         bool       `gorm:"not null;default:false;index" json:"is_banned"`
	BanReason        string     `gorm:"size:255" json:"ban_reason,omitempty"`
	LastDailyClaim   *time.Time `json:"last_daily_claim,omitempty"` // Last daily coin claim
	TOTPSecret       string     `gorm:"size:64" json:"-"`           // Active 2FA secret
	TOTPPending      string     `gorm:"size:64" json:"-"`           // Secret awaiting confirmation
	TwoFactorEnabled bool       `gorm:"not null;default:false" json:"two_factor_enabled"`
	LastSeen         *time.Time `json:"last_seen,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user may use admin tooling
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Membership == MembershipAdmin
}

// Author is the public card of a user shown next to assets, threads, replies and reviews.
// It reads the users table but carries none of the account fields.
type Author struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	Membership string `json:"membership"`
	XP         int64  `json:"xp"`
	Level      int    `json:"level"`
	BadgeTier  int    `json:"badge_tier"`
}

// TableName maps Author onto users
func (Author) TableName() string { return "users" }

// AsAuthor trims the user down to its public card
func (u *User) AsAuthor() *Author {
	return &Author{
		ID:         u.ID,
		Username:   u.Username,
		Avatar:     u.Avatar,
		Membership: u.Membership,
		XP:         u.XP,
		Level:      u.Level,
		BadgeTier:  u.BadgeTier,
	}
}

// BackupCode is a one-time 2FA recovery code, stored as a bcrypt hash
type BackupCode struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"index;not null"`
	CodeHash  string     `gorm:"size:100;not null"`
	UsedAt    *time.Time // Set once consumed
	CreatedAt time.Time
}
