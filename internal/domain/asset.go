package domain

import (
	"time"

	"gorm.io/gorm"
)

// Asset statuses
const (
	AssetPending  = "pending"
	AssetApproved = "approved"
	AssetRejected = "rejected"
)

// AssetCategories lists the accepted asset categories
var AssetCategories = []string{"scripts", "mlo", "vehicles", "clothing"}

// AssetFrameworks lists the accepted FiveM frameworks
var AssetFrameworks = []string{"esx", "qbcore", "qbox", "standalone"}

// Asset Model
type Asset struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AuthorID     uint           `gorm:"index;not null" json:"author_id"`
	Author       *Author        `gorm:"foreignKey:AuthorID;-:migration" json:"author,omitempty"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Description  string         `gorm:"type:text;not null" json:"description"`
	Category     string         `gorm:"size:32;index;not null" json:"category"`
	Framework    string         `gorm:"size:32;index;not null;default:standalone" json:"framework"`
	Version      string         `gorm:"size:32" json:"version"`
	CoinPrice    int64          `gorm:"not null;default:0" json:"coin_price"`
	DownloadURL  string         `gorm:"size:1024;not null" json:"-"`
	ThumbnailURL string         `gorm:"size:1024" json:"thumbnail_url"`
	YoutubeURL   string         `gorm:"size:1024" json:"youtube_url,omitempty"`
	GithubURL    string         `gorm:"size:1024" json:"github_url,omitempty"`
	Tags         []string       `gorm:"serializer:json;type:text" json:"tags"`
	Features     []string       `gorm:"serializer:json;type:text" json:"features"`
	Status       string         `gorm:"size:16;index;not null;default:pending" json:"status"`
	RejectReason string         `gorm:"size:255" json:"reject_reason,omitempty"`
	IsFeatured   bool           `gorm:"not null;default:false" json:"is_featured"`
	Downloads    int64          `gorm:"not null;default:0" json:"downloads"`
	Likes        int64          `gorm:"not null;default:0" json:"likes"`
	Rating       float64        `gorm:"not null;default:0" json:"rating"`
	ReviewCount  int64          `gorm:"not null;default:0" json:"review_count"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// PriceLabel is "free" for zero-priced assets and "premium" otherwise
func (a *Asset) PriceLabel() string {
	if a.CoinPrice > 0 {
		return "premium"
	}
	return "free"
}

// Review Model, one per user and asset
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"uniqueIndex:idx_review_asset_user;not null" json:"asset_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_asset_user;not null" json:"user_id"`
	User      *Author   `gorm:"foreignKey:UserID;-:migration" json:"user,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Purchase records that a user paid for a premium asset
type Purchase struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"uniqueIndex:idx_purchase_asset_user;not null" json:"asset_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_purchase_asset_user;not null" json:"user_id"`
	Price     int64     `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// Download Model
type Download struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"index;not null" json:"asset_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
