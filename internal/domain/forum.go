package domain

import "time"

// Thread statuses
const (
	ThreadApproved = "approved"
	ThreadPending  = "pending"
	ThreadRejected = "rejected"
)

// Like target types
const (
	LikeThread = "thread"
	LikeReply  = "reply"
	LikeAsset  = "asset"
)

// ForumCategory Model
type ForumCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"size:255" json:"description"`
	Icon        string    `gorm:"size:32" json:"icon"`
	Color       string    `gorm:"size:16" json:"color"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ForumThread Model
type ForumThread struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CategoryID   uint           `gorm:"index;not null" json:"category_id"`
	Category     *ForumCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AuthorID     uint           `gorm:"index;not null" json:"author_id"`
	Author       *Author        `gorm:"foreignKey:AuthorID;-:migration" json:"author,omitempty"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	Images       []string       `gorm:"serializer:json;type:text" json:"images"`
	Status       string         `gorm:"size:16;index;not null;default:approved" json:"status"`
	IsPinned     bool           `gorm:"not null;default:false" json:"is_pinned"`
	IsLocked     bool           `gorm:"not null;default:false" json:"is_locked"`
	IsDeleted    bool           `gorm:"not null;default:false;index" json:"-"`
	Views        int64          `gorm:"not null;default:0" json:"views"`
	Likes        int64          `gorm:"not null;default:0" json:"likes"`
	RepliesCount int64          `gorm:"not null;default:0" json:"replies_count"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ForumReply Model
type ForumReply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index;not null" json:"thread_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Author    *Author   `gorm:"foreignKey:AuthorID;-:migration" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Likes     int64     `gorm:"not null;default:0" json:"likes"`
	IsDeleted bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Like Model, one per user and target
type Like struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_like_target;not null" json:"user_id"`
	TargetType string    `gorm:"size:16;uniqueIndex:idx_like_target;not null" json:"target_type"`
	TargetID   uint      `gorm:"uniqueIndex:idx_like_target;not null" json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}
