package domain

import "time"

// Message is a direct message between two users
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"index:idx_message_pair;not null" json:"sender_id"`
	ReceiverID uint      `gorm:"index:idx_message_pair;index;not null" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// Conversation summarises the messages exchanged with one partner
type Conversation struct {
	Partner       *Author   `json:"user"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int64     `json:"unread_count"`
}
