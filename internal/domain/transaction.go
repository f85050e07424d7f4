package domain

import "time"

// Coin transaction types
const (
	TxDailyReward = "daily_reward"
	TxSpinReward  = "spin_reward"
	TxTicketBuy   = "ticket_purchase"
	TxPurchase    = "purchase"
	TxSale        = "sale"
	TxAdminAdjust = "admin_adjust"
	TxTransfer    = "transfer"
	TxSignup      = "signup_bonus"
)

// CoinTransaction Model
type CoinTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                    // Primary key
	UserID       uint      `gorm:"index;not null" json:"user_id"`           // Owner of the movement
	Amount       int64     `gorm:"not null" json:"amount"`                  // Signed amount, negative for debits
	Type         string    `gorm:"size:32;index;not null" json:"type"`      // Transaction type
	Reason       string    `gorm:"size:255" json:"reason"`                  // Human readable description
	ReferenceID  string    `gorm:"size:64" json:"reference_id,omitempty"`   // Asset, spin or user reference
	BalanceAfter int64     `gorm:"not null;default:0" json:"balance_after"` // Balance once applied
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
