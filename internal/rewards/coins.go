package rewards

import (
	"time" // Daily cooldown

	"fivem_tools/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Daily coin reward
const (
	DailyCoins    = 50             // Coins paid per claim
	DailyCooldown = 24 * time.Hour // Time between two claims
)

// Movement describes one coin balance change
type Movement struct {
	UserID    uint   // Owner of the balance
	Amount    int64  // Always positive, the direction comes from Credit or Debit
	Type      string // Transaction type, one of the domain.Tx constants
	Reason    string // Shown in the coin history
	Reference string // What the movement relates to, e.g. user:12 or asset:7
}

// balanceOf reads the current balance inside tx
func balanceOf(tx *gorm.DB, userID uint) (int64, error) {
	var user domain.User
	if err := tx.Select("id", "coins").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.Coins, nil
}

// record writes the ledger row for a movement that already hit the balance
func record(tx *gorm.DB, m Movement, signed, balance int64) error {
	return tx.Create(&domain.CoinTransaction{
		UserID:       m.UserID,
		Amount:       signed,
		Type:         m.Type,
		Reason:       m.Reason,
		ReferenceID:  m.Reference,
		BalanceAfter: balance,
	}).Error
}

// Credit adds coins and records the transaction, returning the new balance
func Credit(tx *gorm.DB, m Movement) (int64, error) {
	if m.Amount <= 0 {
		return 0, ErrInvalidAmount
	}
	// Increment in SQL so concurrent credits never overwrite each other
	res := tx.Model(&domain.User{}).Where("id = ?", m.UserID).Update("coins", gorm.Expr("coins + ?", m.Amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound // No such user
	}
	balance, err := balanceOf(tx, m.UserID)
	if err != nil {
		return 0, err
	}
	// Ledger row carries the balance after the change
	if err := record(tx, m, m.Amount, balance); err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"user_id": m.UserID, "amount": m.Amount, "type": m.Type, "balance": balance}).Info("Coins credited")
	return balance, nil
}

// Debit removes coins only when the balance covers them
func Debit(tx *gorm.DB, m Movement) (int64, error) {
	if m.Amount <= 0 {
		return 0, ErrInvalidAmount
	}
	// The balance check and the decrement are one statement, the balance cannot go negative
	res := tx.Model(&domain.User{}).
		Where("id = ? AND coins >= ?", m.UserID, m.Amount).
		Update("coins", gorm.Expr("coins - ?", m.Amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientCoins // Missing users land here too
	}
	balance, err := balanceOf(tx, m.UserID)
	if err != nil {
		return 0, err
	}
	if err := record(tx, m, -m.Amount, balance); err != nil { // Negative amount in the ledger
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"user_id": m.UserID, "amount": m.Amount, "type": m.Type, "balance": balance}).Info("Coins debited")
	return balance, nil
}

// RemoveClamped takes up to Amount coins, never going below zero, and returns the amount actually removed
func RemoveClamped(tx *gorm.DB, m Movement) (removed, balance int64, err error) {
	if m.Amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	before, err := balanceOf(tx, m.UserID)
	if err != nil {
		return 0, 0, err
	}
	// Floor at zero instead of failing
	if err := tx.Model(&domain.User{}).Where("id = ?", m.UserID).
		Update("coins", gorm.Expr("CASE WHEN coins >= ? THEN coins - ? ELSE 0 END", m.Amount, m.Amount)).Error; err != nil {
		return 0, 0, err
	}
	balance, err = balanceOf(tx, m.UserID)
	if err != nil {
		return 0, 0, err
	}
	removed = before - balance // What the user actually lost
	if err := record(tx, m, -removed, balance); err != nil {
		return 0, 0, err
	}
	logrus.WithFields(logrus.Fields{"user_id": m.UserID, "requested": m.Amount, "removed": removed, "balance": balance}).Info("Coins removed")
	return removed, balance, nil
}

// Transfer moves coins from one user to another
func Transfer(tx *gorm.DB, fromID, toID uint, amount int64, reason string) (int64, error) {
	if fromID == toID {
		return 0, ErrSelfTransfer
	}
	// Debit first so an uncovered transfer fails before anything is credited
	balance, err := Debit(tx, Movement{UserID: fromID, Amount: amount, Type: domain.TxTransfer, Reason: reason, Reference: refUser(toID)})
	if err != nil {
		return 0, err
	}
	if _, err := Credit(tx, Movement{UserID: toID, Amount: amount, Type: domain.TxTransfer, Reason: reason, Reference: refUser(fromID)}); err != nil {
		return 0, err
	}
	return balance, nil
}

// DailyResult is the outcome of a daily coin claim
type DailyResult struct {
	Coins   int64     `json:"reward"`        // Coins paid
	Balance int64     `json:"new_balance"`   // Balance after the claim
	XP      *XPResult `json:"xp"`            // Daily login XP
	NextAt  time.Time `json:"next_claim_at"` // Earliest next claim
}

// DailyStatus reports whether the daily coins can be claimed at now
func DailyStatus(last *time.Time, now time.Time) (bool, time.Duration, time.Time) {
	if last == nil {
		return true, 0, now // Never claimed
	}
	next := last.Add(DailyCooldown)
	if !now.Before(next) {
		return true, 0, next
	}
	return false, next.Sub(now), next
}

// ClaimDailyCoins pays the daily reward once per 24 hours
func ClaimDailyCoins(tx *gorm.DB, userID uint, now time.Time) (*DailyResult, error) {
	var user domain.User
	if err := tx.Select("id", "last_daily_claim").First(&user, userID).Error; err != nil {
		return nil, err
	}
	if ok, remaining, next := DailyStatus(user.LastDailyClaim, now); !ok {
		return nil, &CooldownError{Remaining: remaining, NextAt: next}
	}
	// The condition repeats the cooldown check so two concurrent claims cannot both pass
	res := tx.Model(&domain.User{}).
		Where("id = ? AND (last_daily_claim IS NULL OR last_daily_claim <= ?)", userID, now.Add(-DailyCooldown)).
		Update("last_daily_claim", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &CooldownError{Remaining: DailyCooldown, NextAt: now.Add(DailyCooldown)}
	}
	// Pay out and award the login XP in the same transaction
	balance, err := Credit(tx, Movement{UserID: userID, Amount: DailyCoins, Type: domain.TxDailyReward, Reason: "Daily reward"})
	if err != nil {
		return nil, err
	}
	xp, err := AwardXP(tx, userID, ActivityDailyLogin, "")
	if err != nil {
		return nil, err
	}
	return &DailyResult{Coins: DailyCoins, Balance: balance, XP: xp, NextAt: now.Add(DailyCooldown)}, nil
}

// refUser builds the transaction reference for a counterparty
func refUser(id uint) string {
	return "user:" + itoa(id)
}
