// Package rewards holds the coin, ticket, spin and XP rules shared by the handlers.
package rewards

import (
	"errors" // Sentinel errors
	"fmt"    // Error formatting
	"time"   // Cooldown durations
)

// Business rule errors
var (
	ErrInsufficientCoins   = errors.New("insufficient coins")          // Balance does not cover a debit
	ErrInsufficientTickets = errors.New("insufficient tickets")        // No unexpired ticket left
	ErrAlreadyClaimed      = errors.New("already claimed")             // Daily reward still on cooldown
	ErrNoPrizes            = errors.New("no active prizes configured") // Wheel is empty
	ErrSpinDisabled        = errors.New("spin wheel is disabled")      // Event switched off
	ErrUnknownActivity     = errors.New("unknown activity")            // No XP rule for the activity
	ErrInvalidAmount       = errors.New("invalid amount")              // Zero or negative coin amount
	ErrSelfTransfer        = errors.New("cannot transfer to yourself") // Sender is the receiver
)

// CooldownError reports how long until a timed reward can be claimed again
type CooldownError struct {
	Remaining time.Duration // Time left on the cooldown
	NextAt    time.Time     // When the reward opens again
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("already claimed, next claim in %s", e.Remaining.Round(time.Minute))
}

// Unwrap lets errors.Is match ErrAlreadyClaimed
func (e *CooldownError) Unwrap() error { return ErrAlreadyClaimed }

// Hours returns the whole hours left
func (e *CooldownError) Hours() int { return int(e.Remaining / time.Hour) }

// Minutes returns the minutes left past the whole hours
func (e *CooldownError) Minutes() int { return int((e.Remaining % time.Hour) / time.Minute) }
