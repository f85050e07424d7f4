package rewards

import (
	"errors" // Error comparison
	"time"   // Calendar days

	"fivem_tools/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

const (
	dateLayout = "2006-01-02" // Claim dates are stored as UTC calendar days
	maxStreak  = 365          // Streaks stop counting after a year
)

// DateKey formats t as its UTC calendar date
func DateKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// NextMidnight returns the start of the UTC day after t
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// walkStreak counts consecutive claimed days going back from day
func walkStreak(dates map[string]bool, day time.Time) int {
	n := 0
	// Stop at the first missed day
	for dates[DateKey(day)] && n < maxStreak {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// ComputeStreak returns the streak a claim made today would have
func ComputeStreak(dates map[string]bool, today time.Time) int {
	return walkStreak(dates, today.AddDate(0, 0, -1)) + 1
}

// TicketsForStreak is the daily ticket bonus for a streak
func TicketsForStreak(streak int) int {
	switch {
	case streak >= 7:
		return 3 // A full week
	case streak >= 3:
		return 2
	}
	return 1 // Every claim gets at least one
}

// claimDates loads the recent ticket claim days as a set
func claimDates(db *gorm.DB, userID uint) (map[string]bool, error) {
	var dates []string
	if err := db.Model(&domain.DailyClaim{}).
		Where("user_id = ? AND claim_type = ?", userID, domain.ClaimSpinTickets).
		Order("claim_date DESC").Limit(maxStreak+1).
		Pluck("claim_date", &dates).Error; err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set, nil
}

// DailyTicketResult is the outcome of a daily ticket claim
type DailyTicketResult struct {
	Streak       int       `json:"new_streak"`    // Streak including today
	BonusTickets int       `json:"bonus_tickets"` // Tickets granted by this claim
	TotalTickets int64     `json:"new_tickets"`   // Valid tickets after the claim
	ExpiresAt    time.Time `json:"expires_at"`    // Daily tickets lapse at the next UTC midnight
}

// ClaimDailyTickets grants the streak bonus once per UTC day
func ClaimDailyTickets(tx *gorm.DB, userID uint, now time.Time) (*DailyTicketResult, error) {
	dates, err := claimDates(tx, userID)
	if err != nil {
		return nil, err
	}
	today := DateKey(now)
	if dates[today] {
		return nil, ErrAlreadyClaimed // One claim per UTC day
	}
	streak := ComputeStreak(dates, now)
	bonus := TicketsForStreak(streak)
	expires := NextMidnight(now)
	claim := domain.DailyClaim{UserID: userID, ClaimType: domain.ClaimSpinTickets, ClaimDate: today, Streak: streak, Tickets: bonus}
	// The unique (user, type, date) index rejects a concurrent second claim
	if err := tx.Create(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}
	if err := GrantTickets(tx, userID, bonus, domain.TicketDaily, &expires); err != nil { // Use them today or lose them
		return nil, err
	}
	total, err := CountTickets(tx, userID, now)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "streak": streak, "tickets": bonus}).Info("Daily tickets claimed")
	return &DailyTicketResult{Streak: streak, BonusTickets: bonus, TotalTickets: total, ExpiresAt: expires}, nil
}

// DailyTicketStatus describes the user's daily ticket state
type DailyTicketStatus struct {
	CanClaim      bool      `json:"can_claim"`             // Not claimed yet today
	ClaimedToday  bool      `json:"claimed_today"`         // Claimed already today
	CurrentStreak int       `json:"current_streak"`        // Consecutive days so far
	NextStreak    int       `json:"next_streak,omitempty"` // Streak a claim now would reach
	TotalTickets  int64     `json:"total_tickets"`         // Valid tickets held
	NextClaimAt   time.Time `json:"next_claim_at"`         // Next UTC midnight
}

// TicketStatus reads the daily ticket state without changing it
func TicketStatus(db *gorm.DB, userID uint, now time.Time) (*DailyTicketStatus, error) {
	dates, err := claimDates(db, userID)
	if err != nil {
		return nil, err
	}
	total, err := CountTickets(db, userID, now)
	if err != nil {
		return nil, err
	}
	st := &DailyTicketStatus{TotalTickets: total, NextClaimAt: NextMidnight(now)}
	if dates[DateKey(now)] {
		// Today counts toward the streak
		st.ClaimedToday = true
		st.CurrentStreak = walkStreak(dates, now)
		return st, nil
	}
	// The streak is still alive if yesterday was claimed
	st.CanClaim = true
	st.CurrentStreak = walkStreak(dates, now.AddDate(0, 0, -1))
	st.NextStreak = st.CurrentStreak + 1
	return st, nil
}
