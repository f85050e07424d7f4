package rewards

import (
	"errors"  // Error comparison
	"strconv" // Reference formatting
	"time"    // Ticket expiry

	"fivem_tools/internal/domain"   // Importing domain models
	"fivem_tools/internal/settings" // Spin settings

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// PickPrize chooses a prize by relative probability; r must be in [0, 1)
func PickPrize(prizes []domain.SpinPrize, r float64) domain.SpinPrize {
	// Probabilities are weights, they need not add up to 100
	var total float64
	for _, p := range prizes {
		if p.Probability > 0 {
			total += p.Probability
		}
	}
	roll := r * total
	for _, p := range prizes {
		if p.Probability <= 0 {
			continue // Never drawn
		}
		if roll < p.Probability {
			return p
		}
		roll -= p.Probability
	}
	return prizes[len(prizes)-1] // Rounding fallback
}

// validTickets scopes to unused tickets that have not expired at now
func validTickets(db *gorm.DB, userID uint, now time.Time) *gorm.DB {
	return db.Model(&domain.SpinTicket{}).
		Where("user_id = ? AND is_used = ?", userID, false).
		Where("expires_at IS NULL OR expires_at > ?", now)
}

// CountTickets returns the user's unused, unexpired tickets
func CountTickets(db *gorm.DB, userID uint, now time.Time) (int64, error) {
	var n int64
	err := validTickets(db, userID, now).Count(&n).Error
	return n, err
}

// GrantTickets creates n tickets for the user
func GrantTickets(tx *gorm.DB, userID uint, n int, ticketType string, expiresAt *time.Time) error {
	if n <= 0 {
		return nil // Nothing to grant
	}
	tickets := make([]domain.SpinTicket, n)
	for i := range tickets {
		tickets[i] = domain.SpinTicket{UserID: userID, TicketType: ticketType, ExpiresAt: expiresAt}
	}
	return tx.Create(&tickets).Error // One batch insert
}

// ConsumeTickets marks n valid tickets used, soonest expiring first
func ConsumeTickets(tx *gorm.DB, userID uint, n int, now time.Time) error {
	// Expiring tickets go first, tickets without expiry last
	var ids []uint
	if err := validTickets(tx, userID, now).
		Order("CASE WHEN expires_at IS NULL THEN 1 ELSE 0 END, expires_at, id").
		Limit(n).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) < n {
		return ErrInsufficientTickets
	}
	// is_used in the condition keeps a ticket from being spent twice
	res := tx.Model(&domain.SpinTicket{}).
		Where("id IN ? AND is_used = ?", ids, false).
		Updates(map[string]any{"is_used": true, "used_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(n) {
		return ErrInsufficientTickets // Raced with another spin
	}
	return nil
}

// ActivePrizes lists the prizes currently on the wheel
func ActivePrizes(db *gorm.DB) ([]domain.SpinPrize, error) {
	var prizes []domain.SpinPrize
	err := db.Where("is_active = ?", true).Order("sort_order, id").Find(&prizes).Error
	return prizes, err
}

// SpinResult is the outcome of one spin
type SpinResult struct {
	Prize   domain.SpinPrize `json:"prize"`
	Tickets int64            `json:"tickets"` // Valid tickets left
	Balance int64            `json:"balance"` // Coin balance after the prize
	Forced  bool             `json:"-"`       // Came from a force win
}

// takeForceWin claims the oldest pending force win of the user, if any
func takeForceWin(tx *gorm.DB, userID uint, now time.Time) (*domain.SpinPrize, error) {
	var fw domain.ForceWin
	err := tx.Preload("Prize").Where("user_id = ? AND is_used = ?", userID, false).Order("id").First(&fw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Normal spin
	}
	if err != nil {
		return nil, err
	}
	res := tx.Model(&domain.ForceWin{}).Where("id = ? AND is_used = ?", fw.ID, false).
		Updates(map[string]any{"is_used": true, "used_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || fw.Prize == nil {
		return nil, nil // Already used, or the prize was deleted
	}
	return fw.Prize, nil
}

// Spin consumes tickets and awards one prize, must run inside a transaction
func Spin(tx *gorm.DB, userID uint, cfg settings.Spin, r float64, now time.Time) (*SpinResult, error) {
	if !cfg.IsEnabled {
		return nil, ErrSpinDisabled
	}
	// Pay first, a spin without tickets never reaches the wheel
	if err := ConsumeTickets(tx, userID, cfg.TicketCost, now); err != nil {
		return nil, err
	}
	out := &SpinResult{}
	// A pending force win overrides the roll
	forced, err := takeForceWin(tx, userID, now)
	if err != nil {
		return nil, err
	}
	if forced != nil {
		out.Prize, out.Forced = *forced, true
	} else {
		prizes, err := ActivePrizes(tx)
		if err != nil {
			return nil, err
		}
		if len(prizes) == 0 {
			return nil, ErrNoPrizes
		}
		out.Prize = PickPrize(prizes, r)
	}
	// Deliver the prize, items and nothing prizes only go to the history
	ref := "prize:" + itoa(out.Prize.ID)
	switch out.Prize.Type {
	case domain.PrizeCoins:
		if out.Prize.Value > 0 {
			if _, err := Credit(tx, Movement{UserID: userID, Amount: out.Prize.Value, Type: domain.TxSpinReward, Reason: "Spin wheel: " + out.Prize.Name, Reference: ref}); err != nil {
				return nil, err
			}
		}
	case domain.PrizeTicket:
		if err := GrantTickets(tx, userID, int(out.Prize.Value), domain.TicketPrize, nil); err != nil {
			return nil, err
		}
	}
	// Record the spin
	if err := tx.Create(&domain.SpinHistory{
		UserID:      userID,
		PrizeID:     out.Prize.ID,
		PrizeName:   out.Prize.Name,
		PrizeType:   out.Prize.Type,
		PrizeValue:  out.Prize.Value,
		TicketsUsed: cfg.TicketCost,
		Forced:      out.Forced,
	}).Error; err != nil {
		return nil, err
	}
	// Report what is left after the spin
	if out.Tickets, err = CountTickets(tx, userID, now); err != nil {
		return nil, err
	}
	if out.Balance, err = balanceOf(tx, userID); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"prize":   out.Prize.Name,
		"type":    out.Prize.Type,
		"value":   out.Prize.Value,
		"forced":  out.Forced,
	}).Info("Spin completed")
	return out, nil
}

// BuyTickets pays the ticket price for quantity tickets
func BuyTickets(tx *gorm.DB, userID uint, quantity int, cfg settings.Spin) (int64, error) {
	if quantity <= 0 {
		return 0, ErrInvalidAmount
	}
	cost := cfg.TicketPriceCoins * int64(quantity)
	// Debit and grant share tx, a failed grant rolls the payment back
	balance, err := Debit(tx, Movement{UserID: userID, Amount: cost, Type: domain.TxTicketBuy, Reason: strconv.Itoa(quantity) + " spin ticket(s)"})
	if err != nil {
		return 0, err
	}
	if err := GrantTickets(tx, userID, quantity, domain.TicketPurchase, nil); err != nil { // Bought tickets never expire
		return 0, err
	}
	return balance, nil
}

// itoa formats an id for references
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
