package api

import (
	"errors"    // Error comparison
	"math/rand" // Default spin roll
	"net/http"  // HTTP status codes

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/metrics"    // Spin counters
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/rewards"    // Spin and ticket rules
	"fivem_tools/internal/settings"   // Spin settings
	"fivem_tools/internal/utils"      // Pagination

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

func (d *Deps) roll() float64 {
	if d.Rand != nil {
		return d.Rand()
	}
	return rand.Float64()
}

// SpinWheelHandler returns the wheel, its settings and the caller's tickets
func SpinWheelHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		prizes, err := rewards.ActivePrizes(d.DB)
		if err != nil {
			serverError(c, "Failed to load prizes", err, nil)
			return
		}
		cfg, err := settings.LoadSpin(d.DB)
		if err != nil {
			serverError(c, "Failed to load spin settings", err, nil)
			return
		}
		var tickets int64
		if userID, ok := userIDFrom(c); ok {
			if tickets, err = rewards.CountTickets(d.DB, userID, d.now()); err != nil {
				serverError(c, "Failed to count tickets", err, logrus.Fields{"user_id": userID})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"prizes": prizes, "tickets": tickets, "settings": cfg})
	}
}

// SpinHandler spends tickets on one spin
func SpinHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		cfg, err := settings.LoadSpin(d.DB)
		if err != nil {
			serverError(c, "Failed to load spin settings", err, nil)
			return
		}
		if !cfg.IsEnabled {
			c.JSON(http.StatusForbidden, gin.H{"error": "Event is currently disabled"})
			return
		}
		if d.AutoBan != nil {
			banned, err := d.AutoBan.CheckSpin(user)
			if err != nil {
				serverError(c, "Failed to check spin activity", err, logrus.Fields{"user_id": user.ID})
				return
			}
			if banned {
				c.JSON(http.StatusForbidden, gin.H{"error": "Account banned", "reason": "Auto-Ban: Spin wheel abuse detected"})
				return
			}
		}
		var res *rewards.SpinResult
		err = d.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = rewards.Spin(tx, user.ID, cfg, d.roll(), d.now())
			return err
		})
		switch {
		case errors.Is(err, rewards.ErrInsufficientTickets):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough spin tickets", "required": cfg.TicketCost})
			return
		case errors.Is(err, rewards.ErrNoPrizes):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No active prizes configured"})
			return
		case errors.Is(err, rewards.ErrSpinDisabled):
			c.JSON(http.StatusForbidden, gin.H{"error": "Event is currently disabled"})
			return
		case err != nil:
			serverError(c, "Spin failed", err, logrus.Fields{"user_id": user.ID})
			return
		}
		metrics.Spins.WithLabelValues(res.Prize.Type).Inc()
		if res.Prize.Type == domain.PrizeCoins && res.Prize.Value > 0 {
			metrics.CoinsAwarded.WithLabelValues(domain.TxSpinReward).Add(float64(res.Prize.Value))
			invalidateCoins(c.Request.Context(), d.Redis, user.ID)
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"prize":   res.Prize,
			"tickets": res.Tickets,
			"balance": res.Balance,
			"message": "You won " + res.Prize.Name + "!",
		})
	}
}

// BuyTicketsRequest is a ticket purchase
type BuyTicketsRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=10"`
}

// BuyTicketsHandler sells spin tickets for coins
func BuyTicketsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		var req BuyTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be between 1 and 10"})
			return
		}
		cfg, err := settings.LoadSpin(d.DB)
		if err != nil {
			serverError(c, "Failed to load spin settings", err, nil)
			return
		}
		if !cfg.IsEnabled {
			c.JSON(http.StatusForbidden, gin.H{"error": "Event is currently disabled"})
			return
		}
		var balance, tickets int64
		err = d.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			if balance, err = rewards.BuyTickets(tx, userID, req.Quantity, cfg); err != nil {
				return err
			}
			tickets, err = rewards.CountTickets(tx, userID, d.now())
			return err
		})
		if errors.Is(err, rewards.ErrInsufficientCoins) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient coins"})
			return
		}
		if err != nil {
			serverError(c, "Failed to buy tickets", err, logrus.Fields{"user_id": userID, "quantity": req.Quantity})
			return
		}
		invalidateCoins(c.Request.Context(), d.Redis, userID)
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"purchased":   req.Quantity,
			"cost":        cfg.TicketPriceCoins * int64(req.Quantity),
			"tickets":     tickets,
			"new_balance": balance,
		})
	}
}

// ClaimDailyTicketsHandler grants the daily streak tickets
func ClaimDailyTicketsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		var res *rewards.DailyTicketResult
		err := d.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = rewards.ClaimDailyTickets(tx, userID, d.now())
			return err
		})
		if errors.Is(err, rewards.ErrAlreadyClaimed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already claimed today"})
			return
		}
		if err != nil {
			serverError(c, "Failed to claim daily tickets", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"new_streak":    res.Streak,
			"bonus_tickets": res.BonusTickets,
			"new_tickets":   res.TotalTickets,
			"expires_at":    res.ExpiresAt,
		})
	}
}

// DailyTicketStatusHandler reports the daily ticket streak
func DailyTicketStatusHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		st, err := rewards.TicketStatus(d.DB, userID, d.now())
		if err != nil {
			serverError(c, "Failed to load daily status", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// SpinHistoryHandler lists the caller's spins, newest first
func SpinHistoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		p := utils.ParsePage(c, "page_size", 20)
		query := db.Model(&domain.SpinHistory{}).Where("user_id = ?", userID)
		var total int64
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count spins", err, logrus.Fields{"user_id": userID})
			return
		}
		var history []domain.SpinHistory
		if err := query.Order("created_at desc, id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&history).Error; err != nil {
			serverError(c, "Failed to fetch spins", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"history":     history,
			"page":        p.Page,
			"page_size":   p.PageSize,
			"total":       total,
			"total_pages": p.TotalPages(total),
		})
	}
}
