package api

import (
	"net/http" // HTTP status codes

	"fivem_tools/internal/db"       // Default prizes
	"fivem_tools/internal/domain"   // Importing domain models
	"fivem_tools/internal/rewards"  // Ticket grants
	"fivem_tools/internal/settings" // Spin settings

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// PrizeRequest creates or edits a wheel prize
type PrizeRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Type        *string  `json:"type" binding:"omitempty,oneof=coins ticket nothing"`
	Value       *int64   `json:"value" binding:"omitempty,min=0,max=1000000"`
	Probability *float64 `json:"probability" binding:"omitempty,min=0,max=100"`
	Color       *string  `json:"color" binding:"omitempty,hexcolor"`
	Rarity      *string  `json:"rarity" binding:"omitempty,max=16"`
	SortOrder   *int     `json:"sort_order"`
	IsActive    *bool    `json:"is_active"`
}

func (r *PrizeRequest) updates() map[string]any {
	out := map[string]any{}
	if r.Name != nil {
		out["name"] = *r.Name
	}
	if r.Type != nil {
		out["type"] = *r.Type
	}
	if r.Value != nil {
		out["value"] = *r.Value
	}
	if r.Probability != nil {
		out["probability"] = *r.Probability
	}
	if r.Color != nil {
		out["color"] = *r.Color
	}
	if r.Rarity != nil {
		out["rarity"] = *r.Rarity
	}
	if r.SortOrder != nil {
		out["sort_order"] = *r.SortOrder
	}
	if r.IsActive != nil {
		out["is_active"] = *r.IsActive
	}
	return out
}

// ListPrizesHandler lists every prize, active or not
func ListPrizesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var prizes []domain.SpinPrize
		if err := db.Order("sort_order, id").Find(&prizes).Error; err != nil {
			serverError(c, "Failed to fetch prizes", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"prizes": prizes})
	}
}

// CreatePrizeHandler adds a prize to the wheel
func CreatePrizeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PrizeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == nil || req.Type == nil || req.Probability == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, type and probability are required"})
			return
		}
		prize := domain.SpinPrize{Name: *req.Name, Type: *req.Type, Rarity: "common", IsActive: true}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&prize).Error; err != nil {
				return err
			}
			// Apply the remaining fields, including false and zero values
			return tx.Model(&domain.SpinPrize{}).Where("id = ?", prize.ID).Updates(req.updates()).Error
		})
		if err == nil {
			err = db.First(&prize, prize.ID).Error
		}
		if err != nil {
			serverError(c, "Failed to create prize", err, nil)
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"prize_id": prize.ID, "admin_id": adminID}).Info("Spin prize created")
		c.JSON(http.StatusCreated, gin.H{"prize": prize})
	}
}

// UpdatePrizeHandler edits a prize
func UpdatePrizeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var prize domain.SpinPrize
		if err := db.First(&prize, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prize not found"})
			return
		}
		var req PrizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		updates := req.updates()
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
			return
		}
		if err := db.Model(&domain.SpinPrize{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			serverError(c, "Failed to update prize", err, logrus.Fields{"prize_id": id})
			return
		}
		if err := db.First(&prize, id).Error; err != nil {
			serverError(c, "Failed to fetch prize", err, logrus.Fields{"prize_id": id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"prize": prize})
	}
}

// DeletePrizeHandler removes a prize; queued force wins for it are skipped
func DeletePrizeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		res := db.Delete(&domain.SpinPrize{}, id)
		if res.Error != nil {
			serverError(c, "Failed to delete prize", res.Error, logrus.Fields{"prize_id": id})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prize not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// InitPrizesHandler seeds the default wheel when it is empty
func InitPrizesHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var created int
		err := gdb.Transaction(func(tx *gorm.DB) error {
			var err error
			created, err = db.SeedPrizes(tx)
			return err
		})
		if err != nil {
			serverError(c, "Failed to initialize prizes", err, nil)
			return
		}
		if created == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Prizes already exist"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "created": created})
	}
}

// GetSpinSettingsHandler returns the wheel settings
func GetSpinSettingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := settings.LoadSpin(db)
		if err != nil {
			serverError(c, "Failed to load settings", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"settings": cfg})
	}
}

// SpinSettingsRequest changes the wheel settings
type SpinSettingsRequest struct {
	TicketCost       *int   `json:"cost" binding:"omitempty,min=1,max=100"`
	IsEnabled        *bool  `json:"is_enabled"`
	TicketPriceCoins *int64 `json:"ticket_price_coins" binding:"omitempty,min=1,max=1000000"`
}

// PutSpinSettingsHandler updates the wheel settings
func PutSpinSettingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SpinSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings"})
			return
		}
		cfg, err := settings.LoadSpin(db)
		if err != nil {
			serverError(c, "Failed to load settings", err, nil)
			return
		}
		if req.TicketCost != nil {
			cfg.TicketCost = *req.TicketCost
		}
		if req.IsEnabled != nil {
			cfg.IsEnabled = *req.IsEnabled
		}
		if req.TicketPriceCoins != nil {
			cfg.TicketPriceCoins = *req.TicketPriceCoins
		}
		if err := settings.SaveSpin(db, cfg); err != nil {
			serverError(c, "Failed to save settings", err, nil)
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"admin_id": adminID, "settings": cfg}).Info("Spin settings updated")
		c.JSON(http.StatusOK, gin.H{"settings": cfg})
	}
}

// ForceWinRequest queues a prize for a user's next spin
type ForceWinRequest struct {
	UserID  uint `json:"user_id" binding:"required"`
	PrizeID uint `json:"prize_id" binding:"required"`
}

// CreateForceWinHandler queues a forced outcome
func CreateForceWinHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForceWinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var n int64
		if err := db.Model(&domain.User{}).Where("id = ?", req.UserID).Count(&n).Error; err != nil || n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		var prize domain.SpinPrize
		if err := db.First(&prize, req.PrizeID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prize not found"})
			return
		}
		adminID, _ := userIDFrom(c)
		fw := domain.ForceWin{UserID: req.UserID, PrizeID: prize.ID, CreatedBy: adminID}
		if err := db.Create(&fw).Error; err != nil {
			serverError(c, "Failed to queue force win", err, nil)
			return
		}
		fw.Prize = &prize
		logrus.WithFields(logrus.Fields{"user_id": req.UserID, "prize_id": prize.ID, "admin_id": adminID}).Warn("Force win queued")
		c.JSON(http.StatusCreated, gin.H{"force_win": fw})
	}
}

// ListForceWinsHandler lists queued force wins, newest first
func ListForceWinsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Preload("Prize").Order("id desc")
		if c.Query("all") != "true" {
			q = q.Where("is_used = ?", false)
		}
		var wins []domain.ForceWin
		if err := q.Find(&wins).Error; err != nil {
			serverError(c, "Failed to fetch force wins", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"force_wins": wins})
	}
}

// PrizeCount is how often a prize was won
type PrizeCount struct {
	PrizeID   uint   `json:"prize_id"`
	PrizeName string `json:"prize_name"`
	PrizeType string `json:"prize_type"`
	Count     int64  `json:"count"`
}

// SpinStatsHandler summarizes spin activity
func SpinStatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var totalSpins, spinners, forced int64
		var coins struct{ Total int64 }
		var byPrize []PrizeCount
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&domain.SpinHistory{}).Count(&totalSpins).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.SpinHistory{}).Distinct("user_id").Count(&spinners).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.SpinHistory{}).Where("forced = ?", true).Count(&forced).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.SpinHistory{}).Select("COALESCE(SUM(prize_value), 0) AS total").
				Where("prize_type = ?", domain.PrizeCoins).Scan(&coins).Error; err != nil {
				return err
			}
			return tx.Model(&domain.SpinHistory{}).
				Select("prize_id, prize_name, prize_type, COUNT(*) AS count").
				Group("prize_id, prize_name, prize_type").Order("count desc").Scan(&byPrize).Error
		})
		if err != nil {
			serverError(c, "Failed to compute spin stats", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"total_spins":   totalSpins,
			"unique_users":  spinners,
			"forced_spins":  forced,
			"coins_awarded": coins.Total,
			"by_prize":      byPrize,
		})
	}
}

// GrantTicketsRequest gives tickets to a user
type GrantTicketsRequest struct {
	UserID   uint `json:"user_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1,max=100"`
}

// GrantTicketsHandler gives non-expiring tickets to a user
func GrantTicketsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User
		if err := d.DB.First(&user, req.UserID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		var tickets int64
		err := d.DB.Transaction(func(tx *gorm.DB) error {
			if err := rewards.GrantTickets(tx, user.ID, req.Quantity, domain.TicketAdmin, nil); err != nil {
				return err
			}
			var err error
			tickets, err = rewards.CountTickets(tx, user.ID, d.now())
			return err
		})
		if err != nil {
			serverError(c, "Failed to grant tickets", err, logrus.Fields{"user_id": user.ID})
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "quantity": req.Quantity, "admin_id": adminID}).Info("Spin tickets granted")
		if d.Notifier != nil {
			d.Notifier.Send(user.ID, domain.NotifyReward, "Spin tickets received", "An admin gave you spin tickets", "/spin")
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "granted": req.Quantity, "tickets": tickets})
	}
}
