package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"fivem_tools/internal/domain"  // Importing domain models
	"fivem_tools/internal/metrics" // Reward counters
	"fivem_tools/internal/notify"  // Notifications
	"fivem_tools/internal/rewards" // Coin rules
	"fivem_tools/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

func balanceKey(userID uint) string {
	return "coins:user:" + idString(userID)
}

func historyPrefix(userID uint) string {
	return "coins:tx:user:" + idString(userID) + ":"
}

// invalidateCoins drops the cached balance and history of every given user
func invalidateCoins(ctx context.Context, rdb *redis.Client, userIDs ...uint) {
	for _, id := range userIDs {
		_ = utils.DeleteCache(ctx, rdb, balanceKey(id))            // Invalidate balance cache
		_ = utils.DeleteCacheByPrefix(ctx, rdb, historyPrefix(id)) // Invalidate every history page
	}
}

// GetCoinsHandler returns the coin balance of the authenticated user
func GetCoinsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := userIDFrom(c) // Get userID from context
		// Check if userID exists in context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := c.Request.Context()
		cacheKey := balanceKey(userID)
		var balance int64
		found, err := utils.GetCache(ctx, rdb, cacheKey, &balance) // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"coins": balance, "cached": true})
			return
		}
		var user domain.User
		// If not in cache, fetch from DB
		if err := db.Select("id", "coins").First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, user.Coins, utils.CacheTTL) // Cache the balance
		c.JSON(http.StatusOK, gin.H{"coins": user.Coins, "cached": false})
	}
}

type historyPage struct {
	Transactions []domain.CoinTransaction `json:"transactions"` // List of transactions
	Page         int                      `json:"page"`         // Current page
	PageSize     int                      `json:"page_size"`    // Page size
	Total        int64                    `json:"total"`        // Total transactions
	TotalPages   int                      `json:"total_pages"`  // Total pages
	Cached       bool                     `json:"cached"`
}

// GetCoinHistoryHandler returns the paginated coin transactions of the authenticated user
func GetCoinHistoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := userIDFrom(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		p := utils.ParsePage(c, "page_size", 20)
		// Redis cache key
		cacheKey := historyPrefix(userID) + "page:" + strconv.Itoa(p.Page) + ":size:" + strconv.Itoa(p.PageSize)
		ctx := c.Request.Context()
		var cached historyPage
		// Try to get from cache
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		query := db.Model(&domain.CoinTransaction{}).Where("user_id = ?", userID)
		var total int64 // Total count of transactions
		// Count total transactions for pagination
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count transactions", err, logrus.Fields{"user_id": userID})
			return
		}
		resp := historyPage{Page: p.Page, PageSize: p.PageSize, Total: total, TotalPages: p.TotalPages(total)}
		// Fetch paginated transactions
		if err := query.Order("created_at desc, id desc").
			Offset(p.Offset()).
			Limit(p.PageSize).
			Find(&resp.Transactions).Error; err != nil {
			serverError(c, "Failed to fetch transactions", err, logrus.Fields{"user_id": userID})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.CacheTTL) // Cache the page
		c.JSON(http.StatusOK, resp)                                  // Return transaction history
	}
}

// ClaimDailyCoinsHandler pays the daily coin reward
func ClaimDailyCoinsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := userIDFrom(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var res *rewards.DailyResult
		// Claim, credit and XP happen atomically
		err := d.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = rewards.ClaimDailyCoins(tx, userID, d.now())
			return err
		})
		var cooldown *rewards.CooldownError
		if errors.As(err, &cooldown) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":               "Already claimed today",
				"hours_until_reset":   cooldown.Hours(),
				"minutes_until_reset": cooldown.Minutes(),
				"next_claim_at":       cooldown.NextAt,
			})
			return
		}
		if err != nil {
			serverError(c, "Failed to claim daily reward", err, logrus.Fields{"user_id": userID})
			return
		}
		metrics.CoinsAwarded.WithLabelValues(domain.TxDailyReward).Add(float64(res.Coins))
		invalidateCoins(c.Request.Context(), d.Redis, userID)
		if d.Notifier != nil {
			d.Notifier.XP(userID, res.XP)
		}
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       "Daily reward claimed",
			"reward":        res.Coins,
			"new_balance":   res.Balance,
			"xp":            res.XP,
			"next_claim_at": res.NextAt,
		})
	}
}

// DailyCoinsStatusHandler tells whether the daily coins can be claimed
func DailyCoinsStatusHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		var user domain.User
		if err := d.DB.Select("id", "coins", "last_daily_claim").First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		canClaim, remaining, next := rewards.DailyStatus(user.LastDailyClaim, d.now())
		cd := rewards.CooldownError{Remaining: remaining}
		c.JSON(http.StatusOK, gin.H{
			"can_claim":           canClaim,
			"hours_until_reset":   cd.Hours(),
			"minutes_until_reset": cd.Minutes(),
			"coins":               user.Coins,
			"reward":              rewards.DailyCoins,
			"next_claim_at":       next,
		})
	}
}

// TransferRequest represents a transfer request
type TransferRequest struct {
	ToUserID   uint   `json:"to_user_id"`                                 // Target user ID
	ToUsername string `json:"to_username"`                                // Or target username
	Amount     int64  `json:"amount" binding:"required,min=1,max=100000"` // Transfer amount
	Note       string `json:"note" binding:"max=200"`
}

// TransferHandler allows a user to send coins to another user
func TransferHandler(db *gorm.DB, rdb *redis.Client, notifier *notify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		fromUserID, exists := userIDFrom(c) // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req TransferRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil || (req.ToUserID == 0 && req.ToUsername == "") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var toUser domain.User // Find target user
		query := db.Select("id", "username", "is_banned")
		if req.ToUserID != 0 {
			query = query.Where("id = ?", req.ToUserID)
		} else {
			query = query.Where("username = ?", req.ToUsername)
		}
		if err := query.First(&toUser).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Target user not found"})
			return
		}
		// Prevent transferring to self
		if toUser.ID == fromUserID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot transfer to yourself"})
			return
		}
		if toUser.IsBanned {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Target user is banned"})
			return
		}
		reason := "Transfer"
		if note := utils.SanitizeText(req.Note); note != "" {
			reason = "Transfer: " + note
		}
		var balance int64
		// Atomic transfer
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			balance, err = rewards.Transfer(tx, fromUserID, toUser.ID, req.Amount, reason)
			return err
		})
		if errors.Is(err, rewards.ErrInsufficientCoins) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient coins"})
			return
		}
		// Handle transaction result
		if err != nil {
			serverError(c, "Transfer failed", err, logrus.Fields{
				"from_user_id": fromUserID, // Sender user ID
				"to_user_id":   toUser.ID,  // Recipient user ID
				"amount":       req.Amount, // Transfer amount
			})
			return
		}
		// Log successful transfer
		logrus.WithFields(logrus.Fields{
			"from_user_id": fromUserID, // Sender user ID
			"to_user_id":   toUser.ID,  // Recipient user ID
			"amount":       req.Amount, // Transfer amount
			"type":         "transfer", // Transaction type
		}).Info("Transfer transaction")
		// Invalidate balance and history cache for both users
		invalidateCoins(c.Request.Context(), rdb, fromUserID, toUser.ID)
		if notifier != nil {
			notifier.Send(toUser.ID, domain.NotifyCoins, "Coins received",
				"You received "+strconv.FormatInt(req.Amount, 10)+" coins", "/coins")
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transfer successful", "new_balance": balance})
	}
}
