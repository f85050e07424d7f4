package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Date filters

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/metrics"    // Reward counters
	"fivem_tools/internal/moderation" // Ban rules
	"fivem_tools/internal/notify"     // Notifications
	"fivem_tools/internal/rewards"    // Coin and badge rules
	"fivem_tools/internal/settings"   // Site settings
	"fivem_tools/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

const adminUsersPrefix = "admin:users:"

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID         uint       `json:"id"`         // User ID
	DiscordID  string     `json:"discord_id"` // Discord snowflake
	Username   string     `json:"username"`   // Username
	Role       string     `json:"role"`       // User role
	Membership string     `json:"membership"` // Membership tier
	Coins      int64      `json:"coins"`      // Coin balance
	XP         int64      `json:"xp"`         // Total XP
	Level      int        `json:"level"`      // Level
	IsBanned   bool       `json:"is_banned"`  // Ban flag
	BanReason  string     `json:"ban_reason"` // Ban reason
	LastSeen   *time.Time `json:"last_seen"`  // Last login
	CreatedAt  time.Time  `json:"created_at"` // Signup time
	TwoFactor  bool       `json:"two_factor"` // 2FA enabled
}

func adminView(u domain.User) UserAdminResponse {
	return UserAdminResponse{
		ID:         u.ID,
		DiscordID:  u.DiscordID,
		Username:   u.Username,
		Role:       u.Role,
		Membership: u.Membership,
		Coins:      u.Coins,
		XP:         u.XP,
		Level:      u.Level,
		IsBanned:   u.IsBanned,
		BanReason:  u.BanReason,
		LastSeen:   u.LastSeen,
		CreatedAt:  u.CreatedAt,
		TwoFactor:  u.TwoFactorEnabled,
	}
}

type userListPage struct {
	Users      []UserAdminResponse `json:"users"`       // List of users
	Page       int                 `json:"page"`        // Current page
	PageSize   int                 `json:"page_size"`   // Page size
	Total      int64               `json:"total"`       // Total number of users
	TotalPages int                 `json:"total_pages"` // Total pages
	Cached     bool                `json:"cached"`      // Response is from cache
}

// ListUsersHandler returns all users with their balances
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p := utils.ParsePage(c, "page_size", 20)
		search := strings.TrimSpace(c.Query("search"))
		// Create a cache key based on pagination and search parameters
		cacheKey := adminUsersPrefix + "page=" + idString(uint(p.Page)) + ":size=" + idString(uint(p.PageSize)) + ":q=" + search
		var cached userListPage
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		query := db.Model(&domain.User{})
		if search != "" {
			pattern := likePattern(search)
			query = query.Where("LOWER(username) LIKE ? OR discord_id = ?", pattern, search)
		}
		var total int64 // Total user count
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count users", err, nil)
			return
		}
		var users []domain.User // Slice to hold users
		if err := query.Order("id").Offset(p.Offset()).Limit(p.PageSize).Find(&users).Error; err != nil {
			serverError(c, "Failed to fetch users", err, nil)
			return
		}
		resp := userListPage{Users: make([]UserAdminResponse, len(users)), Page: p.Page, PageSize: p.PageSize, Total: total, TotalPages: p.TotalPages(total)}
		// Map users to response format
		for i, u := range users {
			resp.Users[i] = adminView(u)
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.CacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// BannedUsersHandler lists banned accounts
func BannedUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []domain.User
		if err := db.Where("is_banned = ?", true).Order("updated_at desc").Find(&users).Error; err != nil {
			serverError(c, "Failed to fetch users", err, nil)
			return
		}
		out := make([]UserAdminResponse, len(users))
		for i, u := range users {
			out[i] = adminView(u)
		}
		c.JSON(http.StatusOK, gin.H{"users": out})
	}
}

// BanRequest carries the ban reason
type BanRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// BanUserHandler bans a user; admins are protected
func BanUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req BanRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Reason must be at most 255 characters"})
			return
		}
		reason := utils.SanitizeText(req.Reason)
		if reason == "" {
			reason = "Banned by admin"
		}
		err := moderation.Ban(db, id, reason)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		case errors.Is(err, moderation.ErrProtectedUser):
			c.JSON(http.StatusForbidden, gin.H{"error": "Cannot ban an admin"})
			return
		case err != nil:
			serverError(c, "Failed to ban user", err, logrus.Fields{"user_id": id})
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"user_id": id, "admin_id": adminID, "reason": reason}).Warn("User banned")
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, adminUsersPrefix)
		c.JSON(http.StatusOK, gin.H{"success": true, "reason": reason})
	}
}

// UnbanUserHandler lifts a ban
func UnbanUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := moderation.Unban(db, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			serverError(c, "Failed to unban user", err, logrus.Fields{"user_id": id})
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"user_id": id, "admin_id": adminID}).Info("User unbanned")
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, adminUsersPrefix)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// RoleRequest changes role and membership
type RoleRequest struct {
	Role       string `json:"role" binding:"required,oneof=user admin"`
	Membership string `json:"membership" binding:"omitempty,oneof=free vip admin"`
}

// UpdateRoleHandler sets the role and membership of a user
func UpdateRoleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req RoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		adminID, _ := userIDFrom(c)
		if id == adminID && req.Role != domain.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot remove your own admin role"})
			return
		}
		membership := req.Membership
		if membership == "" {
			membership = domain.MembershipFree
			if req.Role == domain.RoleAdmin {
				membership = domain.MembershipAdmin
			}
		}
		res := db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{"role": req.Role, "membership": membership})
		if res.Error != nil {
			serverError(c, "Failed to update role", res.Error, logrus.Fields{"user_id": id})
			return
		}
		var user domain.User
		if err := db.First(&user, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": id, "admin_id": adminID, "role": req.Role, "membership": membership}).Info("User role changed")
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, adminUsersPrefix)
		c.JSON(http.StatusOK, gin.H{"user": adminView(user)})
	}
}

// AdjustCoinsRequest adds or removes coins
type AdjustCoinsRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required,min=1,max=1000000"`
	Action string `json:"action" binding:"required,oneof=add remove"`
	Reason string `json:"reason" binding:"max=255"`
}

// AdjustCoinsHandler changes a balance by hand, never going below zero
func AdjustCoinsHandler(db *gorm.DB, rdb *redis.Client, notifier *notify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdjustCoinsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be between 1 and 1000000"})
			return
		}
		adminID, _ := userIDFrom(c)
		reason := utils.SanitizeText(req.Reason)
		if reason == "" {
			reason = "Admin adjustment"
		}
		m := rewards.Movement{UserID: req.UserID, Amount: req.Amount, Type: domain.TxAdminAdjust, Reason: reason, Reference: "admin:" + idString(adminID)}
		var changed, balance int64
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			if req.Action == "add" {
				changed = req.Amount
				balance, err = rewards.Credit(tx, m)
				return err
			}
			changed, balance, err = rewards.RemoveClamped(tx, m)
			return err
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			serverError(c, "Failed to adjust coins", err, logrus.Fields{"user_id": req.UserID, "admin_id": adminID})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  req.UserID, // Target user
			"admin_id": adminID,    // Acting admin
			"action":   req.Action, // add or remove
			"amount":   changed,    // Coins actually moved
			"balance":  balance,    // Balance afterwards
		}).Info("Admin coin adjustment")
		if req.Action == "add" {
			metrics.CoinsAwarded.WithLabelValues(domain.TxAdminAdjust).Add(float64(changed))
		}
		invalidateCoins(c.Request.Context(), rdb, req.UserID)
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, adminUsersPrefix)
		if notifier != nil && req.Action == "add" {
			notifier.Send(req.UserID, domain.NotifyCoins, "Coins received", "An admin sent you "+idString(uint(changed))+" coins", "/coins")
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "changed": changed, "new_balance": balance})
	}
}

type txListPage struct {
	Transactions []domain.CoinTransaction `json:"transactions"` // List of transactions
	Page         int                      `json:"page"`         // Current page
	PageSize     int                      `json:"page_size"`    // Page size
	Total        int64                    `json:"total"`        // Total number of transactions
	TotalPages   int                      `json:"total_pages"`  // Total pages
	Cached       bool                     `json:"cached"`       // Response is from cache
}

// parseDay accepts RFC 3339 timestamps or plain dates
func parseDay(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ListTransactionsHandler returns all coin transactions, with optional filtering by user, type, or date
func ListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Build cache key from all query params
		var keyParts []string // Parts of the cache key
		// Append each query parameter to the key parts
		for _, k := range []string{"user_id", "type", "from", "to", "page", "page_size"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, "")) // Append key-value pair
		}
		// Join key parts to form the final cache key
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")
		var cached txListPage
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		p := utils.ParsePage(c, "page_size", 20)
		query := db.Model(&domain.CoinTransaction{}) // Start building the query
		if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID) // Filter by user ID
		}
		if txType := c.Query("type"); txType != "" {
			query = query.Where("type = ?", txType) // Filter by transaction type
		}
		if from, ok := parseDay(c.Query("from")); ok {
			query = query.Where("created_at >= ?", from) // Filter by start date
		}
		if to, ok := parseDay(c.Query("to")); ok {
			query = query.Where("created_at <= ?", to) // Filter by end date
		}
		var total int64 // Total transaction count
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count transactions", err, nil)
			return
		}
		resp := txListPage{Page: p.Page, PageSize: p.PageSize, Total: total, TotalPages: p.TotalPages(total)}
		// Fetch paginated transactions with filters applied
		if err := query.Order("created_at desc, id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&resp.Transactions).Error; err != nil {
			serverError(c, "Failed to fetch transactions", err, nil)
			return
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.CacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// AdminStats are the dashboard totals
type AdminStats struct {
	Users          int64 `json:"users"`
	BannedUsers    int64 `json:"banned_users"`
	AssetsApproved int64 `json:"assets_approved"`
	AssetsPending  int64 `json:"assets_pending"`
	AssetsRejected int64 `json:"assets_rejected"`
	Threads        int64 `json:"threads"`
	Replies        int64 `json:"replies"`
	Downloads      int64 `json:"downloads"`
	CoinsInCirc    int64 `json:"coins_in_circulation"`
	SpinsToday     int64 `json:"spins_today"`
}

func countInto(db *gorm.DB, model any, dest *int64, where string, args ...any) error {
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	return q.Count(dest).Error
}

// StatsHandler returns site wide totals
func StatsHandler(db *gorm.DB, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var s AdminStats
		y, m, d := now().UTC().Date()
		midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		steps := []func() error{
			func() error { return countInto(db, &domain.User{}, &s.Users, "") },
			func() error { return countInto(db, &domain.User{}, &s.BannedUsers, "is_banned = ?", true) },
			func() error { return countInto(db, &domain.Asset{}, &s.AssetsApproved, "status = ?", domain.AssetApproved) },
			func() error { return countInto(db, &domain.Asset{}, &s.AssetsPending, "status = ?", domain.AssetPending) },
			func() error { return countInto(db, &domain.Asset{}, &s.AssetsRejected, "status = ?", domain.AssetRejected) },
			func() error { return countInto(db, &domain.ForumThread{}, &s.Threads, "is_deleted = ?", false) },
			func() error { return countInto(db, &domain.ForumReply{}, &s.Replies, "is_deleted = ?", false) },
			func() error { return countInto(db, &domain.Download{}, &s.Downloads, "") },
			func() error { return countInto(db, &domain.SpinHistory{}, &s.SpinsToday, "created_at >= ?", midnight) },
			func() error {
				return db.Model(&domain.User{}).Select("COALESCE(SUM(coins), 0)").Scan(&s.CoinsInCirc).Error
			},
		}
		for _, step := range steps {
			if err := step(); err != nil {
				serverError(c, "Failed to load stats", err, nil)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"stats": s})
	}
}

// AwardBadgeRequest grants a badge by hand
type AwardBadgeRequest struct {
	UserID  uint   `json:"user_id" binding:"required"`
	BadgeID string `json:"badge_id" binding:"required"`
}

// AwardBadgeHandler gives a user a badge
func AwardBadgeHandler(db *gorm.DB, notifier *notify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AwardBadgeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User
		if err := db.Select("id").First(&user, req.UserID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		granted, err := rewards.GrantBadge(db, req.UserID, req.BadgeID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Badge not found"})
			return
		}
		if err != nil {
			serverError(c, "Failed to award badge", err, logrus.Fields{"user_id": req.UserID, "badge_id": req.BadgeID})
			return
		}
		if !granted {
			c.JSON(http.StatusConflict, gin.H{"error": "User already has this badge"})
			return
		}
		if notifier != nil {
			notifier.Send(req.UserID, domain.NotifyBadge, "New badge earned", "An admin awarded you a badge", "/profile")
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// GetSettingHandler returns the JSON value of a site setting
func GetSettingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		var value any
		found, err := settings.Get(db, key, &value)
		if err != nil {
			serverError(c, "Failed to read setting", err, logrus.Fields{"key": key})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Setting not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
	}
}

// PutSettingHandler stores a site setting; the body is the JSON value
func PutSettingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		if len(key) == 0 || len(key) > 64 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid setting key"})
			return
		}
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid setting value"})
			return
		}
		// Known keys are checked against the type their readers expect
		value, err := settings.Decode(key, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := settings.Put(db, key, value); err != nil {
			serverError(c, "Failed to save setting", err, logrus.Fields{"key": key})
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"key": key, "admin_id": adminID}).Info("Setting updated")
		c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
	}
}
