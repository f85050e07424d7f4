package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"strconv"  // Cache keys
	"time"     // Earned timestamps

	"fivem_tools/internal/domain"  // Importing domain models
	"fivem_tools/internal/rewards" // Levels and stats
	"fivem_tools/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// UserXPHandler returns XP, level, stats and badges of a user
func UserXPHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := findUser(db, c.Param("userId"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			serverError(c, "Failed to fetch user", err, nil)
			return
		}
		profile, err := loadProfile(db, user)
		if err != nil {
			serverError(c, "Failed to load XP", err, logrus.Fields{"user_id": user.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id":    user.ID,
			"xp":         user.XP,
			"level_info": profile.Level,
			"stats":      profile.Stats,
			"badges":     profile.Badges,
		})
	}
}

// LeaderboardEntry is one row of the XP leaderboard
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	XP       int64  `json:"xp"`
	Level    int    `json:"level"`
	Title    string `json:"title"`
}

// LeaderboardHandler ranks users by XP
func LeaderboardHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		limit := utils.QueryLimit(c, 10, utils.MaxPageSize)
		cacheKey := "xp:leaderboard:" + strconv.Itoa(limit)
		var cached []LeaderboardEntry
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"leaderboard": cached, "cached": true})
			return
		}
		var users []domain.User
		if err := db.Select("id", "username", "avatar", "xp").Where("is_banned = ?", false).
			Order("xp desc, id").Limit(limit).Find(&users).Error; err != nil {
			serverError(c, "Failed to fetch leaderboard", err, nil)
			return
		}
		out := make([]LeaderboardEntry, len(users))
		for i, u := range users {
			info := rewards.LevelForXP(u.XP)
			out[i] = LeaderboardEntry{Rank: i + 1, ID: u.ID, Username: u.Username, Avatar: u.Avatar, XP: u.XP, Level: info.Level, Title: info.Title}
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, out, utils.CacheTTL)
		c.JSON(http.StatusOK, gin.H{"leaderboard": out, "cached": false})
	}
}

// XPHistoryHandler pages through the caller's XP awards
func XPHistoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		p := utils.ParsePage(c, "page_size", 20)
		query := db.Model(&domain.XPTransaction{}).Where("user_id = ?", userID)
		var total int64
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count XP transactions", err, logrus.Fields{"user_id": userID})
			return
		}
		var txs []domain.XPTransaction
		if err := query.Order("created_at desc, id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&txs).Error; err != nil {
			serverError(c, "Failed to fetch XP transactions", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions": txs,
			"page":         p.Page,
			"page_size":    p.PageSize,
			"total":        total,
			"total_pages":  p.TotalPages(total),
		})
	}
}

// BadgeView is a catalog badge with the user's progress
type BadgeView struct {
	domain.Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// BadgesHandler lists the badge catalog, marking what user_id has earned
func BadgesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var catalog []domain.Badge
		if err := db.Order("sort_order, id").Find(&catalog).Error; err != nil {
			serverError(c, "Failed to fetch badges", err, nil)
			return
		}
		earned := map[string]time.Time{}
		if raw := c.Query("user_id"); raw != "" {
			user, err := findUser(db, raw)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			var rows []domain.UserBadge
			if err := db.Where("user_id = ?", user.ID).Find(&rows).Error; err != nil {
				serverError(c, "Failed to fetch user badges", err, logrus.Fields{"user_id": user.ID})
				return
			}
			for _, r := range rows {
				earned[r.BadgeID] = r.EarnedAt
			}
		}
		out := make([]BadgeView, len(catalog))
		for i, b := range catalog {
			out[i] = BadgeView{Badge: b}
			if at, ok := earned[b.ID]; ok {
				out[i].Earned, out[i].EarnedAt = true, &at
			}
		}
		c.JSON(http.StatusOK, gin.H{"badges": out})
	}
}
