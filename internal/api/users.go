package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"strconv"  // Numeric ids
	"time"     // Timestamps

	"fivem_tools/internal/domain"  // Importing domain models
	"fivem_tools/internal/rewards" // Levels and stats
	"fivem_tools/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// PublicProfile is what anyone can see about a user
type PublicProfile struct {
	ID         uint               `json:"id"`
	DiscordID  string             `json:"discord_id"`
	Username   string             `json:"username"`
	Avatar     string             `json:"avatar"`
	Membership string             `json:"membership"`
	Level      rewards.LevelInfo  `json:"level"`
	Stats      rewards.Stats      `json:"stats"`
	Badges     []domain.UserBadge `json:"badges"`
	IsBanned   bool               `json:"is_banned"`
	LastSeen   *time.Time         `json:"last_seen,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// findUser resolves a path id that is either a numeric id or a Discord snowflake
func findUser(db *gorm.DB, raw string) (*domain.User, error) {
	var user domain.User
	if utils.IsDiscordID(raw) {
		return &user, db.Where("discord_id = ?", raw).First(&user).Error
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, db.First(&user, id).Error
}

func loadProfile(db *gorm.DB, user *domain.User) (*PublicProfile, error) {
	stats, err := rewards.LoadStats(db, user.ID)
	if err != nil {
		return nil, err
	}
	var badges []domain.UserBadge
	if err := db.Preload("Badge").Where("user_id = ?", user.ID).Order("earned_at").Find(&badges).Error; err != nil {
		return nil, err
	}
	return &PublicProfile{
		ID:         user.ID,
		DiscordID:  user.DiscordID,
		Username:   user.Username,
		Avatar:     user.Avatar,
		Membership: user.Membership,
		Level:      rewards.LevelForXP(user.XP),
		Stats:      stats,
		Badges:     badges,
		IsBanned:   user.IsBanned,
		LastSeen:   user.LastSeen,
		CreatedAt:  user.CreatedAt,
	}, nil
}

// UserProfileHandler returns a public profile
func UserProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := findUser(db, c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			serverError(c, "Failed to fetch user", err, logrus.Fields{"id": c.Param("id")})
			return
		}
		profile, err := loadProfile(db, user)
		if err != nil {
			serverError(c, "Failed to load profile", err, logrus.Fields{"user_id": user.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"profile": profile})
	}
}

// Contributor is a user ranked by approved uploads
type Contributor struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	Level      int    `json:"level"`
	AssetCount int64  `json:"asset_count"`
}

// TopContributorsHandler ranks users by approved assets
func TopContributorsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var out []Contributor
		if err := db.Model(&domain.User{}).
			Select("users.id, users.username, users.avatar, users.level, COUNT(assets.id) AS asset_count").
			Joins("JOIN assets ON assets.author_id = users.id AND assets.status = ? AND assets.deleted_at IS NULL", domain.AssetApproved).
			Where("users.is_banned = ?", false).
			Group("users.id, users.username, users.avatar, users.level").
			Order("asset_count DESC, users.id").
			Limit(utils.QueryLimit(c, 10, 50)).
			Scan(&out).Error; err != nil {
			serverError(c, "Failed to fetch contributors", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"contributors": out})
	}
}
