package api

import (
	"net/http" // HTTP status codes
	"time"     // Schedule window

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

const bannerCachePrefix = "banners:"

// BannersHandler lists the banners currently showing; admins may pass all=true
func BannersHandler(db *gorm.DB, rdb *redis.Client, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		position := c.Query("position")
		user := middleware.CurrentUser(c)
		all := c.Query("all") == "true" && user != nil && user.IsAdmin()
		cacheKey := bannerCachePrefix + position
		if !all {
			var cached []domain.Banner
			if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, gin.H{"banners": cached, "cached": true})
				return
			}
		}
		query := db.Model(&domain.Banner{})
		if position != "" {
			query = query.Where("position = ?", position)
		}
		if !all {
			t := now()
			query = query.Where("is_active = ?", true).
				Where("starts_at IS NULL OR starts_at <= ?", t).
				Where("ends_at IS NULL OR ends_at > ?", t)
		}
		banners := []domain.Banner{}
		if err := query.Order("sort_order, id").Find(&banners).Error; err != nil {
			serverError(c, "Failed to fetch banners", err, nil)
			return
		}
		if !all {
			_ = utils.SetCache(ctx, rdb, cacheKey, banners, utils.CacheTTL)
		}
		c.JSON(http.StatusOK, gin.H{"banners": banners, "cached": false})
	}
}
