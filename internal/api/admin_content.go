package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"regexp"   // Slug format
	"time"     // Banner schedule

	"fivem_tools/internal/domain" // Importing domain models
	"fivem_tools/internal/notify" // Notifications
	"fivem_tools/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// PendingAssetsHandler lists assets awaiting moderation, oldest first
func PendingAssetsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var assets []domain.Asset
		if err := db.Preload("Author").Where("status = ?", domain.AssetPending).
			Order("created_at asc, id asc").Find(&assets).Error; err != nil {
			serverError(c, "Failed to fetch assets", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": viewAssets(assets)})
	}
}

// RejectRequest carries the rejection reason
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// ModerateAssetHandler approves or rejects an asset
func ModerateAssetHandler(db *gorm.DB, rdb *redis.Client, notifier *notify.Service, status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		asset, ok := loadAsset(c, db)
		if !ok {
			return
		}
		updates := map[string]any{"status": status, "reject_reason": ""}
		if status == domain.AssetRejected {
			var req RejectRequest
			if err := bindOptionalJSON(c, &req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Reason must be at most 255 characters"})
				return
			}
			reason := utils.SanitizeText(req.Reason)
			if reason == "" {
				reason = "Does not meet the upload guidelines"
			}
			updates["reject_reason"] = reason
		}
		if err := db.Model(&domain.Asset{}).Where("id = ?", asset.ID).Updates(updates).Error; err != nil {
			serverError(c, "Failed to update asset", err, logrus.Fields{"asset_id": asset.ID})
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"asset_id": asset.ID, "admin_id": adminID, "status": status}).Info("Asset moderated")
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, assetCachePrefix)
		if notifier != nil {
			title, msg := "Asset approved", asset.Title+" is now live"
			if status == domain.AssetRejected {
				title, msg = "Asset rejected", asset.Title+" was rejected: "+updates["reject_reason"].(string)
			}
			notifier.Send(asset.AuthorID, domain.NotifySystem, title, msg, "/asset/"+idString(asset.ID))
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
	}
}

// FeatureRequest sets the featured flag; omitted toggles it
type FeatureRequest struct {
	IsFeatured *bool `json:"is_featured"`
}

// FeatureAssetHandler features or unfeatures an asset
func FeatureAssetHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		asset, ok := loadAsset(c, db)
		if !ok {
			return
		}
		var req FeatureRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		featured := !asset.IsFeatured
		if req.IsFeatured != nil {
			featured = *req.IsFeatured
		}
		if err := db.Model(&domain.Asset{}).Where("id = ?", asset.ID).Update("is_featured", featured).Error; err != nil {
			serverError(c, "Failed to update asset", err, logrus.Fields{"asset_id": asset.ID})
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, assetCachePrefix)
		c.JSON(http.StatusOK, gin.H{"success": true, "is_featured": featured})
	}
}

// ThreadModerationRequest changes thread flags
type ThreadModerationRequest struct {
	IsPinned *bool   `json:"is_pinned"`
	IsLocked *bool   `json:"is_locked"`
	Status   *string `json:"status" binding:"omitempty,oneof=approved pending rejected"`
}

// ModerateThreadHandler pins, locks or changes the status of a thread
func ModerateThreadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		thread, ok := loadThread(c, db)
		if !ok {
			return
		}
		var req ThreadModerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		updates := map[string]any{}
		if req.IsPinned != nil {
			updates["is_pinned"] = *req.IsPinned
		}
		if req.IsLocked != nil {
			updates["is_locked"] = *req.IsLocked
		}
		if req.Status != nil {
			updates["status"] = *req.Status
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
			return
		}
		if err := db.Model(&domain.ForumThread{}).Where("id = ?", thread.ID).Updates(updates).Error; err != nil {
			serverError(c, "Failed to update thread", err, logrus.Fields{"thread_id": thread.ID})
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"thread_id": thread.ID, "admin_id": adminID, "changes": updates}).Info("Thread moderated")
		if err := db.Preload("Author").First(thread, thread.ID).Error; err != nil {
			serverError(c, "Failed to fetch thread", err, logrus.Fields{"thread_id": thread.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"thread": thread})
	}
}

// DeleteThreadHandler hides a thread and its replies
func DeleteThreadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		thread, ok := loadThread(c, db)
		if !ok {
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&domain.ForumThread{}).Where("id = ?", thread.ID).Update("is_deleted", true).Error; err != nil {
				return err
			}
			return tx.Model(&domain.ForumReply{}).Where("thread_id = ?", thread.ID).Update("is_deleted", true).Error
		})
		if err != nil {
			serverError(c, "Failed to delete thread", err, logrus.Fields{"thread_id": thread.ID})
			return
		}
		adminID, _ := userIDFrom(c)
		logrus.WithFields(logrus.Fields{"thread_id": thread.ID, "admin_id": adminID}).Warn("Thread deleted")
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CategoryRequest creates a forum category
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"required,max=100"`
	Description string `json:"description" binding:"max=255"`
	Icon        string `json:"icon" binding:"max=32"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	SortOrder   int    `json:"sort_order"`
}

// CreateCategoryHandler adds a forum category
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil || !slugPattern.MatchString(req.Slug) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
			return
		}
		category := domain.ForumCategory{
			Name:        utils.SanitizeText(req.Name),
			Slug:        req.Slug,
			Description: utils.SanitizeText(req.Description),
			Icon:        req.Icon,
			Color:       req.Color,
			SortOrder:   req.SortOrder,
			IsActive:    true,
		}
		if err := db.Create(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Category slug already exists"})
				return
			}
			serverError(c, "Failed to create category", err, nil)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"category": category})
	}
}

// BannerRequest creates or edits a banner
type BannerRequest struct {
	Title     *string    `json:"title" binding:"omitempty,min=1,max=200"`
	ImageURL  *string    `json:"image_url" binding:"omitempty,http_url,max=1024"`
	LinkURL   *string    `json:"link_url" binding:"omitempty,http_url,max=1024"`
	Position  *string    `json:"position" binding:"omitempty,max=32"`
	SortOrder *int       `json:"sort_order"`
	IsActive  *bool      `json:"is_active"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
}

func (r *BannerRequest) updates() map[string]any {
	out := map[string]any{}
	if r.Title != nil {
		out["title"] = utils.SanitizeText(*r.Title)
	}
	if r.ImageURL != nil {
		out["image_url"] = *r.ImageURL
	}
	if r.LinkURL != nil {
		out["link_url"] = *r.LinkURL
	}
	if r.Position != nil {
		out["position"] = *r.Position
	}
	if r.SortOrder != nil {
		out["sort_order"] = *r.SortOrder
	}
	if r.IsActive != nil {
		out["is_active"] = *r.IsActive
	}
	if r.StartsAt != nil {
		out["starts_at"] = r.StartsAt.UTC()
	}
	if r.EndsAt != nil {
		out["ends_at"] = r.EndsAt.UTC()
	}
	return out
}

// CreateBannerHandler adds a banner
func CreateBannerHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BannerRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Title == nil || req.ImageURL == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title and image_url are required"})
			return
		}
		if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ends_at must be after starts_at"})
			return
		}
		banner := domain.Banner{Title: utils.SanitizeText(*req.Title), ImageURL: *req.ImageURL, Position: "top", IsActive: true}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&banner).Error; err != nil {
				return err
			}
			// Zero values such as is_active=false are skipped by Create
			return tx.Model(&domain.Banner{}).Where("id = ?", banner.ID).Updates(req.updates()).Error
		})
		if err == nil {
			err = db.First(&banner, banner.ID).Error
		}
		if err != nil {
			serverError(c, "Failed to create banner", err, nil)
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, bannerCachePrefix)
		c.JSON(http.StatusCreated, gin.H{"banner": banner})
	}
}

// UpdateBannerHandler edits a banner
func UpdateBannerHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var banner domain.Banner
		if err := db.First(&banner, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Banner not found"})
			return
		}
		var req BannerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		updates := req.updates()
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
			return
		}
		if err := db.Model(&domain.Banner{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			serverError(c, "Failed to update banner", err, logrus.Fields{"banner_id": id})
			return
		}
		if err := db.First(&banner, id).Error; err != nil {
			serverError(c, "Failed to fetch banner", err, logrus.Fields{"banner_id": id})
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, bannerCachePrefix)
		c.JSON(http.StatusOK, gin.H{"banner": banner})
	}
}

// DeleteBannerHandler removes a banner
func DeleteBannerHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		res := db.Delete(&domain.Banner{}, id)
		if res.Error != nil {
			serverError(c, "Failed to delete banner", res.Error, logrus.Fields{"banner_id": id})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Banner not found"})
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, bannerCachePrefix)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
