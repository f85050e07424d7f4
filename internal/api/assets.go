package api

import (
	"context"  // Webhook delivery
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // Search terms
	"time"     // Webhook timeout

	"fivem_tools/internal/discord"    // Upload announcements
	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/rewards"    // Upload XP
	"fivem_tools/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

const assetCachePrefix = "assets:"

// AssetView is an asset as listed publicly
type AssetView struct {
	domain.Asset
	Price string `json:"price"` // free or premium
}

func viewAssets(assets []domain.Asset) []AssetView {
	out := make([]AssetView, len(assets))
	for i, a := range assets {
		out[i] = AssetView{Asset: a, Price: a.PriceLabel()}
	}
	return out
}

// Pagination describes a page of a listing
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type assetPage struct {
	Items      []AssetView `json:"items"`
	Pagination Pagination  `json:"pagination"`
	Cached     bool        `json:"cached"`
}

func likePattern(s string) string {
	r := strings.NewReplacer("%", "", "_", "")
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}

// ListAssetsHandler lists approved assets, newest first
func ListAssetsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p := utils.ParsePage(c, "limit", 20)
		cacheKey := assetCachePrefix + "list:" + c.Request.URL.Query().Encode()
		var cached assetPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		query := db.Model(&domain.Asset{}).Where("status = ?", domain.AssetApproved)
		if cat := c.Query("category"); cat != "" {
			query = query.Where("category = ?", cat)
		}
		if fw := c.Query("framework"); fw != "" {
			query = query.Where("framework = ?", fw)
		}
		switch c.Query("price") {
		case "free":
			query = query.Where("coin_price = 0")
		case "premium":
			query = query.Where("coin_price > 0")
		}
		if q := c.Query("search"); q != "" {
			pattern := likePattern(q)
			query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count assets", err, nil)
			return
		}
		var assets []domain.Asset
		if err := query.Preload("Author").
			Order("is_featured desc, created_at desc, id desc").
			Offset(p.Offset()).Limit(p.PageSize).
			Find(&assets).Error; err != nil {
			serverError(c, "Failed to fetch assets", err, nil)
			return
		}
		resp := assetPage{
			Items: viewAssets(assets),
			Pagination: Pagination{Page: p.Page, Limit: p.PageSize, Total: total, Pages: p.TotalPages(total)},
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.CacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// RecentAssetsHandler lists the latest approved assets
func RecentAssetsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var assets []domain.Asset
		if err := db.Preload("Author").Where("status = ?", domain.AssetApproved).
			Order("created_at desc, id desc").Limit(utils.QueryLimit(c, 6, 50)).
			Find(&assets).Error; err != nil {
			serverError(c, "Failed to fetch assets", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": viewAssets(assets)})
	}
}

// loadAsset fetches an asset with its author, answering 404 when missing
func loadAsset(c *gin.Context, db *gorm.DB) (*domain.Asset, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	var asset domain.Asset
	if err := db.Preload("Author").First(&asset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return nil, false
		}
		serverError(c, "Failed to fetch asset", err, logrus.Fields{"asset_id": id})
		return nil, false
	}
	return &asset, true
}

func canManage(user *domain.User, asset *domain.Asset) bool {
	return user != nil && (user.ID == asset.AuthorID || user.IsAdmin())
}

// GetAssetHandler returns one asset; unapproved assets are visible to their author and admins only
func GetAssetHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		asset, ok := loadAsset(c, db)
		if !ok {
			return
		}
		if asset.Status != domain.AssetApproved && !canManage(middleware.CurrentUser(c), asset) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"asset": AssetView{Asset: *asset, Price: asset.PriceLabel()}})
	}
}

// AssetRequest is an asset upload
type AssetRequest struct {
	Title        string   `json:"title" binding:"required,max=200"`
	Description  string   `json:"description" binding:"required,min=10,max=50000"`
	Category     string   `json:"category" binding:"required,asset_category"`
	Framework    string   `json:"framework" binding:"omitempty,asset_framework"`
	Version      string   `json:"version" binding:"max=32"`
	CoinPrice    int64    `json:"coin_price" binding:"min=0,max=10000"`
	DownloadURL  string   `json:"download_url" binding:"required,http_url,max=1024"`
	ThumbnailURL string   `json:"thumbnail_url" binding:"omitempty,http_url,max=1024"`
	YoutubeURL   string   `json:"youtube_url" binding:"omitempty,http_url,max=1024"`
	GithubURL    string   `json:"github_url" binding:"omitempty,http_url,max=1024"`
	Tags         []string `json:"tags" binding:"max=20,dive,min=1,max=50"`
	Features     []string `json:"features" binding:"max=20,dive,min=1,max=200"`
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := utils.SanitizeText(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CreateAssetHandler uploads a new asset
func CreateAssetHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var req AssetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset data", "details": err.Error()})
			return
		}
		asset := domain.Asset{
			AuthorID:     user.ID,
			Title:        utils.SanitizeText(req.Title),
			Description:  utils.SanitizeRichText(req.Description),
			Category:     req.Category,
			Framework:    req.Framework,
			Version:      utils.SanitizeText(req.Version),
			CoinPrice:    req.CoinPrice,
			DownloadURL:  req.DownloadURL,
			ThumbnailURL: req.ThumbnailURL,
			YoutubeURL:   req.YoutubeURL,
			GithubURL:    req.GithubURL,
			Tags:         utils.SanitizeTags(req.Tags),
			Features:     cleanList(req.Features),
			Status:       domain.AssetPending,
		}
		if asset.Framework == "" {
			asset.Framework = "standalone"
		}
		if asset.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ErrTitleRequired.Error()})
			return
		}
		if user.IsAdmin() {
			asset.Status = domain.AssetApproved
		}
		var xp *rewards.XPResult
		err := d.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&asset).Error; err != nil {
				return err
			}
			var err error
			xp, err = rewards.AwardXP(tx, user.ID, rewards.ActivityUploadAsset, "asset:"+idString(asset.ID))
			return err
		})
		if err != nil {
			serverError(c, "Failed to create asset", err, logrus.Fields{"user_id": user.ID})
			return
		}
		logrus.WithFields(logrus.Fields{"asset_id": asset.ID, "user_id": user.ID, "status": asset.Status}).Info("Asset uploaded")
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), d.Redis, assetCachePrefix)
		if d.Notifier != nil {
			d.Notifier.XP(user.ID, xp)
			if asset.Status == domain.AssetPending {
				notifyAdmins(d, domain.NotifyNewAsset, "New asset pending review", user.Username+" uploaded "+asset.Title, "/admin/assets")
			}
		}
		announceAsset(d, &asset, user)
		asset.Author = user.AsAuthor()
		c.JSON(http.StatusCreated, gin.H{"asset": AssetView{Asset: asset, Price: asset.PriceLabel()}, "xp": xp})
	}
}

func notifyAdmins(d *Deps, kind, title, message, link string) {
	var ids []uint
	if err := d.DB.Model(&domain.User{}).
		Where("role = ? OR membership = ?", domain.RoleAdmin, domain.MembershipAdmin).
		Pluck("id", &ids).Error; err != nil {
		logrus.WithError(err).Error("Failed to load admins")
		return
	}
	for _, id := range ids {
		d.Notifier.Send(id, kind, title, message, link)
	}
}

// announceAsset posts the upload to the Discord webhook in the background
func announceAsset(d *Deps, asset *domain.Asset, author *domain.User) {
	if d.Webhook == nil || d.Webhook.URL == "" {
		return
	}
	price := "Free"
	if asset.CoinPrice > 0 {
		price = strconv.FormatInt(asset.CoinPrice, 10) + " coins"
	}
	embed := discord.Embed{
		Title:       asset.Title,
		Description: truncate(utils.SanitizeText(asset.Description), 300),
		URL:         d.Config.AppURL + "/asset/" + idString(asset.ID),
		Color:       0x5865F2,
		Fields: []discord.EmbedField{
			{Name: "Category", Value: asset.Category, Inline: true},
			{Name: "Framework", Value: asset.Framework, Inline: true},
			{Name: "Price", Value: price, Inline: true},
			{Name: "Author", Value: author.Username, Inline: true},
		},
		Timestamp: asset.CreatedAt.Format(time.RFC3339),
	}
	if asset.ThumbnailURL != "" {
		embed.Thumbnail = &discord.EmbedImage{URL: asset.ThumbnailURL}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.Webhook.Send(ctx, "New asset uploaded", embed); err != nil {
			logrus.WithError(err).WithField("asset_id", asset.ID).Warn("Discord webhook failed")
		}
	}()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// AssetUpdateRequest is a partial asset update
type AssetUpdateRequest struct {
	Title        *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Description  *string   `json:"description" binding:"omitempty,min=10,max=50000"`
	Category     *string   `json:"category" binding:"omitempty,asset_category"`
	Framework    *string   `json:"framework" binding:"omitempty,asset_framework"`
	Version      *string   `json:"version" binding:"omitempty,max=32"`
	CoinPrice    *int64    `json:"coin_price" binding:"omitempty,min=0,max=10000"`
	DownloadURL  *string   `json:"download_url" binding:"omitempty,http_url,max=1024"`
	ThumbnailURL *string   `json:"thumbnail_url" binding:"omitempty,http_url,max=1024"`
	YoutubeURL   *string   `json:"youtube_url" binding:"omitempty,http_url,max=1024"`
	GithubURL    *string   `json:"github_url" binding:"omitempty,http_url,max=1024"`
	Tags         *[]string `json:"tags" binding:"omitempty,max=20,dive,min=1,max=50"`
	Features     *[]string `json:"features" binding:"omitempty,max=20,dive,min=1,max=200"`
}

// UpdateAssetHandler edits an asset owned by the caller
func UpdateAssetHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		asset, ok := loadAsset(c, db)
		if !ok {
			return
		}
		if !canManage(middleware.CurrentUser(c), asset) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You cannot edit this asset"})
			return
		}
		var req AssetUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset data", "details": err.Error()})
			return
		}
		updates := map[string]any{}
		if req.Title != nil {
			title := utils.SanitizeText(*req.Title)
			if title == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": utils.ErrTitleRequired.Error()})
				return
			}
			updates["title"] = title
		}
		if req.Description != nil {
			updates["description"] = utils.SanitizeRichText(*req.Description)
		}
		if req.Category != nil {
			updates["category"] = *req.Category
		}
		if req.Framework != nil {
			updates["framework"] = *req.Framework
		}
		if req.Version != nil {
			updates["version"] = utils.SanitizeText(*req.Version)
		}
		if req.CoinPrice != nil {
			updates["coin_price"] = *req.CoinPrice
		}
		if req.DownloadURL != nil {
			updates["download_url"] = *req.DownloadURL
		}
		if req.ThumbnailURL != nil {
			updates["thumbnail_url"] = *req.ThumbnailURL
		}
		if req.YoutubeURL != nil {
			updates["youtube_url"] = *req.YoutubeURL
		}
		if req.GithubURL != nil {
			updates["github_url"] = *req.GithubURL
		}
		// Serialized columns need the model so the json serializer runs
		if req.Tags != nil {
			asset.Tags = utils.SanitizeTags(*req.Tags)
		}
		if req.Features != nil {
			asset.Features = cleanList(*req.Features)
		}
		if len(updates) == 0 && req.Tags == nil && req.Features == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if len(updates) > 0 {
				if err := tx.Model(&domain.Asset{}).Where("id = ?", asset.ID).Updates(updates).Error; err != nil {
					return err
				}
			}
			if req.Tags != nil || req.Features != nil {
				if err := tx.Model(asset).Select("tags", "features").Updates(asset).Error; err != nil {
					return err
				}
			}
			return tx.Preload("Author").First(asset, asset.ID).Error
		})
		if err != nil {
			serverError(c, "Failed to update asset", err, logrus.Fields{"asset_id": asset.ID})
			return
		}
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, assetCachePrefix)
		c.JSON(http.StatusOK, gin.H{"asset": AssetView{Asset: *asset, Price: asset.PriceLabel()}})
	}
}

// DeleteAssetHandler soft deletes an asset owned by the caller
func DeleteAssetHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		asset, ok := loadAsset(c, db)
		if !ok {
			return
		}
		user := middleware.CurrentUser(c)
		if !canManage(user, asset) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You cannot delete this asset"})
			return
		}
		if err := db.Delete(asset).Error; err != nil {
			serverError(c, "Failed to delete asset", err, logrus.Fields{"asset_id": asset.ID})
			return
		}
		logrus.WithFields(logrus.Fields{"asset_id": asset.ID, "user_id": user.ID}).Info("Asset deleted")
		_ = utils.DeleteCacheByPrefix(c.Request.Context(), rdb, assetCachePrefix)
		c.JSON(http.StatusOK, gin.H{"message": "Asset deleted"})
	}
}
