package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"strconv"  // Rating text

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/notify"     // Notifications
	"fivem_tools/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

var errAlreadyReviewed = errors.New("already reviewed")

// ListReviewsHandler lists the reviews of an asset, newest first
func ListReviewsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var reviews []domain.Review
		if err := db.Preload("User").Where("asset_id = ?", id).
			Order("created_at desc, id desc").Limit(utils.QueryLimit(c, 20, utils.MaxPageSize)).
			Find(&reviews).Error; err != nil {
			serverError(c, "Failed to fetch reviews", err, logrus.Fields{"asset_id": id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reviews": reviews})
	}
}

// ReviewRequest is a new review
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// CreateReviewHandler rates an asset once per user
func CreateReviewHandler(db *gorm.DB, notifier *notify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		asset, ok := loadAsset(c, db)
		if !ok {
			return
		}
		if asset.Status != domain.AssetApproved {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		user := middleware.CurrentUser(c)
		if asset.AuthorID == user.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot review your own asset"})
			return
		}
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
			return
		}
		review := domain.Review{AssetID: asset.ID, UserID: user.ID, Rating: req.Rating, Comment: utils.SanitizeText(req.Comment)}
		err := db.Transaction(func(tx *gorm.DB) error {
			var n int64
			if err := tx.Model(&domain.Review{}).Where("asset_id = ? AND user_id = ?", asset.ID, user.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return errAlreadyReviewed
			}
			if err := tx.Create(&review).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errAlreadyReviewed
				}
				return err
			}
			// Recompute the aggregate from the rows rather than adjusting it
			var agg struct {
				Avg   float64
				Count int64
			}
			if err := tx.Model(&domain.Review{}).Where("asset_id = ?", asset.ID).
				Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").Scan(&agg).Error; err != nil {
				return err
			}
			return tx.Model(&domain.Asset{}).Where("id = ?", asset.ID).
				Updates(map[string]any{"rating": agg.Avg, "review_count": agg.Count}).Error
		})
		if errors.Is(err, errAlreadyReviewed) {
			c.JSON(http.StatusConflict, gin.H{"error": "You already reviewed this asset"})
			return
		}
		if err != nil {
			serverError(c, "Failed to save review", err, logrus.Fields{"asset_id": asset.ID, "user_id": user.ID})
			return
		}
		if notifier != nil {
			notifier.Send(asset.AuthorID, domain.NotifyReview, "New review",
				user.Username+" rated "+asset.Title+" "+strconv.Itoa(req.Rating)+"/5", "/asset/"+idString(asset.ID))
		}
		review.User = user.AsAuthor()
		c.JSON(http.StatusCreated, gin.H{"review": review})
	}
}
