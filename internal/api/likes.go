package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/notify"     // Notifications
	"fivem_tools/internal/rewards"    // Like XP

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// LikeRequest toggles a like
type LikeRequest struct {
	TargetType string `json:"target_type" binding:"required,oneof=thread reply asset"`
	TargetID   uint   `json:"target_id" binding:"required"`
}

// likeTarget is what a like points at
type likeTarget struct {
	model    any
	authorID uint
	title    string
	link     string
}

func findLikeTarget(db *gorm.DB, kind string, id uint) (*likeTarget, error) {
	switch kind {
	case domain.LikeThread:
		var t domain.ForumThread
		if err := db.Where("id = ? AND is_deleted = ?", id, false).First(&t).Error; err != nil {
			return nil, err
		}
		return &likeTarget{model: &domain.ForumThread{}, authorID: t.AuthorID, title: t.Title, link: "/forum/thread/" + idString(t.ID)}, nil
	case domain.LikeReply:
		var r domain.ForumReply
		if err := db.Where("id = ? AND is_deleted = ?", id, false).First(&r).Error; err != nil {
			return nil, err
		}
		return &likeTarget{model: &domain.ForumReply{}, authorID: r.AuthorID, title: "your reply", link: "/forum/thread/" + idString(r.ThreadID)}, nil
	case domain.LikeAsset:
		var a domain.Asset
		if err := db.Where("id = ? AND status = ?", id, domain.AssetApproved).First(&a).Error; err != nil {
			return nil, err
		}
		return &likeTarget{model: &domain.Asset{}, authorID: a.AuthorID, title: a.Title, link: "/asset/" + idString(a.ID)}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ToggleLikeHandler likes or unlikes a thread, reply or asset
func ToggleLikeHandler(db *gorm.DB, notifier *notify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var req LikeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		target, err := findLikeTarget(db, req.TargetType, req.TargetID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
			return
		}
		if err != nil {
			serverError(c, "Failed to load target", err, logrus.Fields{"target_type": req.TargetType, "target_id": req.TargetID})
			return
		}
		liked := false
		var likes int64
		var xp *rewards.XPResult
		err = db.Transaction(func(tx *gorm.DB) error {
			var existing domain.Like
			err := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", user.ID, req.TargetType, req.TargetID).First(&existing).Error
			switch {
			case err == nil:
				if err := tx.Delete(&existing).Error; err != nil {
					return err
				}
				if err := tx.Model(target.model).Where("id = ? AND likes > 0", req.TargetID).
					UpdateColumn("likes", gorm.Expr("likes - 1")).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&domain.Like{UserID: user.ID, TargetType: req.TargetType, TargetID: req.TargetID}).Error; err != nil {
					return err
				}
				if err := tx.Model(target.model).Where("id = ?", req.TargetID).
					UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
					return err
				}
				liked = true
				if target.authorID != user.ID {
					if xp, err = rewards.AwardXP(tx, target.authorID, rewards.ActivityReceiveLike, req.TargetType+":"+idString(req.TargetID)); err != nil {
						return err
					}
				}
			default:
				return err
			}
			return tx.Model(target.model).Where("id = ?", req.TargetID).Select("likes").Scan(&likes).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Already liked"})
			return
		}
		if err != nil {
			serverError(c, "Failed to update like", err, logrus.Fields{"user_id": user.ID, "target_type": req.TargetType, "target_id": req.TargetID})
			return
		}
		if liked && notifier != nil && target.authorID != user.ID {
			notifier.Send(target.authorID, domain.NotifyLike, "New like", user.Username+" liked "+target.title, target.link)
			notifier.XP(target.authorID, xp)
		}
		c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": likes})
	}
}
