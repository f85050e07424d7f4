package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/metrics"    // Download counter
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/rewards"    // Purchases and XP
	"fivem_tools/internal/settings"   // Linkvertise setting
	"fivem_tools/internal/utils"      // Grants and link wrapping

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// AuthorSharePercent is the part of a sale paid to the asset author
const AuthorSharePercent = 70

// AuthorShare is the author's cut of a sale, rounded down
func AuthorShare(price int64) int64 {
	return price * AuthorSharePercent / 100
}

// DownloadHandler charges premium assets once and issues a short lived download grant
func DownloadHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		asset, ok := loadAsset(c, d.DB)
		if !ok {
			return
		}
		if asset.Status != domain.AssetApproved {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		user := middleware.CurrentUser(c)
		ref := "asset:" + idString(asset.ID)
		purchased := false
		var xp *rewards.XPResult
		err := d.DB.Transaction(func(tx *gorm.DB) error {
			if asset.CoinPrice > 0 && asset.AuthorID != user.ID && !user.IsAdmin() {
				var owned int64
				if err := tx.Model(&domain.Purchase{}).Where("asset_id = ? AND user_id = ?", asset.ID, user.ID).Count(&owned).Error; err != nil {
					return err
				}
				if owned == 0 {
					if _, err := rewards.Debit(tx, rewards.Movement{UserID: user.ID, Amount: asset.CoinPrice, Type: domain.TxPurchase, Reason: "Purchase: " + asset.Title, Reference: ref}); err != nil {
						return err
					}
					if share := AuthorShare(asset.CoinPrice); share > 0 {
						if _, err := rewards.Credit(tx, rewards.Movement{UserID: asset.AuthorID, Amount: share, Type: domain.TxSale, Reason: "Sale: " + asset.Title, Reference: ref}); err != nil {
							return err
						}
					}
					if err := tx.Create(&domain.Purchase{AssetID: asset.ID, UserID: user.ID, Price: asset.CoinPrice}).Error; err != nil {
						return err
					}
					purchased = true
				}
			}
			if err := tx.Model(&domain.Asset{}).Where("id = ?", asset.ID).Update("downloads", gorm.Expr("downloads + 1")).Error; err != nil {
				return err
			}
			if err := tx.Create(&domain.Download{AssetID: asset.ID, UserID: user.ID}).Error; err != nil {
				return err
			}
			var err error
			xp, err = rewards.AwardXP(tx, user.ID, rewards.ActivityAssetDownload, ref)
			return err
		})
		if errors.Is(err, rewards.ErrInsufficientCoins) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient coins", "price": asset.CoinPrice})
			return
		}
		if err != nil {
			serverError(c, "Download failed", err, logrus.Fields{"asset_id": asset.ID, "user_id": user.ID})
			return
		}
		token, expires, err := utils.IssueGrant(asset.ID, user.ID, d.Config.DownloadSecret, d.now())
		if err != nil {
			serverError(c, "Failed to issue download grant", err, logrus.Fields{"asset_id": asset.ID})
			return
		}
		metrics.Downloads.Inc()
		logrus.WithFields(logrus.Fields{"asset_id": asset.ID, "user_id": user.ID, "purchased": purchased}).Info("Download granted")
		if purchased {
			invalidateCoins(c.Request.Context(), d.Redis, user.ID, asset.AuthorID)
		}
		if d.Notifier != nil {
			d.Notifier.XP(user.ID, xp)
			if asset.AuthorID != user.ID {
				msg := user.Username + " downloaded " + asset.Title
				if purchased {
					msg = user.Username + " bought " + asset.Title
				}
				d.Notifier.Send(asset.AuthorID, domain.NotifyDownload, "New download", msg, "/asset/"+idString(asset.ID))
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"purchased":    purchased,
			"download_url": "/assets/" + idString(asset.ID) + "/file?token=" + token,
			"expires_at":   expires,
		})
	}
}

// DownloadFileHandler redeems a grant and redirects to the file
func DownloadFileHandler(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		claims, err := utils.VerifyGrant(c.Query("token"), id, secret)
		if err != nil {
			logrus.WithError(err).WithField("asset_id", id).Warn("Rejected download grant")
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired download link"})
			return
		}
		var asset domain.Asset
		if err := db.Select("id", "download_url").First(&asset, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		target := asset.DownloadURL
		lv, err := settings.Linkvertise(db)
		if err != nil {
			logrus.WithError(err).Warn("Failed to read linkvertise setting")
		} else if lv.Enabled {
			target = utils.WrapLinkvertise(target, lv.UserID)
		}
		logrus.WithFields(logrus.Fields{"asset_id": id, "user": claims.Subject, "grant": claims.ID}).Info("Download redirected")
		c.Redirect(http.StatusFound, target)
	}
}
