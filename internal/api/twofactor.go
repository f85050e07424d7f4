package api

import (
	"net/http" // HTTP status codes

	"fivem_tools/internal/config"     // TOTP issuer
	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/twofactor"  // TOTP and backup codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CodeRequest carries a TOTP code
type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// TwoFactorSetupHandler generates a pending secret for the user
func TwoFactorSetupHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user.TwoFactorEnabled {
			c.JSON(http.StatusConflict, gin.H{"error": "Two-factor authentication already enabled"})
			return
		}
		key, err := twofactor.Generate(cfg.TOTPIssuer, user.Username)
		if err != nil {
			serverError(c, "Failed to generate secret", err, logrus.Fields{"user_id": user.ID})
			return
		}
		if err := db.Model(&domain.User{}).Where("id = ?", user.ID).Update("totp_pending", key.Secret()).Error; err != nil {
			serverError(c, "Failed to store secret", err, logrus.Fields{"user_id": user.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"secret": key.Secret(), "otpauth_url": key.URL()})
	}
}

// TwoFactorEnableHandler confirms the pending secret and issues backup codes
func TwoFactorEnableHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var req CodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if user.TwoFactorEnabled {
			c.JSON(http.StatusConflict, gin.H{"error": "Two-factor authentication already enabled"})
			return
		}
		if user.TOTPPending == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Two-factor setup has not been started"})
			return
		}
		if !twofactor.ValidateCode(req.Code, user.TOTPPending) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
			return
		}
		plain, rows, err := twofactor.NewBackupCodes(user.ID)
		if err != nil {
			serverError(c, "Failed to generate backup codes", err, logrus.Fields{"user_id": user.ID})
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", user.ID).Delete(&domain.BackupCode{}).Error; err != nil {
				return err
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
			return tx.Model(&domain.User{}).Where("id = ?", user.ID).Updates(map[string]any{
				"totp_secret":        user.TOTPPending,
				"totp_pending":       "",
				"two_factor_enabled": true,
			}).Error
		})
		if err != nil {
			serverError(c, "Failed to enable two-factor authentication", err, logrus.Fields{"user_id": user.ID})
			return
		}
		logrus.WithField("user_id", user.ID).Info("Two-factor authentication enabled")
		c.JSON(http.StatusOK, gin.H{"enabled": true, "backup_codes": plain})
	}
}

// TwoFactorDisableHandler turns 2FA off after checking a current code
func TwoFactorDisableHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var req CodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if !user.TwoFactorEnabled {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Two-factor authentication is not enabled"})
			return
		}
		if !twofactor.ValidateCode(req.Code, user.TOTPSecret) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", user.ID).Delete(&domain.BackupCode{}).Error; err != nil {
				return err
			}
			return tx.Model(&domain.User{}).Where("id = ?", user.ID).Updates(map[string]any{
				"totp_secret":        "",
				"two_factor_enabled": false,
			}).Error
		})
		if err != nil {
			serverError(c, "Failed to disable two-factor authentication", err, logrus.Fields{"user_id": user.ID})
			return
		}
		logrus.WithField("user_id", user.ID).Info("Two-factor authentication disabled")
		c.JSON(http.StatusOK, gin.H{"enabled": false})
	}
}

// BackupCodesLeftHandler reports how many unused backup codes remain
func BackupCodesLeftHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		var n int64
		if err := db.Model(&domain.BackupCode{}).Where("user_id = ? AND used_at IS NULL", userID).Count(&n).Error; err != nil {
			serverError(c, "Failed to count backup codes", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"remaining": n})
	}
}
