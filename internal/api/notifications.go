package api

import (
	"net/http" // HTTP status codes

	"fivem_tools/internal/domain"   // Importing domain models
	"fivem_tools/internal/realtime" // Websocket hub
	"fivem_tools/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// ListNotificationsHandler lists the caller's notifications, newest first
func ListNotificationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		query := db.Where("user_id = ?", userID)
		if c.Query("unread") == "true" {
			query = query.Where("is_read = ?", false)
		}
		var items []domain.Notification
		if err := query.Order("created_at desc, id desc").Limit(utils.QueryLimit(c, 20, utils.MaxPageSize)).Find(&items).Error; err != nil {
			serverError(c, "Failed to fetch notifications", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": items})
	}
}

// UnreadCountHandler counts unread notifications
func UnreadCountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		var n int64
		if err := db.Model(&domain.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error; err != nil {
			serverError(c, "Failed to count notifications", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}

// MarkReadHandler marks one of the caller's notifications read
func MarkReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var n domain.Notification
		if err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		if err := db.Model(&n).Update("is_read", true).Error; err != nil {
			serverError(c, "Failed to update notification", err, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// MarkAllReadHandler marks every notification of the caller read
func MarkAllReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := userIDFrom(c)
		res := db.Model(&domain.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true)
		if res.Error != nil {
			serverError(c, "Failed to update notifications", res.Error, logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "updated": res.RowsAffected})
	}
}

// RealtimeHandler upgrades to a websocket; the session token comes from the query string
// because browsers cannot set headers on websocket requests
func RealtimeHandler(db *gorm.DB, hub *realtime.Hub, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := utils.ParseJWT(c.Query("token"), secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		var user domain.User
		if err := db.Select("id", "is_banned").First(&user, claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if user.IsBanned {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account banned"})
			return
		}
		// The upgrader writes its own error response
		if err := hub.ServeWS(c.Writer, c.Request, user.ID); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("ws: upgrade failed")
		}
	}
}

// OnlineHandler reports how many users have a live socket
func OnlineHandler(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"online": hub.OnlineUsers(), "connections": hub.Connections()})
	}
}
