package middleware

import (
	"net/http" // HTTP status codes

	"fivem_tools/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// AdminOnlyMiddleware lets through users with the admin role or admin membership.
// AuthMiddleware loads the user fresh on every request, so a demotion applies at once.
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			// Only the id was set, look the role up
			userID, exists := c.Get(ContextUserID)
			if !exists {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			user = &domain.User{}
			if err := db.Select("id", "role", "membership").First(user, userID).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
				return
			}
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
