package middleware

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"fivem_tools/internal/domain" // Importing domain models
	"fivem_tools/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// Context keys set by the auth middlewares
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

func bearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// resolve loads the user behind a session token
func resolve(db *gorm.DB, secret, token string) (*domain.User, error) {
	claims, err := utils.ParseJWT(token, secret)
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AuthMiddleware validates the session token, loads the user and rejects banned accounts
func AuthMiddleware(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		// Check if the Authorization header is present and properly formatted
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		user, err := resolve(db, secret, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if user.IsBanned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account banned", "reason": user.BanReason})
			return
		}
		c.Set(ContextUserID, user.ID) // Store userID in context
		c.Set(ContextUser, user)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid session is presented and never rejects
func OptionalAuth(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearer(c); token != "" {
			if user, err := resolve(db, secret, token); err == nil && !user.IsBanned {
				c.Set(ContextUserID, user.ID)
				c.Set(ContextUser, user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user set by the auth middlewares, or nil
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
