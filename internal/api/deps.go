package api

import (
	"context"  // Context for OAuth exchange
	"errors"   // Error comparison
	"io"       // Empty body detection
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Clock

	"fivem_tools/internal/config"     // Application configuration
	"fivem_tools/internal/discord"    // Discord OAuth and webhook
	"fivem_tools/internal/middleware" // Context keys
	"fivem_tools/internal/moderation" // Auto-ban rules
	"fivem_tools/internal/notify"     // Notifications
	"fivem_tools/internal/realtime"   // Websocket hub

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// OAuthProvider is the Discord login flow used by the auth handlers
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*discord.Profile, error)
}

// Deps carries everything the handlers need
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client // Optional, nil disables caching
	Config   *config.Config
	Notifier *notify.Service
	Hub      *realtime.Hub
	OAuth    OAuthProvider
	Webhook  *discord.Webhook
	AutoBan  *moderation.AutoBan
	Rand     func() float64   // Spin roll in [0, 1)
	Now      func() time.Time // UTC clock
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// userIDFrom reads the userID set by the auth middleware
func userIDFrom(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// idParam parses a positive numeric path parameter, answering 400 when it is not one
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(v), true
}

// bindOptionalJSON binds a body the caller may leave out; a body that is sent must still bind and validate
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// serverError logs err and answers 500 with msg
func serverError(c *gin.Context, msg string, err error, fields logrus.Fields) {
	logrus.WithError(err).WithFields(fields).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
