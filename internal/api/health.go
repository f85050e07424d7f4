package api

import (
	"context"  // Ping timeout
	"net/http" // HTTP status codes
	"time"     // Ping timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// HealthHandler pings the database and redis
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		checks := gin.H{"database": "ok", "redis": "disabled"}
		healthy := true
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"], healthy = "down", false
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				logrus.WithError(err).Warn("Redis ping failed")
				checks["redis"], healthy = "down", false
			}
		}
		if !healthy {
			checks["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, checks)
			return
		}
		checks["status"] = "ok"
		c.JSON(http.StatusOK, checks)
	}
}
