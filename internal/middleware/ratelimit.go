package middleware

import (
	"net/http" // HTTP status codes
	"time"     // Store cleanup interval

	"github.com/gin-gonic/gin"                                      // Gin web framework
	"github.com/sirupsen/logrus"                                    // Logging library
	limiter "github.com/ulule/limiter/v3"                           // Rate limiter core
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin" // Gin adapter
	"github.com/ulule/limiter/v3/drivers/store/memory"              // In-process counters
)

// NewRateLimiter builds a fixed window limiter keyed by client IP.
// formatted uses the limiter notation, e.g. "100-M" for 100 requests per minute.
func NewRateLimiter(formatted, prefix string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err // Bad notation in config
	}
	// Each limiter gets its own prefix so windows are not shared
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute, // Drop expired windows
	})
	return ginlimiter.NewMiddleware(limiter.New(store, rate),
		ginlimiter.WithKeyGetter(func(c *gin.Context) string {
			return c.ClientIP() // Honors the trusted proxy settings of the engine
		}),
		// Answer with the usual JSON error body
		ginlimiter.WithLimitReachedHandler(func(c *gin.Context) {
			logrus.WithFields(logrus.Fields{"ip": c.ClientIP(), "path": c.FullPath(), "limiter": prefix}).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
		}),
		// Store failures fail closed
		ginlimiter.WithErrorHandler(func(c *gin.Context, err error) {
			logrus.WithError(err).Error("Rate limiter failure")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}),
	), nil
}
