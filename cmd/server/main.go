package main

import (
	"context" // context package is needed for Redis operations

	"fivem_tools/internal/api"        // Custom package for API handlers
	"fivem_tools/internal/config"     // Custom package for configuration
	"fivem_tools/internal/db"         // Database connection, migrations and seed data
	"fivem_tools/internal/discord"    // Discord OAuth and webhook
	"fivem_tools/internal/moderation" // Auto-ban rules
	"fivem_tools/internal/notify"     // Notifications
	"fivem_tools/internal/realtime"   // Websocket hub

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable logs in production
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}
	if err := db.Seed(gdb); err != nil {
		logrus.Fatalf("failed to seed DB: %v", err)
	}

	// Setup Redis client; without one the API runs uncached
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	} else {
		logrus.Warn("REDIS_ADDR not set, caching and OAuth state checks are disabled")
	}

	hub := realtime.NewHub(cfg.AllowedOrigins)
	deps := &api.Deps{
		DB:       gdb,
		Redis:    redisClient,
		Config:   cfg,
		Notifier: notify.New(gdb, hub),
		Hub:      hub,
		OAuth:    discord.NewOAuth(cfg.DiscordID, cfg.DiscordSecret, cfg.DiscordRedirect),
		Webhook:  discord.NewWebhook(cfg.DiscordHook),
		AutoBan:  moderation.NewAutoBan(gdb),
	}

	r, err := api.NewRouter(deps)
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}
