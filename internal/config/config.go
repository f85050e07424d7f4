package config

import (
	"fmt"     // For DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values

	"github.com/joho/godotenv" // For loading .env files
)

const defaultOrigin = "http://localhost:3000"

// Config holds the application configuration
type Config struct {
	AppPort         string   // Application port
	AppURL          string   // Public base URL of the site
	DBDriver        string   // Database driver: mysql, postgres or sqlite
	DBUser          string   // Database user
	DBPassword      string   // Database password
	DBHost          string   // Database host
	DBPort          string   // Database port
	DBName          string   // Database name, or file path for sqlite
	JWTSecret       string   // Session JWT secret key
	DownloadSecret  string   // Download grant secret key
	RedisAddr       string   // Redis server address
	RedisPass       string   // Redis password
	RedisDB         int      // Redis database number
	IsProd          bool     // Is production environment
	DiscordID       string   // Discord OAuth client ID
	DiscordSecret   string   // Discord OAuth client secret
	DiscordRedirect string   // Discord OAuth redirect URL
	DiscordHook     string   // Discord webhook for new uploads
	AdminDiscordID  string   // Discord ID that is always admin
	AllowedOrigins  []string // CORS allowed origins
	RateLimit       string   // Global rate limit in limiter format, e.g. 100-M
	TOTPIssuer      string   // Issuer shown in authenticator apps
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	cfg := &Config{
		AppPort:         getEnv("APP_PORT", "8080"),
		AppURL:          strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		DBDriver:        getEnv("DB_DRIVER", "mysql"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBHost:          getEnv("DB_HOST", "127.0.0.1"),
		DBPort:          os.Getenv("DB_PORT"),
		DBName:          os.Getenv("DB_NAME"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		DownloadSecret:  os.Getenv("DOWNLOAD_SECRET"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPass:       os.Getenv("REDIS_PASS"),
		RedisDB:         redisDB,
		IsProd:          os.Getenv("IS_PROD") == "true",
		DiscordID:       os.Getenv("DISCORD_CLIENT_ID"),
		DiscordSecret:   os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirect: os.Getenv("DISCORD_REDIRECT_URL"),
		DiscordHook:     os.Getenv("DISCORD_WEBHOOK_URL"),
		AdminDiscordID:  os.Getenv("ADMIN_DISCORD_ID"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", defaultOrigin)),
		RateLimit:       getEnv("RATE_LIMIT", "100-M"),
		TOTPIssuer:      getEnv("TOTP_ISSUER", "FiveM Tools"),
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultOrigin} // A list of only separators leaves nothing to allow
	}
	if cfg.DownloadSecret == "" {
		cfg.DownloadSecret = cfg.JWTSecret // Share the session secret when none is set
	}
	return cfg
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBName + "?_busy_timeout=5000"
	}
	if c.DBDriver == "postgres" {
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, port)
	}
	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true&loc=UTC&charset=utf8mb4"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
