package api

import (
	"errors" // Config errors
	"time"   // CORS preflight cache

	"fivem_tools/internal/domain"     // Moderation statuses
	"fivem_tools/internal/middleware" // Auth, admin, rate limit and metrics middleware
	"fivem_tools/internal/utils"      // Custom validators

	"github.com/gin-contrib/cors"                             // CORS middleware
	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
)

// NewRouter builds the gin engine with every route registered
func NewRouter(d *Deps) (*gin.Engine, error) {
	if err := utils.RegisterValidators(); err != nil {
		return nil, err
	}
	cfg := d.Config
	secret := cfg.JWTSecret
	if len(cfg.AllowedOrigins) == 0 {
		return nil, errors.New("at least one allowed origin is required")
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and metrics skip the limiter
	r.GET("/health", HealthHandler(d.DB, d.Redis))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.RateLimit != "" {
		global, err := middleware.NewRateLimiter(cfg.RateLimit, "global")
		if err != nil {
			return nil, err
		}
		r.Use(global)
	}
	authLimit, err := middleware.NewRateLimiter("20-M", "auth")
	if err != nil {
		return nil, err
	}
	spinLimit, err := middleware.NewRateLimiter("30-M", "spin")
	if err != nil {
		return nil, err
	}

	requireAuth := middleware.AuthMiddleware(d.DB, secret)
	optionalAuth := middleware.OptionalAuth(d.DB, secret)

	// Auth routes
	authGroup := r.Group("/auth", authLimit)
	authGroup.GET("/discord/login", DiscordLoginHandler(d.OAuth, d.Redis)) // Discord authorize URL
	authGroup.GET("/discord/callback", DiscordCallbackHandler(d))          // OAuth callback
	authGroup.POST("/2fa/login", TwoFactorLoginHandler(d.DB, secret, d.now))

	// Current user
	me := r.Group("/me", requireAuth)
	me.GET("", MeHandler())
	me.POST("/2fa/setup", TwoFactorSetupHandler(d.DB, cfg))
	me.POST("/2fa/enable", TwoFactorEnableHandler(d.DB))
	me.POST("/2fa/disable", TwoFactorDisableHandler(d.DB))
	me.GET("/2fa/backup-codes", BackupCodesLeftHandler(d.DB))

	// Users
	r.GET("/users/top-contributors", TopContributorsHandler(d.DB))
	r.GET("/users/:id", UserProfileHandler(d.DB))

	// Assets
	r.GET("/assets", ListAssetsHandler(d.DB, d.Redis))
	r.GET("/assets/recent", RecentAssetsHandler(d.DB))
	r.GET("/assets/:id", optionalAuth, GetAssetHandler(d.DB))
	r.GET("/assets/:id/reviews", ListReviewsHandler(d.DB))
	r.GET("/assets/:id/file", DownloadFileHandler(d.DB, cfg.DownloadSecret)) // Grant token in query
	assets := r.Group("/assets", requireAuth)
	assets.POST("", CreateAssetHandler(d))
	assets.PUT("/:id", UpdateAssetHandler(d.DB, d.Redis))
	assets.DELETE("/:id", DeleteAssetHandler(d.DB, d.Redis))
	assets.POST("/:id/reviews", CreateReviewHandler(d.DB, d.Notifier))
	assets.POST("/:id/download", DownloadHandler(d))

	// Forum
	r.GET("/forum/categories", ForumCategoriesHandler(d.DB))
	r.GET("/forum/threads", ListThreadsHandler(d.DB))
	r.GET("/forum/threads/:id", optionalAuth, GetThreadHandler(d.DB))
	r.GET("/forum/threads/:id/replies", optionalAuth, ListRepliesHandler(d.DB))
	r.GET("/forum/search", SearchThreadsHandler(d.DB))
	forum := r.Group("/forum", requireAuth)
	forum.POST("/threads", CreateThreadHandler(d))
	forum.POST("/threads/:id/replies", CreateReplyHandler(d))
	r.POST("/likes", requireAuth, ToggleLikeHandler(d.DB, d.Notifier))

	// Coins
	coins := r.Group("/coins", requireAuth)
	coins.GET("", GetCoinsHandler(d.DB, d.Redis))
	coins.GET("/transactions", GetCoinHistoryHandler(d.DB, d.Redis))
	coins.POST("/daily", ClaimDailyCoinsHandler(d))
	coins.GET("/daily/status", DailyCoinsStatusHandler(d))
	coins.POST("/transfer", TransferHandler(d.DB, d.Redis, d.Notifier))

	// Spin wheel
	r.GET("/spin", optionalAuth, SpinWheelHandler(d))
	spin := r.Group("/spin", requireAuth)
	spin.POST("", spinLimit, SpinHandler(d))
	spin.POST("/tickets/buy", BuyTicketsHandler(d))
	spin.POST("/daily", ClaimDailyTicketsHandler(d))
	spin.GET("/daily", DailyTicketStatusHandler(d))
	spin.GET("/history", SpinHistoryHandler(d.DB))

	// XP and badges
	r.GET("/xp/leaderboard", LeaderboardHandler(d.DB, d.Redis))
	r.GET("/xp/me/transactions", requireAuth, XPHistoryHandler(d.DB))
	r.GET("/xp/:userId", UserXPHandler(d.DB))
	r.GET("/badges", BadgesHandler(d.DB))

	// Notifications and realtime
	notifications := r.Group("/notifications", requireAuth)
	notifications.GET("", ListNotificationsHandler(d.DB))
	notifications.GET("/unread-count", UnreadCountHandler(d.DB))
	notifications.POST("/:id/read", MarkReadHandler(d.DB))
	notifications.POST("/read-all", MarkAllReadHandler(d.DB))
	r.GET("/realtime/ws", RealtimeHandler(d.DB, d.Hub, secret)) // Token in query, browsers cannot set headers
	r.GET("/realtime/online", OnlineHandler(d.Hub))

	// Direct messages and reports
	messages := r.Group("/messages", requireAuth)
	messages.GET("", ListMessagesHandler(d.DB))
	messages.POST("", SendMessageHandler(d))
	messages.GET("/conversations", ConversationsHandler(d.DB))
	messages.POST("/read", MarkMessagesReadHandler(d.DB))
	reports := r.Group("/reports", requireAuth)
	reports.POST("", CreateReportHandler(d))
	reports.GET("/mine", MyReportsHandler(d.DB))

	r.GET("/banners", optionalAuth, BannersHandler(d.DB, d.Redis, d.now))

	// Admin routes (protected, admin only)
	admin := r.Group("/admin", requireAuth, middleware.AdminOnlyMiddleware(d.DB))
	admin.GET("/stats", StatsHandler(d.DB, d.now))
	admin.GET("/users", ListUsersHandler(d.DB, d.Redis))
	admin.GET("/users/banned", BannedUsersHandler(d.DB))
	admin.POST("/users/:id/ban", BanUserHandler(d.DB, d.Redis))
	admin.POST("/users/:id/unban", UnbanUserHandler(d.DB, d.Redis))
	admin.PUT("/users/:id/role", UpdateRoleHandler(d.DB, d.Redis))
	admin.POST("/coins", AdjustCoinsHandler(d.DB, d.Redis, d.Notifier))
	admin.GET("/transactions", ListTransactionsHandler(d.DB, d.Redis))

	admin.GET("/assets/pending", PendingAssetsHandler(d.DB))
	admin.POST("/assets/:id/approve", ModerateAssetHandler(d.DB, d.Redis, d.Notifier, domain.AssetApproved))
	admin.POST("/assets/:id/reject", ModerateAssetHandler(d.DB, d.Redis, d.Notifier, domain.AssetRejected))
	admin.PUT("/assets/:id/feature", FeatureAssetHandler(d.DB, d.Redis))

	admin.PUT("/forum/threads/:id", ModerateThreadHandler(d.DB))
	admin.DELETE("/forum/threads/:id", DeleteThreadHandler(d.DB))
	admin.POST("/forum/categories", CreateCategoryHandler(d.DB))

	admin.GET("/reports", ListReportsHandler(d.DB))
	admin.PUT("/reports/:id", UpdateReportHandler(d))

	admin.GET("/spin/prizes", ListPrizesHandler(d.DB))
	admin.POST("/spin/prizes", CreatePrizeHandler(d.DB))
	admin.POST("/spin/prizes/init", InitPrizesHandler(d.DB))
	admin.PUT("/spin/prizes/:id", UpdatePrizeHandler(d.DB))
	admin.DELETE("/spin/prizes/:id", DeletePrizeHandler(d.DB))
	admin.GET("/spin/settings", GetSpinSettingsHandler(d.DB))
	admin.PUT("/spin/settings", PutSpinSettingsHandler(d.DB))
	admin.POST("/spin/force-wins", CreateForceWinHandler(d.DB))
	admin.GET("/spin/force-wins", ListForceWinsHandler(d.DB))
	admin.GET("/spin/stats", SpinStatsHandler(d.DB))
	admin.POST("/spin/tickets", GrantTicketsHandler(d))

	admin.POST("/banners", CreateBannerHandler(d.DB, d.Redis))
	admin.PUT("/banners/:id", UpdateBannerHandler(d.DB, d.Redis))
	admin.DELETE("/banners/:id", DeleteBannerHandler(d.DB, d.Redis))

	admin.POST("/badges/award", AwardBadgeHandler(d.DB, d.Notifier))
	admin.GET("/settings/:key", GetSettingHandler(d.DB))
	admin.PUT("/settings/:key", PutSettingHandler(d.DB))

	return r, nil
}
