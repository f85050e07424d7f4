package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"time"     // State lifetime

	"fivem_tools/internal/discord"    // Discord profile
	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/rewards"    // Signup bonus and levels
	"fivem_tools/internal/twofactor"  // 2FA verification
	"fivem_tools/internal/utils"      // JWT utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // OAuth state values
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Signup balances
const (
	NewUserCoins   = 100
	AdminUserCoins = 999999
)

const oauthStateTTL = 10 * time.Minute

func stateKey(state string) string {
	return "oauth:state:" + state
}

// AuthResponse is returned once a user is fully logged in
type AuthResponse struct {
	Token     string            `json:"token"` // Session JWT
	User      *domain.User      `json:"user"`
	LevelInfo rewards.LevelInfo `json:"level_info"`
}

// DiscordLoginHandler returns the Discord authorize URL and remembers its state
func DiscordLoginHandler(oauth OAuthProvider, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := uuid.NewString()
		if rdb != nil {
			if err := rdb.Set(c.Request.Context(), stateKey(state), "1", oauthStateTTL).Err(); err != nil {
				serverError(c, "Failed to start login", err, nil)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"url": oauth.AuthURL(state), "state": state})
	}
}

// DiscordCallbackHandler finishes the OAuth flow and logs the user in
func DiscordCallbackHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code"})
			return
		}
		// The state must have been issued by us and is single use
		if d.Redis != nil {
			err := d.Redis.GetDel(c.Request.Context(), stateKey(c.Query("state"))).Err()
			if errors.Is(err, redis.Nil) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
				return
			}
			if err != nil {
				serverError(c, "Failed to verify login state", err, nil)
				return
			}
		}
		profile, err := d.OAuth.Exchange(c.Request.Context(), code)
		if err != nil {
			logrus.WithError(err).Warn("Discord code exchange failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Discord authentication failed"})
			return
		}
		user, created, err := upsertDiscordUser(d.DB, profile, d.Config.AdminDiscordID, d.now())
		if err != nil {
			serverError(c, "Failed to save user", err, logrus.Fields{"discord_id": profile.ID})
			return
		}
		if created && d.Notifier != nil {
			d.Notifier.Send(user.ID, domain.NotifyReward, "Welcome!",
				"You received your welcome bonus of coins", "/coins")
		}
		if user.IsBanned {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account banned", "reason": user.BanReason})
			return
		}
		// Accounts with 2FA get a short lived challenge instead of a session
		if user.TwoFactorEnabled {
			challenge, err := utils.GenerateChallenge(user.ID, user.DiscordID, d.Config.JWTSecret)
			if err != nil {
				serverError(c, "Failed to generate token", err, logrus.Fields{"user_id": user.ID})
				return
			}
			c.JSON(http.StatusOK, gin.H{"two_factor_required": true, "challenge": challenge})
			return
		}
		respondSession(c, user, d.Config.JWTSecret)
	}
}

func respondSession(c *gin.Context, user *domain.User, secret string) {
	token, err := utils.GenerateJWT(user.ID, user.DiscordID, secret)
	if err != nil {
		serverError(c, "Failed to generate token", err, logrus.Fields{"user_id": user.ID})
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user, LevelInfo: rewards.LevelForXP(user.XP)})
}

// upsertDiscordUser creates the account on first login and refreshes the profile afterwards
func upsertDiscordUser(db *gorm.DB, p *discord.Profile, adminDiscordID string, now time.Time) (*domain.User, bool, error) {
	var user domain.User
	created := false
	isAdmin := adminDiscordID != "" && p.ID == adminDiscordID
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("discord_id = ?", p.ID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = domain.User{
				DiscordID:  p.ID,
				Username:   p.DisplayName(),
				Email:      p.Email,
				Avatar:     p.AvatarURL(),
				Role:       domain.RoleUser,
				Membership: domain.MembershipFree,
				LastSeen:   &now,
			}
			bonus := int64(NewUserCoins)
			if isAdmin {
				user.Role, user.Membership, bonus = domain.RoleAdmin, domain.MembershipAdmin, AdminUserCoins
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			balance, err := rewards.Credit(tx, rewards.Movement{UserID: user.ID, Amount: bonus, Type: domain.TxSignup, Reason: "Welcome bonus"})
			if err != nil {
				return err
			}
			user.Coins = balance
			created = true
			return nil
		}
		if err != nil {
			return err
		}
		updates := map[string]any{
			"username":  p.DisplayName(),
			"avatar":    p.AvatarURL(),
			"email":     p.Email,
			"last_seen": now,
		}
		if isAdmin && !user.IsAdmin() {
			updates["role"], updates["membership"] = domain.RoleAdmin, domain.MembershipAdmin
			user.Role, user.Membership = domain.RoleAdmin, domain.MembershipAdmin
		}
		if err := tx.Model(&domain.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}
		user.Username, user.Avatar, user.Email, user.LastSeen = p.DisplayName(), p.AvatarURL(), p.Email, &now
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "discord_id": user.DiscordID, "admin": isAdmin}).Info("User registered")
	}
	return &user, created, nil
}

// TwoFactorLoginRequest completes a login that requires 2FA
type TwoFactorLoginRequest struct {
	Challenge string `json:"challenge" binding:"required"`
	Code      string `json:"code" binding:"required"` // TOTP or backup code
}

// TwoFactorLoginHandler trades a challenge and a valid code for a session
func TwoFactorLoginHandler(db *gorm.DB, secret string, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TwoFactorLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		claims, err := utils.ParseChallenge(req.Challenge, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired challenge"})
			return
		}
		var user domain.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if user.IsBanned {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account banned", "reason": user.BanReason})
			return
		}
		ok, err := twofactor.Verify(db, &user, req.Code, now())
		if err != nil {
			serverError(c, "Failed to verify code", err, logrus.Fields{"user_id": user.ID})
			return
		}
		if !ok {
			logrus.WithField("user_id", user.ID).Warn("Invalid 2FA code")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
			return
		}
		respondSession(c, &user, secret)
	}
}

// MeHandler returns the logged in user
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "level_info": rewards.LevelForXP(user.XP)})
	}
}
