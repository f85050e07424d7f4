package utils

import (
	"errors" // Sentinel errors
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Token purposes
const (
	PurposeSession   = "session"
	PurposeTwoFactor = "2fa"
)

// Lifetimes of the issued tokens
const (
	SessionTTL   = 30 * 24 * time.Hour
	ChallengeTTL = 5 * time.Minute
)

// ErrWrongPurpose is returned when a token is used for something it was not issued for
var ErrWrongPurpose = errors.New("token purpose mismatch")

// JWT Claims
type Claims struct {
	UserID               uint   `json:"user_id"`    // Custom claim for user ID
	DiscordID            string `json:"discord_id"` // Discord snowflake of the user
	Purpose              string `json:"purpose"`    // session or 2fa
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a session token for a given user
func GenerateJWT(userID uint, discordID, secret string) (string, error) {
	return sign(userID, discordID, PurposeSession, SessionTTL, secret)
}

// GenerateChallenge creates a short lived token proving the first login step passed
func GenerateChallenge(userID uint, discordID, secret string) (string, error) {
	return sign(userID, discordID, PurposeTwoFactor, ChallengeTTL, secret)
}

func sign(userID uint, discordID, purpose string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		DiscordID: discordID,
		Purpose:   purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a session token
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	return parse(tokenStr, secret, PurposeSession)
}

// ParseChallenge parses and validates a 2FA challenge token
func ParseChallenge(tokenStr, secret string) (*Claims, error) {
	return parse(tokenStr, secret, PurposeTwoFactor)
}

func parse(tokenStr, secret, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
