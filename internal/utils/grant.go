package utils

import (
	"errors"  // Sentinel errors
	"strconv" // User id subject
	"time"    // Grant expiry

	"github.com/golang-jwt/jwt/v5" // JWT library
	"github.com/google/uuid"       // Unique grant ids
)

// GrantTTL is how long a download grant stays valid
const GrantTTL = 5 * time.Minute

// ErrGrantMismatch is returned when a grant is presented for another asset
var ErrGrantMismatch = errors.New("grant issued for another asset")

// GrantClaims authorize one user to fetch one asset file
type GrantClaims struct {
	AssetID uint `json:"asset_id"` // Asset the grant is bound to
	// Subject is the user id
	jwt.RegisteredClaims
}

// IssueGrant signs a download grant for the asset and user
func IssueGrant(assetID, userID uint, secret string, now time.Time) (string, time.Time, error) {
	expires := now.Add(GrantTTL) // Short lived, the link is handed out per download
	claims := GrantClaims{
		AssetID: assetID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(), // Distinguishes grants issued in the same second
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	// Sign with the download secret, never the session secret when one is configured
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// VerifyGrant checks the signature, expiry and asset binding of a grant
func VerifyGrant(tokenStr string, assetID uint, secret string) (*GrantClaims, error) {
	// Pin the algorithm and insist on an expiry
	token, err := jwt.ParseWithClaims(tokenStr, &GrantClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err // Bad signature or expired
	}
	claims, ok := token.Claims.(*GrantClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	// A grant for one asset cannot unlock another
	if claims.AssetID != assetID {
		return nil, ErrGrantMismatch
	}
	return claims, nil
}
