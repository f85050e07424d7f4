package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "123456789012345678", testSecret)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "123456789012345678", claims.DiscordID)
	assert.Equal(t, PurposeSession, claims.Purpose)
	assert.WithinDuration(t, time.Now().Add(SessionTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(1, "x", testSecret)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestChallengeCannotBeUsedAsSession(t *testing.T) {
	challenge, err := GenerateChallenge(7, "x", testSecret)
	require.NoError(t, err)

	_, err = ParseJWT(challenge, testSecret)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	claims, err := ParseChallenge(challenge, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)

	session, err := GenerateJWT(7, "x", testSecret)
	require.NoError(t, err)
	_, err = ParseChallenge(session, testSecret)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestGrantRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	token, expires, err := IssueGrant(5, 9, testSecret, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(GrantTTL), expires)

	claims, err := VerifyGrant(token, 5, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.AssetID)
	assert.Equal(t, "9", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestGrantRejectsOtherAssetExpiryAndSecret(t *testing.T) {
	token, _, err := IssueGrant(5, 9, testSecret, time.Now())
	require.NoError(t, err)

	_, err = VerifyGrant(token, 6, testSecret)
	assert.ErrorIs(t, err, ErrGrantMismatch)

	_, err = VerifyGrant(token, 5, "wrong")
	assert.Error(t, err)

	expired, _, err := IssueGrant(5, 9, testSecret, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = VerifyGrant(expired, 5, testSecret)
	assert.Error(t, err)
}
