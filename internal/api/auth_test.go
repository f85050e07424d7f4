package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fivem_tools/internal/discord"
	"fivem_tools/internal/domain"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) loginState() string {
	e.t.Helper()
	w := e.do(http.MethodGet, "/auth/discord/login", "", nil)
	require.Equal(e.t, http.StatusOK, w.Code)
	resp := asMap(e.t, w)
	state, _ := resp["state"].(string)
	require.NotEmpty(e.t, state)
	assert.Contains(e.t, resp["url"], "state="+state)
	require.True(e.t, e.mr.Exists(stateKey(state)))
	return state
}

func (e *testEnv) callback(code string) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.do(http.MethodGet, "/auth/discord/callback?code="+code+"&state="+e.loginState(), "", nil)
}

func TestDiscordCallbackRegistersUser(t *testing.T) {
	e := newTestEnv(t)
	e.oauth.profiles["good"] = &discord.Profile{ID: playerDiscord, Username: "player", GlobalName: "Player One", Email: "p@example.com", Avatar: "abc"}

	w := e.callback("good")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[AuthResponse](t, w)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "Player One", resp.User.Username)
	assert.Equal(t, int64(NewUserCoins), resp.User.Coins)
	assert.Equal(t, domain.RoleUser, resp.User.Role)
	assert.Equal(t, 1, resp.LevelInfo.Level)
	assert.Equal(t, "https://cdn.discordapp.com/avatars/"+playerDiscord+"/abc.png", resp.User.Avatar)

	var tx domain.CoinTransaction
	require.NoError(t, e.db.Where("user_id = ? AND type = ?", resp.User.ID, domain.TxSignup).First(&tx).Error)
	assert.Equal(t, int64(NewUserCoins), tx.Amount)
	assert.Len(t, e.notifications(resp.User.ID, domain.NotifyReward), 1)

	// The session works
	me := e.do(http.MethodGet, "/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)

	// A second login keeps the balance and refreshes the profile
	e.oauth.profiles["again"] = &discord.Profile{ID: playerDiscord, Username: "player", GlobalName: "Renamed"}
	w = e.callback("again")
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[AuthResponse](t, w)
	assert.Equal(t, resp.User.ID, again.User.ID)
	assert.Equal(t, "Renamed", e.reload(resp.User.ID).Username)
	assert.Equal(t, int64(NewUserCoins), e.reload(resp.User.ID).Coins)
}

func TestDiscordCallbackStateIsSingleUse(t *testing.T) {
	e := newTestEnv(t)
	e.oauth.profiles["good"] = &discord.Profile{ID: playerDiscord, Username: "player"}

	state := e.loginState()
	w := e.do(http.MethodGet, "/auth/discord/callback?code=good&state="+state, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, e.mr.Exists(stateKey(state)))

	w = e.do(http.MethodGet, "/auth/discord/callback?code=good&state="+state, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid OAuth state", asMap(t, w)["error"])

	w = e.do(http.MethodGet, "/auth/discord/callback?state="+e.loginState(), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.callback("unknown")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDiscordCallbackAdminAccount(t *testing.T) {
	e := newTestEnv(t)
	e.oauth.profiles["boss"] = &discord.Profile{ID: adminDiscord, Username: "boss"}

	w := e.callback("boss")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AuthResponse](t, w)
	assert.Equal(t, domain.RoleAdmin, resp.User.Role)
	assert.Equal(t, domain.MembershipAdmin, resp.User.Membership)
	assert.Equal(t, int64(AdminUserCoins), resp.User.Coins)
}

func TestDiscordCallbackBannedUser(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(playerDiscord, 0)
	require.NoError(t, e.db.Model(u).Updates(map[string]any{"is_banned": true, "ban_reason": "spam"}).Error)
	e.oauth.profiles["good"] = &discord.Profile{ID: playerDiscord, Username: "player"}

	w := e.callback("good")
	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := asMap(t, w)
	assert.Equal(t, "Account banned", resp["error"])
	assert.Equal(t, "spam", resp["reason"])
}

func TestTwoFactorLifecycle(t *testing.T) {
	e := newTestEnv(t)
	e.oauth.profiles["good"] = &discord.Profile{ID: playerDiscord, Username: "player"}
	w := e.callback("good")
	require.Equal(t, http.StatusOK, w.Code)
	session := decode[AuthResponse](t, w).Token

	// Enabling requires setup first
	w = e.do(http.MethodPost, "/me/2fa/enable", session, codeBody("123456"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/me/2fa/setup", session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	setup := asMap(t, w)
	secret, _ := setup["secret"].(string)
	require.NotEmpty(t, secret)
	assert.Contains(t, setup["otpauth_url"], "otpauth://totp/")

	w = e.do(http.MethodPost, "/me/2fa/enable", session, codeBody("not-a-code"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	w = e.do(http.MethodPost, "/me/2fa/enable", session, codeBody(code))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	enabled := decode[struct {
		Enabled     bool     `json:"enabled"`
		BackupCodes []string `json:"backup_codes"`
	}](t, w)
	assert.True(t, enabled.Enabled)
	require.Len(t, enabled.BackupCodes, 10)

	w = e.do(http.MethodGet, "/me/2fa/backup-codes", session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(10), num(t, asMap(t, w), "remaining"))

	// Logging in now yields a challenge instead of a session
	w = e.callback("good")
	require.Equal(t, http.StatusOK, w.Code)
	resp := asMap(t, w)
	assert.Equal(t, true, resp["two_factor_required"])
	assert.Nil(t, resp["token"])
	challenge, _ := resp["challenge"].(string)
	require.NotEmpty(t, challenge)

	// A challenge is not a session
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/me", challenge, nil).Code)

	login := func(code string) *httptest.ResponseRecorder {
		return e.do(http.MethodPost, "/auth/2fa/login", "", map[string]string{"challenge": challenge, "code": code})
	}
	assert.Equal(t, http.StatusUnauthorized, login("not-a-code").Code)

	w = login(enabled.BackupCodes[0])
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[AuthResponse](t, w).Token)
	assert.Equal(t, http.StatusUnauthorized, login(enabled.BackupCodes[0]).Code)

	code, err = totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, login(code).Code)

	w = e.do(http.MethodGet, "/me/2fa/backup-codes", session, nil)
	assert.Equal(t, int64(9), num(t, asMap(t, w), "remaining"))

	w = e.do(http.MethodPost, "/me/2fa/disable", session, codeBody(code))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, asMap(t, w)["enabled"])

	w = e.callback("good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[AuthResponse](t, w).Token)
}

func codeBody(code string) map[string]string {
	return map[string]string{"code": code}
}
