package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fivem_tools/internal/domain"
	"fivem_tools/internal/rewards"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := asMap(t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "ok", resp["database"])
	assert.Equal(t, "ok", resp["redis"])

	e.mr.Close()
	w = e.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "down", asMap(t, w)["redis"])
}

func TestLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	low := e.user(playerDiscord, 0)
	high := e.user("300000000000000003", 0)
	banned := e.user("400000000000000004", 0)
	require.NoError(t, e.db.Model(low).Update("xp", 150).Error)
	require.NoError(t, e.db.Model(high).Update("xp", 2500).Error)
	require.NoError(t, e.db.Model(banned).Updates(map[string]any{"xp": 9000, "is_banned": true}).Error)

	w := e.do(http.MethodGet, "/xp/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[struct {
		Leaderboard []LeaderboardEntry `json:"leaderboard"`
		Cached      bool               `json:"cached"`
	}](t, w)
	assert.False(t, board.Cached)
	require.Len(t, board.Leaderboard, 2)
	assert.Equal(t, high.ID, board.Leaderboard[0].ID)
	assert.Equal(t, 1, board.Leaderboard[0].Rank)
	assert.Equal(t, rewards.LevelForXP(2500).Title, board.Leaderboard[0].Title)
	assert.Equal(t, low.ID, board.Leaderboard[1].ID)

	assert.Equal(t, true, asMap(t, e.do(http.MethodGet, "/xp/leaderboard", "", nil))["cached"])
}

func TestUserXPAndHistory(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(playerDiscord, 0)
	tok := e.token(u)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/coins/daily", tok, nil).Code)
	daily := rewards.ActivityXP[rewards.ActivityDailyLogin]

	w := e.do(http.MethodGet, "/xp/"+idString(u.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := asMap(t, w)
	assert.Equal(t, daily, num(t, resp, "xp"))
	assert.Equal(t, float64(rewards.LevelForXP(daily).Level), resp["level_info"].(map[string]any)["level"])

	w = e.do(http.MethodGet, "/xp/me/transactions", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct {
		Transactions []domain.XPTransaction `json:"transactions"`
		Total        int64                  `json:"total"`
	}](t, w)
	assert.Equal(t, int64(1), history.Total)
	require.Len(t, history.Transactions, 1)
	assert.Equal(t, daily, history.Transactions[0].Amount)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/xp/9999", "", nil).Code)
}

func TestUserProfiles(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	e.createAsset(admin, "Police Job", 0)
	e.createAsset(admin, "EMS Job", 0)
	e.user(playerDiscord, 0)

	for _, id := range []string{idString(admin.ID), adminDiscord} {
		w := e.do(http.MethodGet, "/users/"+id, "", nil)
		require.Equal(t, http.StatusOK, w.Code, id)
		profile := decode[struct {
			Profile PublicProfile `json:"profile"`
		}](t, w).Profile
		assert.Equal(t, admin.ID, profile.ID)
		assert.Equal(t, "admin", profile.Username)
	}
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/users/9999", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/users/nobody", "", nil).Code)

	w := e.do(http.MethodGet, "/users/top-contributors", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	contributors := decode[struct {
		Contributors []Contributor `json:"contributors"`
	}](t, w).Contributors
	require.Len(t, contributors, 1)
	assert.Equal(t, admin.ID, contributors[0].ID)
	assert.Equal(t, int64(2), contributors[0].AssetCount)
}

func TestNotifications(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(playerDiscord, 0)
	other := e.user("300000000000000003", 0)
	tok := e.token(u)

	first := e.deps.Notifier.Send(u.ID, domain.NotifySystem, "Welcome", "Hello there", "/")
	require.NotNil(t, first)
	e.deps.Notifier.Send(u.ID, domain.NotifyCoins, "Coins received", "You got coins", "/coins")
	e.deps.Notifier.Send(u.ID, domain.NotifyBadge, "New badge earned", "You earned a badge", "/profile")
	foreign := e.deps.Notifier.Send(other.ID, domain.NotifySystem, "Welcome", "Hello there", "/")

	w := e.do(http.MethodGet, "/notifications/unread-count", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), num(t, asMap(t, w), "count"))

	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/notifications/"+idString(first.ID)+"/read", tok, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/notifications/"+idString(foreign.ID)+"/read", tok, nil).Code)

	w = e.do(http.MethodGet, "/notifications?unread=true", tok, nil)
	unread := decode[struct {
		Notifications []domain.Notification `json:"notifications"`
	}](t, w).Notifications
	require.Len(t, unread, 2)
	assert.Equal(t, domain.NotifyBadge, unread[0].Type)

	w = e.do(http.MethodPost, "/notifications/read-all", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), num(t, asMap(t, w), "updated"))
	assert.Equal(t, int64(0), num(t, asMap(t, e.do(http.MethodGet, "/notifications/unread-count", tok, nil)), "count"))
	assert.Len(t, asMap(t, e.do(http.MethodGet, "/notifications", tok, nil))["notifications"], 3)
}

func TestRealtimeNotifications(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	u := e.user(playerDiscord, 0)

	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime/ws?token="

	_, resp, err := websocket.DefaultDialer.Dial(base+"garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+e.token(u), nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)

	w := e.do(http.MethodGet, "/realtime/online", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), num(t, asMap(t, w), "online"))

	// An admin grant reaches the open socket
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/admin/coins", e.token(admin), map[string]any{"user_id": u.ID, "amount": 5, "action": "add"}).Code)
	var pushed struct {
		Type string              `json:"type"`
		Data domain.Notification `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, "notification", pushed.Type)
	assert.Equal(t, domain.NotifyCoins, pushed.Data.Type)
	assert.Equal(t, u.ID, pushed.Data.UserID)
}

func TestRouterNeedsAnOrigin(t *testing.T) {
	e := newTestEnv(t)
	deps := *e.deps
	cfg := *deps.Config
	cfg.AllowedOrigins = nil
	deps.Config = &cfg
	assert.NotPanics(t, func() {
		_, err := NewRouter(&deps)
		assert.Error(t, err)
	})
}
