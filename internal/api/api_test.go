package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"fivem_tools/internal/config"
	"fivem_tools/internal/db"
	"fivem_tools/internal/discord"
	"fivem_tools/internal/domain"
	"fivem_tools/internal/moderation"
	"fivem_tools/internal/notify"
	"fivem_tools/internal/realtime"
	"fivem_tools/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret    = "api-test-secret"
	adminDiscord  = "100000000000000001"
	playerDiscord = "200000000000000002"
)

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
}

// fakeOAuth resolves callback codes to canned Discord profiles
type fakeOAuth struct {
	profiles map[string]*discord.Profile
}

func (f *fakeOAuth) AuthURL(state string) string {
	return "https://discord.test/oauth2/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Exchange(_ context.Context, code string) (*discord.Profile, error) {
	p, ok := f.profiles[code]
	if !ok {
		return nil, errors.New("invalid code")
	}
	return p, nil
}

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	mr     *miniredis.Miniredis
	deps   *Deps
	oauth  *fakeOAuth
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(gdb))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		AppURL:         "http://localhost:3000",
		DBDriver:       "sqlite",
		JWTSecret:      testSecret,
		DownloadSecret: testSecret + "-downloads",
		AdminDiscordID: adminDiscord,
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:      "1000-M",
		TOTPIssuer:     "FiveM Tools Test",
	}
	hub := realtime.NewHub(cfg.AllowedOrigins)
	oauth := &fakeOAuth{profiles: map[string]*discord.Profile{}}
	deps := &Deps{
		DB:       gdb,
		Redis:    rdb,
		Config:   cfg,
		Notifier: notify.New(gdb, hub),
		Hub:      hub,
		OAuth:    oauth,
		Webhook:  discord.NewWebhook(""),
		AutoBan:  moderation.NewAutoBan(gdb),
		Rand:     func() float64 { return 0.35 }, // "10 Coins" on the stock wheel
	}
	r, err := NewRouter(deps)
	require.NoError(t, err)
	return &testEnv{t: t, db: gdb, mr: mr, deps: deps, oauth: oauth, router: r}
}

func (e *testEnv) user(discordID string, coins int64) *domain.User {
	e.t.Helper()
	u := &domain.User{DiscordID: discordID, Username: "user" + discordID[len(discordID)-3:], Coins: coins}
	require.NoError(e.t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) admin() *domain.User {
	e.t.Helper()
	u := &domain.User{DiscordID: adminDiscord, Username: "admin", Role: domain.RoleAdmin, Membership: domain.MembershipAdmin}
	require.NoError(e.t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) token(u *domain.User) string {
	e.t.Helper()
	tok, err := utils.GenerateJWT(u.ID, u.DiscordID, testSecret)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) reload(id uint) domain.User {
	e.t.Helper()
	var u domain.User
	require.NoError(e.t, e.db.First(&u, id).Error)
	return u
}

// do sends a request, encoding body as JSON when it is not nil
func (e *testEnv) do(method, path, tok string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func asMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	return decode[map[string]any](t, w)
}

// num reads a JSON number field
func num(t *testing.T, m map[string]any, key string) int64 {
	t.Helper()
	v, ok := m[key].(float64)
	require.True(t, ok, "field %q is not a number: %v", key, m[key])
	return int64(v)
}

func (e *testEnv) notifications(userID uint, kind string) []domain.Notification {
	e.t.Helper()
	var out []domain.Notification
	require.NoError(e.t, e.db.Where("user_id = ? AND type = ?", userID, kind).Find(&out).Error)
	return out
}
