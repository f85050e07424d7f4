package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"fivem_tools/internal/db"
	"fivem_tools/internal/domain"
	"fivem_tools/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "mw.db"), true)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func token(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, err := utils.GenerateJWT(u.ID, u.DiscordID, secret)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	gdb := newTestDB(t)
	user := &domain.User{DiscordID: "1", Username: "u"}
	bannedUser := &domain.User{DiscordID: "2", Username: "b", IsBanned: true, BanReason: "spam"}
	require.NoError(t, gdb.Create(user).Error)
	require.NoError(t, gdb.Create(bannedUser).Error)

	r := gin.New()
	r.GET("/private", AuthMiddleware(gdb, secret), func(c *gin.Context) {
		id, _ := c.Get(ContextUserID)
		c.JSON(http.StatusOK, gin.H{"id": id, "username": CurrentUser(c).Username})
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", "garbage").Code)

	challenge, err := utils.GenerateChallenge(user.ID, user.DiscordID, secret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", challenge).Code)

	w := do(r, "/private", token(t, user))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"u"`)

	w = do(r, "/private", token(t, bannedUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "spam")
}

func TestOptionalAuth(t *testing.T) {
	gdb := newTestDB(t)
	user := &domain.User{DiscordID: "1", Username: "u"}
	require.NoError(t, gdb.Create(user).Error)

	r := gin.New()
	r.GET("/public", OptionalAuth(gdb, secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"logged_in": CurrentUser(c) != nil})
	})

	assert.JSONEq(t, `{"logged_in":false}`, do(r, "/public", "").Body.String())
	assert.JSONEq(t, `{"logged_in":false}`, do(r, "/public", "garbage").Body.String())
	assert.JSONEq(t, `{"logged_in":true}`, do(r, "/public", token(t, user)).Body.String())
}

func TestAdminOnlyMiddleware(t *testing.T) {
	gdb := newTestDB(t)
	user := &domain.User{DiscordID: "1", Username: "u"}
	admin := &domain.User{DiscordID: "2", Username: "a", Role: domain.RoleAdmin}
	member := &domain.User{DiscordID: "3", Username: "m", Membership: domain.MembershipAdmin}
	for _, u := range []*domain.User{user, admin, member} {
		require.NoError(t, gdb.Create(u).Error)
	}

	r := gin.New()
	r.GET("/admin", AuthMiddleware(gdb, secret), AdminOnlyMiddleware(gdb), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", token(t, user)).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", token(t, admin)).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", token(t, member)).Code)

	// Demotion takes effect on the next request
	require.NoError(t, gdb.Model(&domain.User{}).Where("id = ?", admin.ID).Update("role", domain.RoleUser).Error)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", token(t, admin)).Code)
}

func TestRateLimiter(t *testing.T) {
	limit, err := NewRateLimiter("2-M", "test")
	require.NoError(t, err)
	r := gin.New()
	r.GET("/", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/", "").Code)
	w := do(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")

	_, err = NewRateLimiter("lots", "bad")
	assert.Error(t, err)
}

func TestMetricsKeepsResponse(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := do(r, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, http.StatusNotFound, do(r, "/missing", "").Code)
}
