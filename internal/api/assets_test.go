package api

import (
	"net/http"
	"strings"
	"testing"

	"fivem_tools/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assetBody(title string, price int64) map[string]any {
	return map[string]any{
		"title":        title,
		"description":  "A complete job resource for ESX servers",
		"category":     "scripts",
		"framework":    "esx",
		"version":      "1.0.0",
		"coin_price":   price,
		"download_url": "https://files.example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".zip",
		"tags":         []string{"Police", "job", "police"},
		"features":     []string{"Armory", "Garage"},
	}
}

type assetResponse struct {
	Asset AssetView `json:"asset"`
}

// createAsset uploads as u and returns the new asset id
func (e *testEnv) createAsset(u *domain.User, title string, price int64) uint {
	e.t.Helper()
	w := e.do(http.MethodPost, "/assets", e.token(u), assetBody(title, price))
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[assetResponse](e.t, w).Asset.ID
}

func TestAssetNeedsApprovalBeforeListing(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	author := e.user(playerDiscord, 0)

	w := e.do(http.MethodPost, "/assets", e.token(author), assetBody("Police Job", 0))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Asset AssetView `json:"asset"`
		XP    struct {
			Amount int64 `json:"amount"`
		} `json:"xp"`
	}](t, w)
	assert.Equal(t, domain.AssetPending, created.Asset.Status)
	assert.Equal(t, "free", created.Asset.Price)
	assert.Equal(t, []string{"police", "job"}, created.Asset.Tags)
	assert.Equal(t, int64(100), created.XP.Amount)
	assert.Len(t, e.notifications(admin.ID, domain.NotifyNewAsset), 1)
	id := idString(created.Asset.ID)

	w = e.do(http.MethodGet, "/assets", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), decode[assetPage](t, w).Pagination.Total)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/assets/"+id, "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/assets/"+id, e.token(author), nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/assets/"+id, e.token(admin), nil).Code)

	w = e.do(http.MethodPost, "/admin/assets/"+id+"/approve", e.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.AssetApproved, asMap(t, w)["status"])
	assert.Len(t, e.notifications(author.ID, domain.NotifySystem), 1)

	w = e.do(http.MethodGet, "/assets", "", nil)
	page := decode[assetPage](t, w)
	assert.False(t, page.Cached)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Police Job", page.Items[0].Title)
	require.NotNil(t, page.Items[0].Author)
	assert.Equal(t, author.Username, page.Items[0].Author.Username)

	w = e.do(http.MethodGet, "/assets", "", nil)
	assert.True(t, decode[assetPage](t, w).Cached)

	w = e.do(http.MethodGet, "/assets/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Police Job", decode[assetResponse](t, w).Asset.Title)
}

func TestRejectAsset(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	author := e.user(playerDiscord, 0)
	id := idString(e.createAsset(author, "Broken Script", 0))

	w := e.do(http.MethodPost, "/admin/assets/"+id+"/reject", e.token(admin), map[string]string{"reason": "Missing docs"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var asset domain.Asset
	require.NoError(t, e.db.First(&asset, id).Error)
	assert.Equal(t, domain.AssetRejected, asset.Status)
	assert.Equal(t, "Missing docs", asset.RejectReason)

	w = e.do(http.MethodGet, "/admin/assets/pending", e.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, asMap(t, w)["items"])

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/admin/assets/"+id+"/approve", e.token(author), nil).Code)
}

func TestAdminUploadsAreApproved(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	e.createAsset(admin, "Police Job", 0)
	premium := assetBody("Mission Row", 250)
	premium["category"] = "mlo"
	premium["framework"] = ""
	w := e.do(http.MethodPost, "/assets", e.token(admin), premium)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[assetResponse](t, w).Asset
	assert.Equal(t, domain.AssetApproved, created.Status)
	assert.Equal(t, "standalone", created.Framework)
	assert.Equal(t, "premium", created.Price)

	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{"Mission Row", "Police Job"}},
		{"?price=premium", []string{"Mission Row"}},
		{"?price=free", []string{"Police Job"}},
		{"?category=scripts", []string{"Police Job"}},
		{"?framework=standalone", []string{"Mission Row"}},
		{"?search=MISSION", []string{"Mission Row"}},
		{"?search=nothing-matches", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			w := e.do(http.MethodGet, "/assets"+tc.query, "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			titles := []string{}
			for _, a := range decode[assetPage](t, w).Items {
				titles = append(titles, a.Title)
			}
			assert.Equal(t, tc.want, titles)
		})
	}

	w = e.do(http.MethodGet, "/assets/recent?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, asMap(t, w)["items"], 1)
}

func TestFeaturedAssetsListFirst(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	first := idString(e.createAsset(admin, "Old Script", 0))
	e.createAsset(admin, "New Script", 0)

	w := e.do(http.MethodPut, "/admin/assets/"+first+"/feature", e.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, asMap(t, w)["is_featured"])

	page := decode[assetPage](t, e.do(http.MethodGet, "/assets", "", nil))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Old Script", page.Items[0].Title)
	assert.True(t, page.Items[0].IsFeatured)

	w = e.do(http.MethodPut, "/admin/assets/"+first+"/feature", e.token(admin), map[string]bool{"is_featured": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, asMap(t, w)["is_featured"])
}

func TestInvalidAssetUpload(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(e.user(playerDiscord, 0))

	bad := map[string]func(map[string]any){
		"category":     func(b map[string]any) { b["category"] = "weapons" },
		"framework":    func(b map[string]any) { b["framework"] = "vrp" },
		"price":        func(b map[string]any) { b["coin_price"] = -1 },
		"download url": func(b map[string]any) { b["download_url"] = "not a url" },
		"description":  func(b map[string]any) { b["description"] = "short" },
		"title":        func(b map[string]any) { delete(b, "title") },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			b := assetBody("Police Job", 0)
			mutate(b)
			w := e.do(http.MethodPost, "/assets", tok, b)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid asset data", asMap(t, w)["error"])
		})
	}
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/assets", "", assetBody("Police Job", 0)).Code)
}

func TestUpdateAndDeleteAsset(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(playerDiscord, 0)
	other := e.user("300000000000000003", 0)
	id := idString(e.createAsset(author, "Police Job", 0))

	w := e.do(http.MethodPut, "/assets/"+id, e.token(other), map[string]any{"title": "Stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPut, "/assets/"+id, e.token(author), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nothing to update", asMap(t, w)["error"])

	w = e.do(http.MethodPut, "/assets/"+id, e.token(author), map[string]any{
		"title":      "Police Job v2",
		"coin_price": 50,
		"tags":       []string{"EMS"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[assetResponse](t, w).Asset
	assert.Equal(t, "Police Job v2", updated.Title)
	assert.Equal(t, int64(50), updated.CoinPrice)
	assert.Equal(t, "premium", updated.Price)
	assert.Equal(t, []string{"ems"}, updated.Tags)
	assert.Equal(t, []string{"Armory", "Garage"}, updated.Features)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, "/assets/"+id, e.token(other), nil).Code)

	w = e.do(http.MethodDelete, "/assets/"+id, e.token(author), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Asset deleted", asMap(t, w)["message"])
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/assets/"+id, e.token(author), nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/assets/abc", "", nil).Code)
}
