package api

import (
	"net/http"
	"testing"

	"fivem_tools/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) category(slug string) domain.ForumCategory {
	e.t.Helper()
	var cat domain.ForumCategory
	require.NoError(e.t, e.db.Where("slug = ?", slug).First(&cat).Error)
	return cat
}

func (e *testEnv) createThread(u *domain.User, title, content string) uint {
	e.t.Helper()
	w := e.do(http.MethodPost, "/forum/threads", e.token(u), map[string]any{
		"category_id": e.category("support").ID,
		"title":       title,
		"content":     content,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Thread domain.ForumThread `json:"thread"`
	}](e.t, w).Thread.ID
}

func TestForumCategories(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(playerDiscord, 0)
	e.createThread(author, "Server crashes on start", "My server crashes right after loading ESX")

	w := e.do(http.MethodGet, "/forum/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cats := decode[struct {
		Categories []CategoryView `json:"categories"`
	}](t, w).Categories
	require.Len(t, cats, 5)
	assert.Equal(t, "general", cats[0].Slug)
	for _, c := range cats {
		want := int64(0)
		if c.Slug == "support" {
			want = 1
		}
		assert.Equal(t, want, c.ThreadCount, c.Slug)
	}
}

func TestThreadAndReplies(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(playerDiscord, 0)
	replier := e.user("300000000000000003", 0)
	id := idString(e.createThread(author, "Server crashes on start", "My server crashes right after loading <b>ESX</b><script>x()</script>"))
	assert.Equal(t, int64(50), e.reload(author.ID).XP)

	w := e.do(http.MethodGet, "/forum/threads/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Thread  domain.ForumThread  `json:"thread"`
		Replies []domain.ForumReply `json:"replies"`
	}](t, w)
	assert.Equal(t, int64(1), got.Thread.Views)
	assert.NotContains(t, got.Thread.Content, "<script>")
	assert.Contains(t, got.Thread.Content, "<b>ESX</b>")
	assert.Empty(t, got.Replies)

	w = e.do(http.MethodPost, "/forum/threads/"+id+"/replies", e.token(replier), map[string]string{"content": "Check your server.cfg"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, e.notifications(author.ID, domain.NotifyReply), 1)
	assert.Equal(t, int64(20), e.reload(replier.ID).XP)

	// Replying to your own thread does not notify
	w = e.do(http.MethodPost, "/forum/threads/"+id+"/replies", e.token(author), map[string]string{"content": "Thanks, fixed it"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, e.notifications(author.ID, domain.NotifyReply), 1)

	w = e.do(http.MethodGet, "/forum/threads/"+id+"/replies", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	replies := decode[struct {
		Replies    []domain.ForumReply `json:"replies"`
		Pagination Pagination          `json:"pagination"`
	}](t, w)
	require.Len(t, replies.Replies, 2)
	assert.Equal(t, "Check your server.cfg", replies.Replies[0].Content)
	assert.Equal(t, int64(2), replies.Pagination.Total)

	var thread domain.ForumThread
	require.NoError(t, e.db.First(&thread, id).Error)
	assert.Equal(t, 2, int(thread.RepliesCount))

	w = e.do(http.MethodGet, "/forum/threads", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, asMap(t, w)["threads"], 1)

	w = e.do(http.MethodPost, "/forum/threads/"+id+"/replies", e.token(replier), map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/forum/threads/9999", "", nil).Code)
}

func TestThreadValidation(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(e.user(playerDiscord, 0))
	support := e.category("support").ID

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing category", map[string]any{"title": "Hello there", "content": "Long enough content here"}},
		{"unknown category", map[string]any{"category_id": 999, "title": "Hello there", "content": "Long enough content here"}},
		{"empty title", map[string]any{"category_id": support, "title": "  ", "content": "Long enough content here"}},
		{"short content", map[string]any{"category_id": support, "title": "Hello there", "content": "short"}},
		{"spam title", map[string]any{"category_id": support, "title": "helloooooooooooooo", "content": "Long enough content here"}},
		{"bad images", map[string]any{"category_id": support, "title": "Hello there", "content": "Long enough content here",
			"images": []string{"https://i.example.com/1.png", "https://i.example.com/2.png", "https://i.example.com/3.png",
				"https://i.example.com/4.png", "https://i.example.com/5.png", "https://i.example.com/6.png",
				"https://i.example.com/7.png", "https://i.example.com/8.png", "https://i.example.com/9.png",
				"https://i.example.com/10.png", "https://i.example.com/11.png"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/forum/threads", tok, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestProhibitedContentBansAuthor(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(playerDiscord, 0)
	w := e.do(http.MethodPost, "/forum/threads", e.token(u), map[string]any{
		"category_id": e.category("general").ID,
		"title":       "Free money here",
		"content":     "Click this link for free money",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Account banned", asMap(t, w)["error"])
	assert.True(t, e.reload(u.ID).IsBanned)

	var n int64
	require.NoError(t, e.db.Model(&domain.ForumThread{}).Count(&n).Error)
	assert.Zero(t, n)

	// The ban takes effect on the next request
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/me", e.token(u), nil).Code)
}

func TestSearchThreads(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(playerDiscord, 0)
	e.createThread(u, "Garage script broken", "The garage does not save vehicles")
	e.createThread(u, "Looking for MLO", "Searching for a police station interior")

	w := e.do(http.MethodGet, "/forum/search?q=GARAGE", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	threads := decode[struct {
		Threads []domain.ForumThread `json:"threads"`
	}](t, w).Threads
	require.Len(t, threads, 1)
	assert.Equal(t, "Garage script broken", threads[0].Title)

	w = e.do(http.MethodGet, "/forum/search?q=police", "", nil)
	assert.Len(t, asMap(t, w)["threads"], 1)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/forum/search?q=g", "", nil).Code)
}

func TestThreadModeration(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	author := e.user(playerDiscord, 0)
	first := idString(e.createThread(author, "First thread", "Some content for the first thread"))
	second := idString(e.createThread(author, "Second thread", "Some content for the second thread"))
	adminTok := e.token(admin)

	w := e.do(http.MethodPut, "/admin/forum/threads/"+first, adminTok, map[string]bool{"is_pinned": true, "is_locked": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPut, "/admin/forum/threads/"+first, adminTok, map[string]any{}).Code)

	// Pinned threads list first even though they are older
	w = e.do(http.MethodGet, "/forum/threads", "", nil)
	threads := decode[struct {
		Threads []domain.ForumThread `json:"threads"`
	}](t, w).Threads
	require.Len(t, threads, 2)
	assert.Equal(t, "First thread", threads[0].Title)

	w = e.do(http.MethodPost, "/forum/threads/"+first+"/replies", e.token(author), map[string]string{"content": "Can I still reply?"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Thread is locked", asMap(t, w)["error"])

	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/forum/threads/"+second+"/replies", e.token(admin), map[string]string{"content": "Reply before removal"}).Code)
	w = e.do(http.MethodDelete, "/admin/forum/threads/"+second, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/forum/threads/"+second, "", nil).Code)
	w = e.do(http.MethodPost, "/forum/threads/"+second+"/replies", e.token(author), map[string]string{"content": "Too late"})
	assert.Equal(t, http.StatusGone, w.Code)

	var hidden int64
	require.NoError(t, e.db.Model(&domain.ForumReply{}).Where("is_deleted = ?", true).Count(&hidden).Error)
	assert.Equal(t, int64(1), hidden)

	w = e.do(http.MethodPost, "/admin/forum/categories", adminTok, map[string]any{"name": "Showcase", "slug": "showcase", "color": "#ff00aa"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/admin/forum/categories", adminTok, map[string]any{"name": "Again", "slug": "showcase"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = e.do(http.MethodPost, "/admin/forum/categories", adminTok, map[string]any{"name": "Bad", "slug": "Not A Slug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleLike(t *testing.T) {
	e := newTestEnv(t)
	author := e.user(playerDiscord, 0)
	fan := e.user("300000000000000003", 0)
	threadID := e.createThread(author, "Show your garages", "Post screenshots of your garages")
	xpBefore := e.reload(author.ID).XP

	like := map[string]any{"target_type": "thread", "target_id": threadID}
	w := e.do(http.MethodPost, "/likes", e.token(fan), like)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := asMap(t, w)
	assert.Equal(t, true, resp["liked"])
	assert.Equal(t, int64(1), num(t, resp, "likes"))
	assert.Equal(t, xpBefore+10, e.reload(author.ID).XP)
	assert.Len(t, e.notifications(author.ID, domain.NotifyLike), 1)

	w = e.do(http.MethodPost, "/likes", e.token(fan), like)
	require.Equal(t, http.StatusOK, w.Code)
	resp = asMap(t, w)
	assert.Equal(t, false, resp["liked"])
	assert.Equal(t, int64(0), num(t, resp, "likes"))

	// Liking your own post gives no XP
	w = e.do(http.MethodPost, "/likes", e.token(author), like)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xpBefore+10, e.reload(author.ID).XP)

	w = e.do(http.MethodPost, "/likes", e.token(fan), map[string]any{"target_type": "thread", "target_id": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(http.MethodPost, "/likes", e.token(fan), map[string]any{"target_type": "user", "target_id": author.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssetReviews(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	first := e.user(playerDiscord, 0)
	second := e.user("300000000000000003", 0)
	id := idString(e.createAsset(admin, "Police Job", 0))
	path := "/assets/" + id + "/reviews"

	w := e.do(http.MethodPost, path, e.token(first), map[string]any{"rating": 5, "comment": "Great"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(http.MethodPost, path, e.token(second), map[string]any{"rating": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, path, e.token(first), map[string]any{"rating": 4}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, path, e.token(admin), map[string]any{"rating": 4}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, path, e.token(second), map[string]any{"rating": 6}).Code)

	var asset domain.Asset
	require.NoError(t, e.db.First(&asset, id).Error)
	assert.InDelta(t, 3.5, asset.Rating, 0.001)
	assert.Equal(t, int64(2), asset.ReviewCount)
	assert.Len(t, e.notifications(admin.ID, domain.NotifyReview), 2)

	w = e.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviews := decode[struct {
		Reviews []domain.Review `json:"reviews"`
	}](t, w).Reviews
	require.Len(t, reviews, 2)
	assert.Equal(t, 2, reviews[0].Rating)
}

func TestRepliesHiddenWithUnapprovedThread(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	author := e.user(playerDiscord, 0)
	other := e.user("300000000000000003", 0)
	id := idString(e.createThread(author, "Selling my server", "Looking for a buyer for my whole server"))
	require.NoError(t, e.db.Model(&domain.ForumThread{}).Where("id = ?", id).Update("status", domain.ThreadRejected).Error)
	xpBefore := e.reload(other.ID).XP

	w := e.do(http.MethodPost, "/forum/threads/"+id+"/replies", e.token(other), map[string]string{"content": "I am interested"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, xpBefore, e.reload(other.ID).XP)
	assert.Empty(t, e.notifications(author.ID, domain.NotifyReply))

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/forum/threads/"+id+"/replies", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/forum/threads/"+id+"/replies", e.token(other), nil).Code)

	// The author and admins still reach it
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/forum/threads/"+id+"/replies", e.token(author), map[string]string{"content": "Adding more details"}).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/forum/threads/"+id+"/replies", e.token(author), nil).Code)
	w = e.do(http.MethodGet, "/forum/threads/"+id+"/replies", e.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, asMap(t, w)["replies"], 1)
}

func TestAuthorCardsHideAccountFields(t *testing.T) {
	e := newTestEnv(t)
	admin := e.admin()
	author := e.user(playerDiscord, 4242)
	require.NoError(t, e.db.Model(admin).Update("ban_reason", "old warning").Error)
	require.NoError(t, e.db.Model(author).Update("ban_reason", "old warning").Error)
	now := e.deps.now()
	require.NoError(t, e.db.Model(author).Update("last_daily_claim", &now).Error)

	assetID := idString(e.createAsset(admin, "Police Job", 0))
	threadID := idString(e.createThread(author, "Server crashes on start", "My server crashes right after loading ESX"))
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/forum/threads/"+threadID+"/replies", e.token(author), map[string]string{"content": "Fixed it by updating"}).Code)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/assets/"+assetID+"/reviews", e.token(author), map[string]any{"rating": 5}).Code)

	for _, path := range []string{
		"/assets",
		"/assets/" + assetID,
		"/assets/" + assetID + "/reviews",
		"/forum/threads",
		"/forum/threads/" + threadID,
		"/forum/threads/" + threadID + "/replies",
		"/forum/search?q=crashes",
	} {
		w := e.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		raw := w.Body.String()
		assert.Contains(t, raw, `"username"`, path)
		for _, field := range []string{`"coins"`, `"ban_reason"`, `"discord_id"`, `"last_daily_claim"`, `"role"`, "old warning"} {
			assert.NotContains(t, raw, field, path)
		}
	}
}
