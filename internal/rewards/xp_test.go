package rewards

import (
	"testing"

	"fivem_tools/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp       int64
		level    int
		title    string
		toNext   int64
		progress int
	}{
		{0, 1, "Beginner", 1000, 0},
		{500, 1, "Beginner", 500, 50},
		{1000, 2, "Intermediate", 4000, 0},
		{14999, 3, "Advanced", 1, 99},
		{50000, 5, "Legend", 0, 100},
		{-5, 1, "Beginner", 1000, 0},
	}
	for _, tc := range cases {
		info := LevelForXP(tc.xp)
		assert.Equal(t, tc.level, info.Level, "xp %d", tc.xp)
		assert.Equal(t, tc.title, info.Title, "xp %d", tc.xp)
		assert.Equal(t, tc.toNext, info.XPToNext, "xp %d", tc.xp)
		assert.Equal(t, tc.progress, info.Progress, "xp %d", tc.xp)
		assert.Equal(t, info.Level, info.BadgeTier)
	}
}

func TestAwardXPLevelsUpAndGrantsBadges(t *testing.T) {
	gdb := newTestDB(t)
	u := createUser(t, gdb, "1", 0)
	require.NoError(t, gdb.Model(&domain.User{}).Where("id = ?", u.ID).Update("xp", 950).Error)

	res, err := AwardXP(gdb, u.ID, ActivityCreateThread, "thread:1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Amount)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 2, res.Info.Level)

	ids := make([]string, 0, len(res.NewBadges))
	for _, b := range res.NewBadges {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{"beginner", "intermediate"}, ids)

	stored := reload(t, gdb, u.ID)
	assert.Equal(t, int64(1000), stored.XP)
	assert.Equal(t, 2, stored.Level)
	assert.Equal(t, 2, stored.BadgeTier)

	res, err = AwardXP(gdb, u.ID, ActivityCreateReply, "")
	require.NoError(t, err)
	assert.False(t, res.LeveledUp)
	assert.Empty(t, res.NewBadges)

	var history int64
	gdb.Model(&domain.XPTransaction{}).Where("user_id = ?", u.ID).Count(&history)
	assert.Equal(t, int64(2), history)
}

func TestAwardXPUnknownActivity(t *testing.T) {
	gdb := newTestDB(t)
	u := createUser(t, gdb, "1", 0)
	_, err := AwardXP(gdb, u.ID, "teleport", "")
	assert.ErrorIs(t, err, ErrUnknownActivity)
}

func TestLoadStatsAndActivityBadges(t *testing.T) {
	gdb := newTestDB(t)
	u := createUser(t, gdb, "1", 0)
	require.NoError(t, gdb.Create(&domain.ForumThread{CategoryID: 1, AuthorID: u.ID, Title: "t", Content: "content!!", Likes: 3}).Error)
	require.NoError(t, gdb.Create(&domain.ForumReply{ThreadID: 1, AuthorID: u.ID, Content: "r", Likes: 2}).Error)
	require.NoError(t, gdb.Create(&domain.Asset{AuthorID: u.ID, Title: "a", Description: "d", Category: "scripts", DownloadURL: "https://x", Status: domain.AssetApproved, Downloads: 7, Likes: 1}).Error)

	stats, err := LoadStats(gdb, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Threads)
	assert.Equal(t, int64(2), stats.Posts)
	assert.Equal(t, int64(1), stats.Assets)
	assert.Equal(t, int64(7), stats.Downloads)
	assert.Equal(t, int64(6), stats.LikesReceived)

	badges, err := EvaluateBadges(gdb, u.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{"beginner", "first_post", "creator"}, ids)
}

func TestGrantBadge(t *testing.T) {
	gdb := newTestDB(t)
	u := createUser(t, gdb, "1", 0)

	granted, err := GrantBadge(gdb, u.ID, "vip")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = GrantBadge(gdb, u.ID, "vip")
	require.NoError(t, err)
	assert.False(t, granted)

	_, err = GrantBadge(gdb, u.ID, "missing")
	assert.Error(t, err)
}
