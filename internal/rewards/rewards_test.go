package rewards

import (
	"path/filepath"
	"testing"
	"time"

	"fivem_tools/internal/db"
	"fivem_tools/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "rewards.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(gdb))
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, discordID string, coins int64) *domain.User {
	t.Helper()
	u := &domain.User{DiscordID: discordID, Username: "user" + discordID, Coins: coins}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func reload(t *testing.T, gdb *gorm.DB, id uint) domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, gdb.First(&u, id).Error)
	return u
}

func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}
