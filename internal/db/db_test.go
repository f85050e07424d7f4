package db

import (
	"path/filepath"
	"testing"

	"fivem_tools/internal/config"
	"fivem_tools/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(gdb))
	return gdb
}

func TestSeedIsIdempotent(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, Seed(gdb))
	require.NoError(t, Seed(gdb))

	var categories, prizes, badges, settings int64
	gdb.Model(&domain.ForumCategory{}).Count(&categories)
	gdb.Model(&domain.SpinPrize{}).Count(&prizes)
	gdb.Model(&domain.Badge{}).Count(&badges)
	gdb.Model(&domain.Setting{}).Count(&settings)
	assert.Equal(t, int64(len(DefaultCategories())), categories)
	assert.Equal(t, int64(len(DefaultPrizes())), prizes)
	assert.Equal(t, int64(len(DefaultBadges())), badges)
	assert.Equal(t, int64(len(DefaultSettings())), settings)
}

func TestSeedPrizesOnlyWhenEmpty(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, gdb.Create(&domain.SpinPrize{Name: "Custom", Type: domain.PrizeNothing, Probability: 1, IsActive: true}).Error)

	created, err := SeedPrizes(gdb)
	require.NoError(t, err)
	assert.Zero(t, created)

	require.NoError(t, gdb.Where("1 = 1").Delete(&domain.SpinPrize{}).Error)
	created, err = SeedPrizes(gdb)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultPrizes()), created)
}

func TestDefaultPrizeWeights(t *testing.T) {
	var total float64
	for _, p := range DefaultPrizes() {
		total += p.Probability
	}
	assert.InDelta(t, 99.5, total, 0.001)
}

func TestUniqueViolationsAreTranslated(t *testing.T) {
	gdb := openTestDB(t)
	require.NoError(t, gdb.Create(&domain.User{DiscordID: "1", Username: "a"}).Error)
	err := gdb.Create(&domain.User{DiscordID: "1", Username: "b"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestOpenSQLiteFromConfig(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBName: filepath.Join(t.TempDir(), "app.db"), IsProd: true}
	gdb, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Close())
}
