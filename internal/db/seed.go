package db

import (
	"fivem_tools/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCategories are the forum categories created on first start
func DefaultCategories() []domain.ForumCategory {
	return []domain.ForumCategory{
		{Name: "General Discussion", Slug: "general", Description: "General FiveM topics", Icon: "💬", Color: "#3b82f6", SortOrder: 1, IsActive: true},
		{Name: "Script Releases", Slug: "scripts", Description: "Share your FiveM scripts", Icon: "📦", Color: "#10b981", SortOrder: 2, IsActive: true},
		{Name: "MLO Releases", Slug: "mlo", Description: "Share MLO maps", Icon: "🏢", Color: "#8b5cf6", SortOrder: 3, IsActive: true},
		{Name: "Vehicle Releases", Slug: "vehicles", Description: "Share vehicle mods", Icon: "🚗", Color: "#f59e0b", SortOrder: 4, IsActive: true},
		{Name: "Support & Help", Slug: "support", Description: "Get help with FiveM", Icon: "🆘", Color: "#ef4444", SortOrder: 5, IsActive: true},
	}
}

// DefaultPrizes is the stock spin wheel
func DefaultPrizes() []domain.SpinPrize {
	return []domain.SpinPrize{
		{Name: "Nothing", Type: domain.PrizeNothing, Value: 0, Probability: 30, Color: "#6B7280", Rarity: "common", SortOrder: 1, IsActive: true},
		{Name: "10 Coins", Type: domain.PrizeCoins, Value: 10, Probability: 25, Color: "#3B82F6", Rarity: "common", SortOrder: 2, IsActive: true},
		{Name: "25 Coins", Type: domain.PrizeCoins, Value: 25, Probability: 20, Color: "#10B981", Rarity: "uncommon", SortOrder: 3, IsActive: true},
		{Name: "50 Coins", Type: domain.PrizeCoins, Value: 50, Probability: 15, Color: "#F59E0B", Rarity: "rare", SortOrder: 4, IsActive: true},
		{Name: "100 Coins", Type: domain.PrizeCoins, Value: 100, Probability: 7, Color: "#EF4444", Rarity: "epic", SortOrder: 5, IsActive: true},
		{Name: "250 Coins", Type: domain.PrizeCoins, Value: 250, Probability: 2, Color: "#8B5CF6", Rarity: "epic", SortOrder: 6, IsActive: true},
		{Name: "Jackpot 500", Type: domain.PrizeCoins, Value: 500, Probability: 0.5, Color: "#EC4899", Rarity: "legendary", SortOrder: 7, IsActive: true},
	}
}

// DefaultSettings are the initial JSON encoded site settings
func DefaultSettings() []domain.Setting {
	return []domain.Setting{
		{Key: domain.SettingSpinTicketCost, Value: "1"},
		{Key: domain.SettingSpinEnabled, Value: "true"},
		{Key: domain.SettingSpinTicketPrice, Value: "500"},
		{Key: domain.SettingLinkvertise, Value: `{"enabled":false,"user_id":""}`},
	}
}

// DefaultBadges is the badge catalog
func DefaultBadges() []domain.Badge {
	return []domain.Badge{
		{ID: "beginner", Name: "Beginner", Description: "Joined the community", Icon: "🌱", Color: "#6B7280", RequirementType: "xp", RequirementValue: 0, SortOrder: 1},
		{ID: "intermediate", Name: "Intermediate", Description: "Reached 1,000 XP", Icon: "⭐", Color: "#3B82F6", RequirementType: "xp", RequirementValue: 1000, SortOrder: 2},
		{ID: "advanced", Name: "Advanced", Description: "Reached 5,000 XP", Icon: "🔥", Color: "#10B981", RequirementType: "xp", RequirementValue: 5000, SortOrder: 3},
		{ID: "expert", Name: "Expert", Description: "Reached 15,000 XP", Icon: "💎", Color: "#8B5CF6", RequirementType: "xp", RequirementValue: 15000, SortOrder: 4},
		{ID: "legend", Name: "Legend", Description: "Reached 50,000 XP", Icon: "👑", Color: "#F59E0B", RequirementType: "xp", RequirementValue: 50000, SortOrder: 5},
		{ID: "first_post", Name: "First Post", Description: "Wrote a first forum post", Icon: "✍️", Color: "#3B82F6", RequirementType: "posts", RequirementValue: 1, SortOrder: 10},
		{ID: "prolific_poster", Name: "Prolific Poster", Description: "Wrote 50 forum posts", Icon: "📝", Color: "#10B981", RequirementType: "posts", RequirementValue: 50, SortOrder: 11},
		{ID: "conversation_starter", Name: "Conversation Starter", Description: "Started 10 threads", Icon: "💬", Color: "#F59E0B", RequirementType: "threads", RequirementValue: 10, SortOrder: 12},
		{ID: "helper", Name: "Helper", Description: "Received 25 likes", Icon: "🤝", Color: "#10B981", RequirementType: "likes", RequirementValue: 25, SortOrder: 13},
		{ID: "popular", Name: "Popular", Description: "Received 100 likes", Icon: "❤️", Color: "#EF4444", RequirementType: "likes", RequirementValue: 100, SortOrder: 14},
		{ID: "creator", Name: "Creator", Description: "Published a first asset", Icon: "🛠️", Color: "#3B82F6", RequirementType: "assets", RequirementValue: 1, SortOrder: 20},
		{ID: "prolific_creator", Name: "Prolific Creator", Description: "Published 10 assets", Icon: "🏗️", Color: "#8B5CF6", RequirementType: "assets", RequirementValue: 10, SortOrder: 21},
		{ID: "popular_creator", Name: "Popular Creator", Description: "Assets downloaded 100 times", Icon: "📈", Color: "#EC4899", RequirementType: "downloads", RequirementValue: 100, SortOrder: 22},
		{ID: "early_adopter", Name: "Early Adopter", Description: "Joined during the launch", Icon: "🚀", Color: "#F59E0B", RequirementType: "manual", SortOrder: 30},
		{ID: "vip", Name: "VIP", Description: "VIP member", Icon: "💠", Color: "#EC4899", RequirementType: "manual", SortOrder: 31},
	}
}

// Seed inserts default rows, existing rows are left untouched
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		categories := DefaultCategories()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
			return err
		}
		settings := DefaultSettings()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
			return err
		}
		badges := DefaultBadges()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&badges).Error; err != nil {
			return err
		}
		created, err := SeedPrizes(tx)
		if err != nil {
			return err
		}
		logrus.WithField("prizes_created", created).Info("Seed completed.")
		return nil
	})
}

// SeedPrizes creates the default wheel when no prize exists yet
func SeedPrizes(tx *gorm.DB) (int, error) {
	var count int64
	if err := tx.Model(&domain.SpinPrize{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	prizes := DefaultPrizes()
	if err := tx.Create(&prizes).Error; err != nil {
		return 0, err
	}
	return len(prizes), nil
}
