package db

import (
	"fivem_tools/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table managed by AutoMigrate
func Models() []any {
	return []any{
		&domain.User{}, &domain.BackupCode{},
		&domain.CoinTransaction{},
		&domain.Asset{}, &domain.Review{}, &domain.Purchase{}, &domain.Download{},
		&domain.ForumCategory{}, &domain.ForumThread{}, &domain.ForumReply{}, &domain.Like{},
		&domain.SpinPrize{}, &domain.SpinTicket{}, &domain.SpinHistory{}, &domain.DailyClaim{}, &domain.ForceWin{},
		&domain.Setting{},
		&domain.XPTransaction{}, &domain.Badge{}, &domain.UserBadge{},
		&domain.Notification{}, &domain.Banner{},
		&domain.Message{}, &domain.Report{},
	}
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing columns and indexes
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
