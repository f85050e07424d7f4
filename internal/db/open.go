package db

import (
	"fmt"  // Error wrapping
	"time" // UTC clock for timestamps

	"fivem_tools/internal/config" // Application configuration

	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // Postgres driver for GORM
	"gorm.io/driver/sqlite"   // SQLite driver for local development and tests
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/logger"     // GORM logger levels
)

// Open connects to the configured database
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	case "mysql", "":
		dialector = mysql.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	db, err := gorm.Open(dialector, gormConfig(cfg.IsProd))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite file with the same settings as Open
func OpenSQLite(path string, quiet bool) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), gormConfig(quiet))
}

func gormConfig(quiet bool) *gorm.Config {
	gcfg := &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true, // Maps unique violations to gorm.ErrDuplicatedKey
		// Prizes and badges are deleted while history rows still point at them
		DisableForeignKeyConstraintWhenMigrating: true,
	}
	if quiet {
		gcfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	return gcfg
}
