package main

import (
	"fivem_tools/internal/config" // Custom import path (Config)
	"fivem_tools/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("Migration failed: %v", err)
	}
	if err := db.Seed(gdb); err != nil {
		logrus.Fatalf("Seeding failed: %v", err)
	}
	logrus.Info("Migration completed.")
}
