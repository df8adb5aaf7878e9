package config

import (
	"log"
	"os"

	"github.com/bellapacxx/bingo-engine/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// SetupDatabase connects to DB and runs migrations
func SetupDatabase() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("[FATAL] DATABASE_URL is required in .env")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to DB: %v", err)
	}
	DB = db

	if err := Migrate(db); err != nil {
		log.Fatalf("[FATAL] Migration failed: %v", err)
	}

	log.Println("Database migration completed")
	return db
}

// Migrate runs schema migrations for all engine models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Round{},
		&models.RoundPlayer{},
		&models.Card{},
		&models.Transaction{},
		&models.BotProfile{},
	)
}
