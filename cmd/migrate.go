package main

import (
	"log"

	"github.com/bellapacxx/bingo-engine/config"
)

func main() {
	db := config.SetupDatabase() // connects + migrates
	_ = db
	log.Println("✅ Database migration completed successfully")
}
