package main

import (
	"context"
	"net/http"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/controllers"
	"github.com/bellapacxx/bingo-engine/engine"
	"github.com/bellapacxx/bingo-engine/routes"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// initEnv loads .env file and validates required vars
func initEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, reading environment variables")
	}
}

func main() {
	initEnv()
	cfg := config.Load()

	// Connect to database and run migrations
	db := config.SetupDatabase()

	// Engine drives every round transition through conditional writes;
	// anything that wants to observe those transitions subscribes here.
	eng := engine.New(db, cfg)

	rooms := services.NewRoomService(db, cfg, eng)
	bots := services.NewBotService(db, cfg, eng, rooms)
	hub := services.NewHub()
	eng.Subscribe(hub)
	eng.Subscribe(bots)

	wallets := services.NewWalletService(db)

	if err := bots.EnsureRoster(context.Background(), cfg.FillTarget*4); err != nil {
		logger.Fatalf("Failed to seed bot roster: %v", err)
	}

	// Background sweep for rounds that never attracted a ticker.
	sweeper := services.NewSweeper(db, cfg)
	go sweeper.Run(context.Background(), 30*time.Second)

	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"}, // frontend origin
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r,
		controllers.NewUserController(db),
		controllers.NewRoundController(db, cfg, eng, rooms, bots),
		controllers.NewWalletController(db, wallets),
	)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket round feed
	ws := services.NewWSHandler(db, hub)
	r.GET("/ws/rounds/:id", ws.Handle)

	logger.Infof("🚀 Bingo engine starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
