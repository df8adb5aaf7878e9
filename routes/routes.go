package routes

import (
	"github.com/bellapacxx/bingo-engine/controllers"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, users *controllers.UserController,
	rounds *controllers.RoundController, wallets *controllers.WalletController) {
	api := r.Group("/api")

	// ----------------------
	// User routes
	// ----------------------
	api.POST("/users", users.Register)
	api.GET("/users/:telegram_id", users.Get)

	// ----------------------
	// Round routes
	// ----------------------
	api.POST("/rounds", rounds.Create)
	api.GET("/rounds", rounds.List)
	api.GET("/rounds/:id", rounds.Get)
	api.POST("/rounds/:id/join", rounds.Join)
	api.POST("/rounds/:id/start", rounds.Start)
	api.POST("/rounds/:id/tick", rounds.Tick)
	api.POST("/rounds/:id/claim", rounds.Claim)
	api.GET("/rounds/:id/verify", rounds.Verify)

	// ----------------------
	// Wallet routes
	// ----------------------
	api.POST("/deposit", wallets.Deposit)
	api.POST("/withdraw", wallets.Withdraw)
	api.POST("/bonus", wallets.GrantBonus)
	api.GET("/wallets/:telegram_id", wallets.Balance)
	api.GET("/wallets/:telegram_id/transactions", wallets.History)
}
