package controllers

import (
	"net/http"
	"strconv"

	"github.com/bellapacxx/bingo-engine/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type WalletController struct {
	db      *gorm.DB
	wallets *services.WalletService
}

func NewWalletController(db *gorm.DB, wallets *services.WalletService) *WalletController {
	return &WalletController{db: db, wallets: wallets}
}

type walletAmountRequest struct {
	TelegramID int64 `json:"telegram_id" binding:"required"`
	Amount     int64 `json:"amount" binding:"required"` // cents
}

// Deposit credits real funds; a first deposit also releases locked bonus
// winnings. Gateway verification happens upstream of this endpoint.
func (wc *WalletController) Deposit(c *gin.Context) {
	var req walletAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := userByTelegramID(wc.db, req.TelegramID)
	if err != nil {
		abortWith(c, err)
		return
	}
	if err := wc.wallets.Deposit(c.Request.Context(), user.ID, req.Amount); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "deposited"})
}

func (wc *WalletController) Withdraw(c *gin.Context) {
	var req walletAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := userByTelegramID(wc.db, req.TelegramID)
	if err != nil {
		abortWith(c, err)
		return
	}
	if err := wc.wallets.Withdraw(c.Request.Context(), user.ID, req.Amount); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "withdrawn"})
}

func (wc *WalletController) GrantBonus(c *gin.Context) {
	var req walletAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := userByTelegramID(wc.db, req.TelegramID)
	if err != nil {
		abortWith(c, err)
		return
	}
	if err := wc.wallets.GrantBonus(c.Request.Context(), user.ID, req.Amount); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "bonus granted"})
}

func (wc *WalletController) Balance(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telegram_id"})
		return
	}
	user, err := userByTelegramID(wc.db, tid)
	if err != nil {
		abortWith(c, err)
		return
	}
	wallet, err := wc.wallets.Balance(c.Request.Context(), user.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (wc *WalletController) History(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telegram_id"})
		return
	}
	user, err := userByTelegramID(wc.db, tid)
	if err != nil {
		abortWith(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	txs, err := wc.wallets.History(c.Request.Context(), user.ID, limit)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}
