package controllers

import (
	"net/http"
	"strconv"

	"github.com/bellapacxx/bingo-engine/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	db *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// Register creates a user (from Telegram) together with an empty wallet.
func (u *UserController) Register(c *gin.Context) {
	var req struct {
		TelegramID int64  `json:"telegram_id" binding:"required"`
		Name       string `json:"name"`
		Phone      string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	if err := u.db.First(&existing, "telegram_id = ?", req.TelegramID).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	user := models.User{TelegramID: req.TelegramID, Name: req.Name, Phone: req.Phone}
	err := u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Wallet{UserID: user.ID}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Get fetches a user by telegram_id
func (u *UserController) Get(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telegram_id"})
		return
	}

	user, err := userByTelegramID(u.db, tid)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
