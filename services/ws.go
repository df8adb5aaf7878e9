package services

import (
	"net/http"
	"strconv"

	"github.com/bellapacxx/bingo-engine/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades round subscriptions. Subscribers receive the action
// stream (countdown, activation, numbers, end) as it commits.
type WSHandler struct {
	db  *gorm.DB
	hub *Hub
}

func NewWSHandler(db *gorm.DB, hub *Hub) *WSHandler {
	return &WSHandler{db: db, hub: hub}
}

func (h *WSHandler) Handle(c *gin.Context) {
	roundID := c.Param("id")
	var round models.Round
	if err := h.db.First(&round, "id = ?", roundID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "round not found"})
		return
	}

	telegramIDStr := c.Query("telegram_id")
	telegramID, err := strconv.ParseInt(telegramIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}
	var user models.User
	if err := h.db.First(&user, "telegram_id = ?", telegramID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := &Client{
		userID:  user.ID,
		roundID: roundID,
		conn:    conn,
		hub:     h.hub,
		send:    make(chan []byte, 32),
	}
	h.hub.add(client)

	go client.writePump()
	go client.readPump()
}
