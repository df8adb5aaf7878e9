package services

import (
	"sync"

	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/gorilla/websocket"
)

type Client struct {
	userID  uint
	roundID string
	conn    *websocket.Conn
	hub     *Hub
	send    chan []byte
	once    sync.Once
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// readPump drains inbound frames so pings and close frames are handled;
// round commands arrive over the REST API, not the socket.
func (c *Client) readPump() {
	defer c.hub.remove(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("user %d disconnected from round %s", c.userID, c.roundID)
			} else {
				logger.Debugf("user %d read error on round %s: %v", c.userID, c.roundID, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugf("user %d write error on round %s: %v", c.userID, c.roundID, err)
			return
		}
	}
}
