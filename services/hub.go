package services

import (
	"encoding/json"
	"sync"

	"github.com/bellapacxx/bingo-engine/engine"
	"github.com/bellapacxx/bingo-engine/utils/logger"
)

// Hub fans committed engine actions out to websocket subscribers, keyed by
// round. It implements engine.Notifier and is purely observational: a slow
// or dead subscriber gets dropped messages, never a blocked engine.
type Hub struct {
	mu     sync.RWMutex
	rounds map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{rounds: make(map[string]map[*Client]bool)}
}

func (h *Hub) Publish(roundID string, action engine.Action) {
	b, err := json.Marshal(action)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rounds[roundID]))
	for c := range h.rounds[roundID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- b:
		default:
			logger.Debugf("dropping %s event to user %d on round %s", action.Type, c.userID, roundID)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	if h.rounds[c.roundID] == nil {
		h.rounds[c.roundID] = make(map[*Client]bool)
	}
	h.rounds[c.roundID][c] = true
	h.mu.Unlock()
	logger.Infof("user %d subscribed to round %s", c.userID, c.roundID)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if clients, ok := h.rounds[c.roundID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rounds, c.roundID)
		}
	}
	h.mu.Unlock()
	c.Close()
}
