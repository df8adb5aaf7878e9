package engine

import (
	"context"
	"errors"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/models"

	"gorm.io/gorm"
)

// Notifier receives committed round actions for downstream broadcast
// (websocket push, bot scheduling). Purely observational: implementations
// must never call back into the engine synchronously.
type Notifier interface {
	Publish(roundID string, action Action)
}

// Engine drives rounds through conditional writes against the round record
// and wallet rows. It holds no round state in memory, so any number of
// processes can run it concurrently against the same database.
type Engine struct {
	db        *gorm.DB
	cfg       config.Config
	notifiers []Notifier
}

func New(db *gorm.DB, cfg config.Config) *Engine {
	return &Engine{db: db, cfg: cfg}
}

// Subscribe registers a notifier. Not safe to call after the engine is
// serving requests.
func (e *Engine) Subscribe(n Notifier) {
	e.notifiers = append(e.notifiers, n)
}

func (e *Engine) DB() *gorm.DB {
	return e.db
}

func (e *Engine) publish(roundID string, a Action) {
	for _, n := range e.notifiers {
		n.Publish(roundID, a)
	}
}

func (e *Engine) loadRound(ctx context.Context, roundID string) (*models.Round, error) {
	var r models.Round
	if err := e.db.WithContext(ctx).First(&r, "id = ?", roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, ledgerErr(err)
	}
	return &r, nil
}
