package services

import (
	"context"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"gorm.io/gorm"
)

// Sweeper reaps rounds that stopped receiving ticks before they started
// calling numbers. The engine itself carries no timers; this out-of-band
// loop is the only thing that ages rounds out, and it does so with the
// same conditional-update discipline, so a round that progresses between
// read and write is left alone.
type Sweeper struct {
	db         *gorm.DB
	staleAfter time.Duration
}

func NewSweeper(db *gorm.DB, cfg config.Config) *Sweeper {
	return &Sweeper{db: db, staleAfter: cfg.StaleAfter}
}

// Run sweeps on the given interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				logger.Errorf("sweep failed: %v", err)
			} else if n > 0 {
				logger.Infof("cancelled %d stale rounds", n)
			}
		}
	}
}

// SweepOnce cancels every waiting/countdown round with no write activity
// since the staleness cutoff and reports how many were reaped.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.staleAfter)
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Round{}).
		Where("status IN ? AND updated_at < ?",
			[]models.RoundStatus{models.RoundWaiting, models.RoundWaitingForPlayers, models.RoundCountdown},
			cutoff).
		Updates(map[string]interface{}{
			"status":     models.RoundCancelled,
			"end_reason": models.EndReasonCancelled,
			"ended_at":   now,
		})
	return res.RowsAffected, res.Error
}
