package engine

import (
	"context"
	"errors"
	"time"

	"github.com/bellapacxx/bingo-engine/models"

	"gorm.io/gorm"
)

// DesignatedTicker returns the participant expected to drive ticks: the
// earliest human roster entry, falling back to the earliest entry of any
// kind for bot-only rounds.
func (e *Engine) DesignatedTicker(ctx context.Context, roundID string) (uint, error) {
	var p models.RoundPlayer
	err := e.db.WithContext(ctx).
		Where("round_id = ? AND is_bot = ?", roundID, false).
		Order("id ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = e.db.WithContext(ctx).
			Where("round_id = ?", roundID).
			Order("id ASC").
			First(&p).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPlayerNotFound
		}
		return 0, ledgerErr(err)
	}
	return p.UserID, nil
}

// ShouldTakeOver implements the fallback-takeover side of ticker election:
// a non-designated client that sees no round progress for the threshold
// duration may begin ticking itself. The conditional-update discipline
// makes concurrent tickers idempotent, so takeover needs no coordination —
// at most one of the competing ticks mutates state per call.
func ShouldTakeOver(r *models.Round, now time.Time, threshold time.Duration) bool {
	switch r.Status {
	case models.RoundCountdown, models.RoundActive:
		return now.Sub(r.UpdatedAt) >= threshold
	}
	return false
}
