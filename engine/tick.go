package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"gorm.io/datatypes"
)

// Tick advances the round by at most one transition and reports the result.
// Every write is guarded by the state read before it; a guard that matches
// zero rows means another tick already applied the transition, which is
// reported as NoOp, never retried. Ticks against not-yet-started or
// terminal rounds only report the current status.
func (e *Engine) Tick(ctx context.Context, roundID string) (Action, error) {
	r, err := e.loadRound(ctx, roundID)
	if err != nil {
		return Action{}, err
	}

	switch r.Status {
	case models.RoundCountdown:
		if r.CountdownRemaining > 1 {
			return e.decrementCountdown(ctx, r)
		}
		return e.activate(ctx, r)
	case models.RoundActive:
		return e.advance(ctx, r)
	default:
		// waiting, waiting_for_players, finished, cancelled
		return noOp(r), nil
	}
}

func (e *Engine) decrementCountdown(ctx context.Context, r *models.Round) (Action, error) {
	next := r.CountdownRemaining - 1
	res := e.db.WithContext(ctx).Model(&models.Round{}).
		Where("id = ? AND status = ? AND countdown_remaining = ?",
			r.ID, models.RoundCountdown, r.CountdownRemaining).
		Update("countdown_remaining", next)
	if res.Error != nil {
		return Action{}, ledgerErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return noOp(r), nil
	}

	a := Action{
		Type:      ActionCountdown,
		RoundID:   r.ID,
		Status:    models.RoundCountdown,
		Countdown: next,
	}
	e.publish(r.ID, a)
	return a, nil
}

// activate commits the Countdown -> Active transition: the fairness
// sequence and its commitment are generated here, written once, and never
// regenerated. A losing generation is simply discarded.
func (e *Engine) activate(ctx context.Context, r *models.Round) (Action, error) {
	seq, commitment, err := GenerateSequence()
	if err != nil {
		return Action{}, err
	}
	raw, err := json.Marshal(seq)
	if err != nil {
		return Action{}, err
	}

	now := time.Now()
	res := e.db.WithContext(ctx).Model(&models.Round{}).
		Where("id = ? AND status = ?", r.ID, models.RoundCountdown).
		Updates(map[string]interface{}{
			"status":              models.RoundActive,
			"countdown_remaining": 0,
			"called_sequence":     datatypes.JSON(raw),
			"sequence_commitment": commitment,
			"called_count":        0,
			"activated_at":        now,
		})
	if res.Error != nil {
		return Action{}, ledgerErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return noOp(r), nil
	}

	logger.Infof("round %s activated, commitment=%s", r.ID, commitment)
	a := Action{
		Type:       ActionActivated,
		RoundID:    r.ID,
		Status:     models.RoundActive,
		Commitment: commitment,
	}
	e.publish(r.ID, a)
	return a, nil
}

func (e *Engine) advance(ctx context.Context, r *models.Round) (Action, error) {
	if r.WinnerID != nil {
		// settlement sets winner and finished atomically, so this state
		// should not persist; report the end without mutating anything
		return Action{
			Type:    ActionRoundEnded,
			RoundID: r.ID,
			Status:  r.Status,
			Reason:  models.EndReasonWon,
		}, nil
	}

	seq, err := r.Sequence()
	if err != nil || r.CalledCount > len(seq) || len(seq) == 0 {
		return e.forceCancel(ctx, r)
	}

	if r.CalledCount == len(seq) {
		return e.finishExhausted(ctx, r)
	}

	n := seq[r.CalledCount]
	res := e.db.WithContext(ctx).Model(&models.Round{}).
		Where("id = ? AND status = ? AND winner_id IS NULL AND called_count = ?",
			r.ID, models.RoundActive, r.CalledCount).
		Update("called_count", r.CalledCount+1)
	if res.Error != nil {
		return Action{}, ledgerErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return noOp(r), nil
	}

	a := Action{
		Type:    ActionNumberCalled,
		RoundID: r.ID,
		Status:  models.RoundActive,
		Letter:  LetterFor(n),
		Number:  n,
		Total:   r.CalledCount + 1,
	}
	e.publish(r.ID, a)
	return a, nil
}

func (e *Engine) finishExhausted(ctx context.Context, r *models.Round) (Action, error) {
	now := time.Now()
	res := e.db.WithContext(ctx).Model(&models.Round{}).
		Where("id = ? AND status = ? AND winner_id IS NULL AND called_count = ?",
			r.ID, models.RoundActive, r.CalledCount).
		Updates(map[string]interface{}{
			"status":     models.RoundFinished,
			"end_reason": models.EndReasonExhausted,
			"ended_at":   now,
		})
	if res.Error != nil {
		return Action{}, ledgerErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return noOp(r), nil
	}

	logger.Infof("round %s exhausted all %d numbers with no winner", r.ID, r.CalledCount)
	a := Action{
		Type:    ActionRoundEnded,
		RoundID: r.ID,
		Status:  models.RoundFinished,
		Reason:  models.EndReasonExhausted,
	}
	e.publish(r.ID, a)
	return a, nil
}

// forceCancel reaps a corrupt round. Cancelled is terminal from any
// non-finished state.
func (e *Engine) forceCancel(ctx context.Context, r *models.Round) (Action, error) {
	logger.Errorf("round %s in corrupt state (called=%d), cancelling", r.ID, r.CalledCount)
	now := time.Now()
	res := e.db.WithContext(ctx).Model(&models.Round{}).
		Where("id = ? AND status NOT IN ?", r.ID,
			[]models.RoundStatus{models.RoundFinished, models.RoundCancelled}).
		Updates(map[string]interface{}{
			"status":     models.RoundCancelled,
			"end_reason": models.EndReasonCancelled,
			"ended_at":   now,
		})
	if res.Error != nil {
		return Action{}, ledgerErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return noOp(r), nil
	}

	a := Action{
		Type:    ActionRoundEnded,
		RoundID: r.ID,
		Status:  models.RoundCancelled,
		Reason:  models.EndReasonCancelled,
	}
	e.publish(r.ID, a)
	return a, nil
}
