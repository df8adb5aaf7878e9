package engine

import (
	"context"
	"errors"

	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stake debits a roster member's entry fee from exactly one pool and adds
// it to the prize pool. Idempotent: the unique stake-transaction key makes
// retries and double-submits converge to a single debit, the duplicate call
// returning nil with no balance change.
func (e *Engine) Stake(ctx context.Context, playerID uint, roundID string, source models.StakeSource, amount int64) error {
	if !source.Valid() {
		return ErrInvalidSource
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.First(&round, "id = ?", roundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoundNotFound
			}
			return ledgerErr(err)
		}
		return e.stakeLocked(tx, &round, playerID, source, amount)
	})
}

// stakeLocked runs the stake against a round snapshot read in the same
// transaction. The snapshot check alone is not enough under read committed:
// the round can finish between the read and the commit, so the prize-pool
// write re-checks the round state and a zero-row match rolls the whole
// stake back.
func (e *Engine) stakeLocked(tx *gorm.DB, round *models.Round, playerID uint, source models.StakeSource, amount int64) error {
	if !round.Stakeable() {
		return ErrRoundNotJoinable
	}
	if amount != round.Stake {
		return ErrInvalidStakeAmount
	}

	var member int64
	if err := tx.Model(&models.RoundPlayer{}).
		Where("round_id = ? AND user_id = ?", round.ID, playerID).
		Count(&member).Error; err != nil {
		return ledgerErr(err)
	}
	if member == 0 {
		return ErrPlayerNotFound
	}

	// idempotency gate: at most one stake row per (player, round)
	stakeTx := models.Transaction{
		UserID:  playerID,
		RoundID: &round.ID,
		Type:    models.StakeTransaction,
		Source:  source,
		Amount:  -amount,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&stakeTx)
	if res.Error != nil {
		return ledgerErr(res.Error)
	}
	if res.RowsAffected == 0 {
		logger.Debugf("stake already recorded for player %d round %s", playerID, round.ID)
		return nil
	}

	col := "real_balance"
	if source == models.SourceBonus {
		col = "bonus_balance"
	}
	debit := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND "+col+" >= ?", playerID, amount).
		Update(col, gorm.Expr(col+" - ?", amount))
	if debit.Error != nil {
		return ledgerErr(debit.Error)
	}
	if debit.RowsAffected == 0 {
		var w models.Wallet
		if err := tx.First(&w, "user_id = ?", playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlayerNotFound
			}
			return ledgerErr(err)
		}
		return ErrInsufficientBalance
	}

	pool := tx.Model(&models.Round{}).
		Where("id = ? AND status IN ? AND winner_id IS NULL", round.ID,
			[]models.RoundStatus{
				models.RoundWaiting, models.RoundWaitingForPlayers,
				models.RoundCountdown, models.RoundActive,
			}).
		Update("prize_pool", gorm.Expr("prize_pool + ?", amount))
	if pool.Error != nil {
		return ledgerErr(pool.Error)
	}
	if pool.RowsAffected == 0 {
		// the round ended after the snapshot read; rolling back un-does
		// the ledger row and the wallet debit
		return ErrRoundNotJoinable
	}

	var w models.Wallet
	if err := tx.First(&w, "user_id = ?", playerID).Error; err != nil {
		return ledgerErr(err)
	}
	after := w.RealBalance
	if source == models.SourceBonus {
		after = w.BonusBalance
	}
	if err := tx.Model(&models.Transaction{}).
		Where("id = ?", stakeTx.ID).
		Update("balance_after", after).Error; err != nil {
		return ledgerErr(err)
	}

	logger.Infof("player %d staked %d (%s) in round %s", playerID, amount, source, round.ID)
	return nil
}

// StakeSourceFor returns the funding source recorded for a player's stake
// in a round. Settlement routing depends on it.
func (e *Engine) StakeSourceFor(ctx context.Context, playerID uint, roundID string) (models.StakeSource, error) {
	var stakeRow models.Transaction
	err := e.db.WithContext(ctx).
		First(&stakeRow, "round_id = ? AND user_id = ? AND type = ?",
			roundID, playerID, models.StakeTransaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrPlayerNotFound
		}
		return "", ledgerErr(err)
	}
	return stakeRow.Source, nil
}
