package engine

import (
	"context"
	"errors"
	"time"

	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClaimOutcome is the uniform three-way result of a bingo claim. A late but
// valid claim is a normal outcome, not an error: the claimant simply lost
// the winner race.
type ClaimOutcome string

const (
	OutcomeWinner       ClaimOutcome = "winner"
	OutcomeLateButValid ClaimOutcome = "late_but_valid"
	OutcomeInvalid      ClaimOutcome = "invalid"
)

// SettleResult reports the outcome and, for the winner, the prize split.
// Amounts are cents.
type SettleResult struct {
	Outcome    ClaimOutcome `json:"outcome"`
	GrossPrize int64        `json:"gross_prize,omitempty"`
	Commission int64        `json:"commission,omitempty"`
	NetPrize   int64        `json:"net_prize,omitempty"`
}

var errLostWinnerRace = errors.New("winner already set")

// splitPrize divides the gross pot into house commission and winner net.
// Commission is floored to whole cents, so commission + net == gross holds
// exactly for any rate.
func splitPrize(gross int64, rate decimal.Decimal) (commission, net int64) {
	commission = decimal.NewFromInt(gross).Mul(rate).Floor().IntPart()
	return commission, gross - commission
}

// Settle validates a claim against the claimant's card and the called
// prefix, then races to set the winner. The write that sets winner_id only
// succeeds while winner_id is still unset, so concurrent valid claims
// converge to exactly one winner; the rest observe LateButValid. The
// winner's net prize is routed by their own stake source: real-funded
// stakes pay into real_balance, bonus-funded stakes into
// locked_bonus_winnings. Losers' wallets are untouched — their stake was
// consumed at join time.
func (e *Engine) Settle(ctx context.Context, roundID string, claimantID uint) (SettleResult, error) {
	r, err := e.loadRound(ctx, roundID)
	if err != nil {
		return SettleResult{}, err
	}

	switch r.Status {
	case models.RoundActive:
	case models.RoundFinished:
		if r.WinnerID != nil {
			return e.lateOrInvalid(ctx, r, claimantID)
		}
		return SettleResult{}, ErrRoundNotJoinable
	default:
		return SettleResult{}, ErrRoundNotJoinable
	}

	valid, err := e.claimValid(ctx, r, claimantID)
	if err != nil {
		return SettleResult{}, err
	}
	if !valid {
		return SettleResult{Outcome: OutcomeInvalid}, nil
	}
	if r.WinnerID != nil {
		return SettleResult{Outcome: OutcomeLateButValid}, nil
	}

	source, err := e.StakeSourceFor(ctx, claimantID, roundID)
	if err != nil {
		return SettleResult{}, err
	}

	result, err := e.awardWinner(ctx, roundID, claimantID, source)
	if errors.Is(err, errLostWinnerRace) {
		return SettleResult{Outcome: OutcomeLateButValid}, nil
	}
	if err != nil {
		return SettleResult{}, err
	}

	logger.Infof("round %s settled: winner=%d gross=%d commission=%d net=%d source=%s",
		roundID, claimantID, result.GrossPrize, result.Commission, result.NetPrize, source)
	e.publish(roundID, Action{
		Type:    ActionRoundEnded,
		RoundID: roundID,
		Status:  models.RoundFinished,
		Reason:  models.EndReasonWon,
	})
	return result, nil
}

// awardWinner races the winner CAS and pays out. The gross prize is read
// back inside the transaction after the CAS succeeds, not taken from the
// caller's snapshot, so the payout always covers every stake that committed
// before the round closed.
func (e *Engine) awardWinner(ctx context.Context, roundID string, claimantID uint, source models.StakeSource) (SettleResult, error) {
	var result SettleResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Round{}).
			Where("id = ? AND status = ? AND winner_id IS NULL", roundID, models.RoundActive).
			Updates(map[string]interface{}{
				"winner_id":  claimantID,
				"status":     models.RoundFinished,
				"end_reason": models.EndReasonWon,
				"ended_at":   now,
			})
		if res.Error != nil {
			return ledgerErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return errLostWinnerRace
		}

		var settled models.Round
		if err := tx.First(&settled, "id = ?", roundID).Error; err != nil {
			return ledgerErr(err)
		}
		gross := settled.PrizePool
		commission, net := splitPrize(gross, e.cfg.CommissionRate)

		col := "real_balance"
		if source == models.SourceBonus {
			col = "locked_bonus_winnings"
		}
		credit := tx.Model(&models.Wallet{}).
			Where("user_id = ?", claimantID).
			Update(col, gorm.Expr(col+" + ?", net))
		if credit.Error != nil {
			return ledgerErr(credit.Error)
		}
		if credit.RowsAffected == 0 {
			return ErrPlayerNotFound
		}

		var w models.Wallet
		if err := tx.First(&w, "user_id = ?", claimantID).Error; err != nil {
			return ledgerErr(err)
		}
		after := w.RealBalance
		if source == models.SourceBonus {
			after = w.LockedBonusWinnings
		}
		winTx := models.Transaction{
			UserID:       claimantID,
			RoundID:      &roundID,
			Type:         models.WinTransaction,
			Source:       source,
			Amount:       net,
			BalanceAfter: after,
		}
		if err := tx.Create(&winTx).Error; err != nil {
			return ledgerErr(err)
		}

		result = SettleResult{
			Outcome:    OutcomeWinner,
			GrossPrize: gross,
			Commission: commission,
			NetPrize:   net,
		}
		return nil
	})
	return result, err
}

// claimValid is the pure pattern check: the claimant's card against the
// called prefix of the committed sequence.
func (e *Engine) claimValid(ctx context.Context, r *models.Round, claimantID uint) (bool, error) {
	var card models.Card
	err := e.db.WithContext(ctx).
		First(&card, "round_id = ? AND user_id = ?", r.ID, claimantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrPlayerNotFound
		}
		return false, ledgerErr(err)
	}

	grid, err := card.Grid()
	if err != nil {
		return false, ledgerErr(err)
	}
	called, err := r.CalledNumbers()
	if err != nil {
		return false, ledgerErr(err)
	}
	return HasBingo(grid, called), nil
}

// lateOrInvalid classifies a claim that arrived after the round finished
// with a winner: still the three-way outcome, never an error.
func (e *Engine) lateOrInvalid(ctx context.Context, r *models.Round, claimantID uint) (SettleResult, error) {
	valid, err := e.claimValid(ctx, r, claimantID)
	if err != nil {
		return SettleResult{}, err
	}
	if !valid {
		return SettleResult{Outcome: OutcomeInvalid}, nil
	}
	return SettleResult{Outcome: OutcomeLateButValid}, nil
}
