package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/engine"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrUnsupportedStake = errors.New("unsupported stake level")

// RoomService assembles rounds: creation, roster joins with card dealing
// and stake confirmation, and the promotions the tick processor does not
// own (waiting -> waiting_for_players at the minimum player count, and
// waiting_for_players -> countdown).
type RoomService struct {
	db  *gorm.DB
	cfg config.Config
	eng *engine.Engine
}

func NewRoomService(db *gorm.DB, cfg config.Config, eng *engine.Engine) *RoomService {
	return &RoomService{db: db, cfg: cfg, eng: eng}
}

// CreateRound opens a new waiting round at one of the configured stakes.
func (s *RoomService) CreateRound(ctx context.Context, stake int64) (*models.Round, error) {
	if !s.stakeSupported(stake) {
		return nil, ErrUnsupportedStake
	}
	round := models.Round{
		ID:                 uuid.NewString(),
		Stake:              stake,
		Status:             models.RoundWaiting,
		CountdownRemaining: s.cfg.CountdownSec,
	}
	if err := s.db.WithContext(ctx).Create(&round).Error; err != nil {
		return nil, err
	}
	logger.Infof("round %s created at stake %d", round.ID, stake)
	return &round, nil
}

func (s *RoomService) stakeSupported(stake int64) bool {
	if len(s.cfg.Stakes) == 0 {
		return stake > 0
	}
	for _, st := range s.cfg.Stakes {
		if st == stake {
			return true
		}
	}
	return false
}

// Join adds a user to the roster, deals their card, and confirms their
// stake from the chosen pool. Idempotent for retries: an existing roster
// entry keeps its card and the stake coordinator will not re-debit. The
// roster row lock on the round keeps joins out of rounds that are
// activating concurrently.
func (s *RoomService) Join(ctx context.Context, roundID string, userID uint, source models.StakeSource) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.ErrPlayerNotFound
		}
		return err
	}

	var stakeAmount int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&round, "id = ?", roundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engine.ErrRoundNotFound
			}
			return err
		}
		if !round.Joinable() {
			return engine.ErrRoundNotJoinable
		}
		stakeAmount = round.Stake

		seat := models.RoundPlayer{RoundID: roundID, UserID: userID, IsBot: user.IsBot}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seat)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // already on the roster
		}

		card := models.Card{RoundID: roundID, UserID: userID, Numbers: mustCardJSON()}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&card).Error
	})
	if err != nil {
		return err
	}

	if err := s.eng.Stake(ctx, userID, roundID, source, stakeAmount); err != nil {
		return err
	}

	return s.promoteIfReady(ctx, roundID)
}

// promoteIfReady flips waiting -> waiting_for_players once the minimum
// player count is reached. Conditional, so concurrent joins race safely.
func (s *RoomService) promoteIfReady(ctx context.Context, roundID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.RoundPlayer{}).
		Where("round_id = ?", roundID).Count(&count).Error; err != nil {
		return err
	}
	if count < int64(s.cfg.MinPlayers) {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Round{}).
		Where("id = ? AND status = ?", roundID, models.RoundWaiting).
		Update("status", models.RoundWaitingForPlayers)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		logger.Infof("round %s has %d players, waiting for start", roundID, count)
	}
	return nil
}

// StartCountdown promotes waiting_for_players -> countdown. Losing the
// conditional write to a concurrent starter is success, not an error.
func (s *RoomService) StartCountdown(ctx context.Context, roundID string) error {
	res := s.db.WithContext(ctx).Model(&models.Round{}).
		Where("id = ? AND status = ?", roundID, models.RoundWaitingForPlayers).
		Updates(map[string]interface{}{
			"status":              models.RoundCountdown,
			"countdown_remaining": s.cfg.CountdownSec,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var round models.Round
	if err := s.db.WithContext(ctx).First(&round, "id = ?", roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.ErrRoundNotFound
		}
		return err
	}
	switch round.Status {
	case models.RoundCountdown, models.RoundActive:
		return nil // someone else started it
	default:
		return engine.ErrRoundNotJoinable
	}
}

func mustCardJSON() datatypes.JSON {
	raw, _ := json.Marshal(GenerateCardNumbers())
	return datatypes.JSON(raw)
}
