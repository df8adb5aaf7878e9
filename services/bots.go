package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/engine"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"gorm.io/gorm"
)

// telegram ids can never collide with this range, so bot identities are
// easy to spot in the users table
const botTelegramBase = 9_000_000_000

var botNames = []string{
	"Abel", "Hana", "Meron", "Kebede", "Sara", "Dawit", "Lulit", "Yonas",
	"Tigist", "Bereket", "Selam", "Fikru", "Mahlet", "Natnael", "Ruth", "Henok",
}

// BotService is the capacity/fill assistant: it keeps a pool of synthetic
// participants with bonus-funded wallets, tops up thin rounds through the
// same join/stake path as humans, and submits claims for completed cards
// through the same settlement path, after a delay shaped by each bot's win
// probability.
type BotService struct {
	db  *gorm.DB
	cfg config.Config
	eng *engine.Engine
	rms *RoomService

	mu        sync.Mutex
	scheduled map[string]map[uint]bool // roundID -> bot userID with a pending claim
}

func NewBotService(db *gorm.DB, cfg config.Config, eng *engine.Engine, rms *RoomService) *BotService {
	return &BotService{
		db:        db,
		cfg:       cfg,
		eng:       eng,
		rms:       rms,
		scheduled: make(map[string]map[uint]bool),
	}
}

// EnsureRoster creates bot identities until the pool holds n, each with a
// generously funded bonus wallet and a randomized difficulty profile.
func (s *BotService) EnsureRoster(ctx context.Context, n int) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.BotProfile{}).Count(&existing).Error; err != nil {
		return err
	}

	for i := existing; i < int64(n); i++ {
		name := botNames[int(i)%len(botNames)]
		if i >= int64(len(botNames)) {
			name = fmt.Sprintf("%s%d", name, i/int64(len(botNames))+1)
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			user := models.User{TelegramID: botTelegramBase + i, Name: name, IsBot: true}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			wallet := models.Wallet{UserID: user.ID, BonusBalance: 1_000_000}
			if err := tx.Create(&wallet).Error; err != nil {
				return err
			}
			profile := models.BotProfile{
				UserID:         user.ID,
				Name:           name,
				WinProbability: 0.2 + rand.Float64()*0.7,
				MinDelayMS:     500,
				MaxDelayMS:     6000,
			}
			return tx.Create(&profile).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FillRound tops the roster up to target participants with bots. Bots
// stake from their bonus pool, so the prize pool grows exactly as it would
// with human joins.
func (s *BotService) FillRound(ctx context.Context, roundID string, target int) (int, error) {
	var current int64
	if err := s.db.WithContext(ctx).Model(&models.RoundPlayer{}).
		Where("round_id = ?", roundID).Count(&current).Error; err != nil {
		return 0, err
	}
	missing := target - int(current)
	if missing <= 0 {
		return 0, nil
	}

	var candidates []models.BotProfile
	err := s.db.WithContext(ctx).
		Where("user_id NOT IN (?)",
			s.db.Model(&models.RoundPlayer{}).Select("user_id").Where("round_id = ?", roundID)).
		Limit(missing).
		Find(&candidates).Error
	if err != nil {
		return 0, err
	}

	added := 0
	for _, bot := range candidates {
		if err := s.rms.Join(ctx, roundID, bot.UserID, models.SourceBonus); err != nil {
			logger.Warnf("bot %d could not join round %s: %v", bot.UserID, roundID, err)
			continue
		}
		added++
	}
	if added > 0 {
		logger.Infof("filled round %s with %d bots", roundID, added)
	}
	return added, nil
}

// Publish implements engine.Notifier. On every called number the bots in
// the round re-check their cards; completed cards schedule a claim. The
// check runs on its own goroutine and claims fire from timers, so the tick
// path never waits on bot behavior.
func (s *BotService) Publish(roundID string, a engine.Action) {
	switch a.Type {
	case engine.ActionNumberCalled:
		go s.checkRound(roundID)
	case engine.ActionRoundEnded:
		s.mu.Lock()
		delete(s.scheduled, roundID)
		s.mu.Unlock()
	}
}

func (s *BotService) checkRound(roundID string) {
	ctx := context.Background()
	var round models.Round
	if err := s.db.WithContext(ctx).First(&round, "id = ?", roundID).Error; err != nil {
		return
	}
	if round.Status != models.RoundActive || round.WinnerID != nil {
		return
	}
	called, err := round.CalledNumbers()
	if err != nil {
		return
	}

	var seats []models.RoundPlayer
	if err := s.db.WithContext(ctx).
		Where("round_id = ? AND is_bot = ?", roundID, true).
		Find(&seats).Error; err != nil {
		return
	}

	for _, seat := range seats {
		if s.alreadyScheduled(roundID, seat.UserID) {
			continue
		}
		var card models.Card
		if err := s.db.WithContext(ctx).
			First(&card, "round_id = ? AND user_id = ?", roundID, seat.UserID).Error; err != nil {
			continue
		}
		grid, err := card.Grid()
		if err != nil || !engine.HasBingo(grid, called) {
			continue
		}

		var profile models.BotProfile
		if err := s.db.WithContext(ctx).
			First(&profile, "user_id = ?", seat.UserID).Error; err != nil {
			continue
		}
		s.markScheduled(roundID, seat.UserID)
		userID := seat.UserID
		time.AfterFunc(ClaimDelay(&profile), func() {
			s.claim(roundID, userID)
		})
	}
}

func (s *BotService) alreadyScheduled(roundID string, userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled[roundID][userID]
}

func (s *BotService) markScheduled(roundID string, userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduled[roundID] == nil {
		s.scheduled[roundID] = make(map[uint]bool)
	}
	s.scheduled[roundID][userID] = true
}

func (s *BotService) claim(roundID string, userID uint) {
	res, err := s.eng.Settle(context.Background(), roundID, userID)
	if err != nil {
		if !errors.Is(err, engine.ErrRoundNotJoinable) {
			logger.Errorf("bot %d claim on round %s failed: %v", userID, roundID, err)
		}
		return
	}
	logger.Infof("bot %d claim on round %s: %s", userID, roundID, res.Outcome)
}

// ClaimDelay converts a bot's win probability into its reaction time:
// delay shrinks linearly toward MinDelayMS as the probability approaches
// 1, with a little jitter so bots never look mechanical.
func ClaimDelay(p *models.BotProfile) time.Duration {
	span := float64(p.MaxDelayMS - p.MinDelayMS)
	if span < 0 {
		span = 0
	}
	prob := p.WinProbability
	if prob < 0 {
		prob = 0
	} else if prob > 1 {
		prob = 1
	}
	base := float64(p.MinDelayMS) + span*(1-prob)
	jitter := base * 0.1 * (rand.Float64() - 0.5)
	return time.Duration(base+jitter) * time.Millisecond
}
