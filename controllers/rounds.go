package controllers

import (
	"net/http"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/engine"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RoundController struct {
	db    *gorm.DB
	cfg   config.Config
	eng   *engine.Engine
	rooms *services.RoomService
	bots  *services.BotService
}

func NewRoundController(db *gorm.DB, cfg config.Config, eng *engine.Engine,
	rooms *services.RoomService, bots *services.BotService) *RoundController {
	return &RoundController{db: db, cfg: cfg, eng: eng, rooms: rooms, bots: bots}
}

// Create opens a round at one of the supported stake levels.
func (rc *RoundController) Create(c *gin.Context) {
	var req struct {
		Stake int64 `json:"stake" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	round, err := rc.rooms.CreateRound(c.Request.Context(), req.Stake)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, round)
}

// List returns rounds that have not ended yet.
func (rc *RoundController) List(c *gin.Context) {
	var rounds []models.Round
	err := rc.db.
		Where("status IN ?", []models.RoundStatus{
			models.RoundWaiting, models.RoundWaitingForPlayers,
			models.RoundCountdown, models.RoundActive,
		}).
		Order("created_at DESC").
		Find(&rounds).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, rounds)
}

// Get returns the round state a client needs to render and drive it: the
// called prefix and commitment, never the unrevealed remainder of the
// sequence, plus the designated ticker and the takeover threshold.
func (rc *RoundController) Get(c *gin.Context) {
	round, err := rc.load(c)
	if err != nil {
		abortWith(c, err)
		return
	}

	called, err := round.CalledNumbers()
	if err != nil {
		abortWith(c, err)
		return
	}

	var roster []models.RoundPlayer
	if err := rc.db.Where("round_id = ?", round.ID).Order("id ASC").Find(&roster).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ticker, _ := rc.eng.DesignatedTicker(c.Request.Context(), round.ID)

	c.JSON(http.StatusOK, gin.H{
		"round":             round,
		"called_numbers":    called,
		"roster":            roster,
		"designated_ticker": ticker,
		"takeover_after_ms": rc.cfg.TakeoverAfter.Milliseconds(),
		"should_take_over":  engine.ShouldTakeOver(round, time.Now(), rc.cfg.TakeoverAfter),
	})
}

// Join puts a player on the roster and confirms their stake.
func (rc *RoundController) Join(c *gin.Context) {
	var req struct {
		TelegramID int64              `json:"telegram_id" binding:"required"`
		Source     models.StakeSource `json:"source" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := userByTelegramID(rc.db, req.TelegramID)
	if err != nil {
		abortWith(c, err)
		return
	}

	if err := rc.rooms.Join(c.Request.Context(), c.Param("id"), user.ID, req.Source); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "joined"})
}

// Start fills the roster with bots up to the target and begins the
// countdown.
func (rc *RoundController) Start(c *gin.Context) {
	ctx := c.Request.Context()
	roundID := c.Param("id")

	if _, err := rc.bots.FillRound(ctx, roundID, rc.cfg.FillTarget); err != nil {
		abortWith(c, err)
		return
	}
	if err := rc.rooms.StartCountdown(ctx, roundID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "countdown started"})
}

// Tick advances the round by at most one transition; the response reflects
// committed state and is purely advisory.
func (rc *RoundController) Tick(c *gin.Context) {
	action, err := rc.eng.Tick(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// Claim submits a bingo claim. All three outcomes are 200s; a late claim
// is "someone else won first", not a failure.
func (rc *RoundController) Claim(c *gin.Context) {
	var req struct {
		TelegramID int64 `json:"telegram_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := userByTelegramID(rc.db, req.TelegramID)
	if err != nil {
		abortWith(c, err)
		return
	}

	result, err := rc.eng.Settle(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Verify reveals the full sequence of an ended round for fairness audits.
func (rc *RoundController) Verify(c *gin.Context) {
	round, err := rc.load(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	if !round.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "round still in progress"})
		return
	}

	seq, err := round.Sequence()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sequence":   seq,
		"commitment": round.SequenceCommitment,
		"verified":   engine.VerifySequence(seq, round.SequenceCommitment),
	})
}

func (rc *RoundController) load(c *gin.Context) (*models.Round, error) {
	var round models.Round
	if err := rc.db.First(&round, "id = ?", c.Param("id")).Error; err != nil {
		return nil, engine.ErrRoundNotFound
	}
	return &round, nil
}
