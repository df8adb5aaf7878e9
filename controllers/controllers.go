package controllers

import (
	"errors"
	"net/http"

	"github.com/bellapacxx/bingo-engine/engine"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusFor maps engine/service error kinds to HTTP statuses. Transient
// ledger failures are 503 so clients know to retry with backoff;
// validation kinds are final.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrRoundNotFound),
		errors.Is(err, engine.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInsufficientBalance),
		errors.Is(err, engine.ErrInvalidStakeAmount),
		errors.Is(err, engine.ErrInvalidSource),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrUnsupportedStake):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrRoundNotJoinable):
		return http.StatusConflict
	case errors.Is(err, engine.ErrLedger):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWith(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// userByTelegramID resolves the id clients authenticate with into the
// internal user row.
func userByTelegramID(db *gorm.DB, telegramID int64) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "telegram_id = ?", telegramID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engine.ErrPlayerNotFound
		}
		return nil, err
	}
	return &user, nil
}
