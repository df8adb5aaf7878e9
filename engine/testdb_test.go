package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive and
	// serializes access the way row locks would in postgres
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func testConfig() config.Config {
	return config.Config{
		CommissionRate: decimal.RequireFromString("0.10"),
		CountdownSec:   3,
		MinPlayers:     2,
		FillTarget:     4,
		StaleAfter:     time.Minute,
		TakeoverAfter:  5 * time.Second,
	}
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return New(db, testConfig()), db
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64, real, bonus int64) *models.User {
	t.Helper()
	user := models.User{TelegramID: telegramID, Name: "player"}
	require.NoError(t, db.Create(&user).Error)
	wallet := models.Wallet{UserID: user.ID, RealBalance: real, BonusBalance: bonus}
	require.NoError(t, db.Create(&wallet).Error)
	return &user
}

func seedRound(t *testing.T, db *gorm.DB, stake int64, status models.RoundStatus) *models.Round {
	t.Helper()
	round := models.Round{
		ID:     uuid.NewString(),
		Stake:  stake,
		Status: status,
	}
	if status == models.RoundCountdown {
		round.CountdownRemaining = 3
	}
	require.NoError(t, db.Create(&round).Error)
	return &round
}

func joinRound(t *testing.T, db *gorm.DB, roundID string, userID uint, cardNumbers []int) {
	t.Helper()
	require.NoError(t, db.Create(&models.RoundPlayer{RoundID: roundID, UserID: userID}).Error)
	if cardNumbers != nil {
		raw, err := json.Marshal(cardNumbers)
		require.NoError(t, err)
		card := models.Card{RoundID: roundID, UserID: userID, Numbers: datatypes.JSON(raw)}
		require.NoError(t, db.Create(&card).Error)
	}
}

// activateWithSequence forces a round into Active with a known call order
// so claim checks are deterministic.
func activateWithSequence(t *testing.T, db *gorm.DB, roundID string, seq []int, calledCount int) {
	t.Helper()
	raw, err := json.Marshal(seq)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, db.Model(&models.Round{}).Where("id = ?", roundID).
		Updates(map[string]interface{}{
			"status":              models.RoundActive,
			"called_sequence":     datatypes.JSON(raw),
			"sequence_commitment": Commitment(seq),
			"called_count":        calledCount,
			"activated_at":        now,
		}).Error)
}

// orderedSequence is 1..75 in order, handy for deterministic tests.
func orderedSequence() []int {
	seq := make([]int, DomainSize)
	for i := range seq {
		seq[i] = i + 1
	}
	return seq
}

// cardWithTopRow builds a 25-number card whose first row is the given five
// numbers; the rest of the card uses high numbers that are never called in
// the deterministic tests.
func cardWithTopRow(row [5]int) []int {
	nums := make([]int, 25)
	copy(nums, row[:])
	for i := 5; i < 25; i++ {
		nums[i] = 50 + i
	}
	nums[12] = 0 // free center
	return nums
}

func mustJSON(t *testing.T, v interface{}) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return datatypes.JSON(raw)
}

func reloadRound(t *testing.T, db *gorm.DB, id string) *models.Round {
	t.Helper()
	var r models.Round
	require.NoError(t, db.First(&r, "id = ?", id).Error)
	return &r
}

func reloadWallet(t *testing.T, db *gorm.DB, userID uint) *models.Wallet {
	t.Helper()
	var w models.Wallet
	require.NoError(t, db.First(&w, "user_id = ?", userID).Error)
	return &w
}
