package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/engine"
	"github.com/bellapacxx/bingo-engine/models"

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
		Stakes:         []int64{1000, 2000},
	}
}

func newTestServices(t *testing.T) (*RoomService, *BotService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	eng := engine.New(db, cfg)
	rooms := NewRoomService(db, cfg, eng)
	bots := NewBotService(db, cfg, eng, rooms)
	return rooms, bots, db
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64, real, bonus int64) *models.User {
	t.Helper()
	user := models.User{TelegramID: telegramID, Name: "player"}
	require.NoError(t, db.Create(&user).Error)
	wallet := models.Wallet{UserID: user.ID, RealBalance: real, BonusBalance: bonus}
	require.NoError(t, db.Create(&wallet).Error)
	return &user
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
