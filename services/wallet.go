package services

import (
	"context"
	"errors"

	"github.com/bellapacxx/bingo-engine/engine"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/bellapacxx/bingo-engine/utils/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidAmount = errors.New("amount must be positive")

// WalletService owns the flows around the ledger that are not stake or
// settlement: deposits (with the one-time unlock of locked bonus
// winnings), bonus grants, and withdrawals from the real pool.
type WalletService struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// Deposit credits the real pool. The user's first real deposit flips
// has_deposited exactly once and releases any locked bonus winnings into
// the withdrawable balance in the same transaction.
func (s *WalletService) Deposit(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w models.Wallet
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&w, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return engine.ErrPlayerNotFound
			}
			return err
		}

		unlocked := int64(0)
		if !w.HasDeposited {
			unlocked = w.LockedBonusWinnings
		}
		newReal := w.RealBalance + amount + unlocked

		if err := tx.Model(&models.Wallet{}).Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"real_balance":          newReal,
				"locked_bonus_winnings": w.LockedBonusWinnings - unlocked,
				"has_deposited":         true,
			}).Error; err != nil {
			return err
		}

		deposit := models.Transaction{
			UserID:       userID,
			Type:         models.DepositTransaction,
			Source:       models.SourceReal,
			Amount:       amount,
			BalanceAfter: newReal,
		}
		if err := tx.Create(&deposit).Error; err != nil {
			return err
		}

		if unlocked > 0 {
			logger.Infof("user %d first deposit unlocked %d locked bonus winnings", userID, unlocked)
			unlock := models.Transaction{
				UserID:       userID,
				Type:         models.BonusUnlockTransaction,
				Source:       models.SourceBonus,
				Amount:       unlocked,
				BalanceAfter: newReal,
			}
			return tx.Create(&unlock).Error
		}
		return nil
	})
}

// GrantBonus credits non-withdrawable promotional funds.
func (s *WalletService) GrantBonus(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wallet{}).Where("user_id = ?", userID).
			Update("bonus_balance", gorm.Expr("bonus_balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return engine.ErrPlayerNotFound
		}
		var w models.Wallet
		if err := tx.First(&w, "user_id = ?", userID).Error; err != nil {
			return err
		}
		grant := models.Transaction{
			UserID:       userID,
			Type:         models.BonusGrantTransaction,
			Source:       models.SourceBonus,
			Amount:       amount,
			BalanceAfter: w.BonusBalance,
		}
		return tx.Create(&grant).Error
	})
}

// Withdraw debits the real pool only; bonus funds and locked winnings are
// never withdrawable. The sufficiency check and the decrement are one
// guarded write.
func (s *WalletService) Withdraw(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wallet{}).
			Where("user_id = ? AND real_balance >= ?", userID, amount).
			Update("real_balance", gorm.Expr("real_balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var w models.Wallet
			if err := tx.First(&w, "user_id = ?", userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return engine.ErrPlayerNotFound
				}
				return err
			}
			return engine.ErrInsufficientBalance
		}
		var w models.Wallet
		if err := tx.First(&w, "user_id = ?", userID).Error; err != nil {
			return err
		}
		withdrawal := models.Transaction{
			UserID:       userID,
			Type:         models.WithdrawTransaction,
			Source:       models.SourceReal,
			Amount:       -amount,
			BalanceAfter: w.RealBalance,
		}
		return tx.Create(&withdrawal).Error
	})
}

// Balance returns the wallet row for a user.
func (s *WalletService) Balance(ctx context.Context, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := s.db.WithContext(ctx).First(&w, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engine.ErrPlayerNotFound
		}
		return nil, err
	}
	return &w, nil
}

// History returns a user's ledger entries, newest first.
func (s *WalletService) History(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
