package models

import "time"

// Wallet holds a user's three balance pools. All amounts are integer cents.
// Winnings from a bonus-funded stake land in LockedBonusWinnings and stay
// there until the user's first real deposit unlocks them into RealBalance.
type Wallet struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	RealBalance         int64     `gorm:"not null;default:0" json:"real_balance"`
	BonusBalance        int64     `gorm:"not null;default:0" json:"bonus_balance"`
	LockedBonusWinnings int64     `gorm:"not null;default:0" json:"locked_bonus_winnings"`
	HasDeposited        bool      `gorm:"not null;default:false" json:"has_deposited"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
