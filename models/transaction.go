package models

import "time"

type TransactionType string

const (
	StakeTransaction       TransactionType = "stake"
	WinTransaction         TransactionType = "win"
	DepositTransaction     TransactionType = "deposit"
	WithdrawTransaction    TransactionType = "withdraw"
	BonusGrantTransaction  TransactionType = "bonus_grant"
	BonusUnlockTransaction TransactionType = "bonus_unlock"
)

// StakeSource is the closed set of pools a stake may be funded from.
type StakeSource string

const (
	SourceReal  StakeSource = "real"
	SourceBonus StakeSource = "bonus"
)

func (s StakeSource) Valid() bool {
	return s == SourceReal || s == SourceBonus
}

// Transaction is an append-only ledger entry. The unique
// (round_id, user_id, type) index is the idempotency key that guarantees at
// most one stake debit per player per round.
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"uniqueIndex:idx_round_user_type;index;not null" json:"user_id"`
	RoundID      *string         `gorm:"uniqueIndex:idx_round_user_type;type:varchar(64)" json:"round_id,omitempty"`
	Type         TransactionType `gorm:"uniqueIndex:idx_round_user_type;type:varchar(16);not null" json:"type"`
	Source       StakeSource     `gorm:"type:varchar(8)" json:"source,omitempty"`
	Amount       int64           `gorm:"not null" json:"amount"`
	BalanceAfter int64           `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}
