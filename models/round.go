package models

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// ErrCorruptRound reports a call cursor past the end of the committed
// sequence. This should be impossible; a round in this state is forced to
// cancelled rather than allowed to continue.
var ErrCorruptRound = errors.New("round: called count exceeds committed sequence")

type RoundStatus string

const (
	RoundWaiting           RoundStatus = "waiting"
	RoundWaitingForPlayers RoundStatus = "waiting_for_players"
	RoundCountdown         RoundStatus = "countdown"
	RoundActive            RoundStatus = "active"
	RoundFinished          RoundStatus = "finished"
	RoundCancelled         RoundStatus = "cancelled"
)

type EndReason string

const (
	EndReasonWon       EndReason = "won"
	EndReasonExhausted EndReason = "exhausted"
	EndReasonCancelled EndReason = "cancelled"
)

// Round is the persisted state of one bingo round and the unit of
// concurrency control: every transition is a conditional UPDATE guarded by
// the fields read before it, so any process can drive the round forward.
type Round struct {
	ID                 string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Stake              int64          `gorm:"not null" json:"stake"` // cents
	Status             RoundStatus    `gorm:"type:varchar(32);index;not null;default:'waiting'" json:"status"`
	CountdownRemaining int            `gorm:"not null;default:0" json:"countdown_remaining"`
	CalledSequence     datatypes.JSON `json:"-"` // full permutation, written once at activation
	SequenceCommitment string         `gorm:"type:varchar(64)" json:"sequence_commitment"`
	CalledCount        int            `gorm:"not null;default:0" json:"called_count"`
	WinnerID           *uint          `gorm:"index" json:"winner_id"`
	PrizePool          int64          `gorm:"not null;default:0" json:"prize_pool"` // cents
	EndReason          EndReason      `gorm:"type:varchar(16)" json:"end_reason,omitempty"`
	ActivatedAt        *time.Time     `json:"activated_at,omitempty"`
	EndedAt            *time.Time     `json:"ended_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Sequence decodes the persisted call permutation. Empty before activation.
func (r *Round) Sequence() ([]int, error) {
	if len(r.CalledSequence) == 0 {
		return nil, nil
	}
	var seq []int
	if err := json.Unmarshal(r.CalledSequence, &seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// CalledNumbers returns the announced prefix of the sequence.
func (r *Round) CalledNumbers() ([]int, error) {
	seq, err := r.Sequence()
	if err != nil {
		return nil, err
	}
	if r.CalledCount > len(seq) {
		return nil, ErrCorruptRound
	}
	return seq[:r.CalledCount], nil
}

// Joinable reports whether the roster is still open.
func (r *Round) Joinable() bool {
	switch r.Status {
	case RoundWaiting, RoundWaitingForPlayers, RoundCountdown:
		return true
	}
	return false
}

// Stakeable reports whether a roster member may still confirm their stake.
func (r *Round) Stakeable() bool {
	return r.Joinable() || r.Status == RoundActive
}

func (r *Round) Terminal() bool {
	return r.Status == RoundFinished || r.Status == RoundCancelled
}

// RoundPlayer is the relational roster. The autoincrement ID preserves
// insertion order; the first human entry is the designated tick driver.
type RoundPlayer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoundID   string    `gorm:"uniqueIndex:idx_round_user;type:varchar(64);not null" json:"round_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_round_user;not null" json:"user_id"`
	IsBot     bool      `gorm:"not null;default:false" json:"is_bot"`
	CreatedAt time.Time `json:"created_at"`
}
