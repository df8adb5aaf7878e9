package engine

import "github.com/bellapacxx/bingo-engine/models"

type ActionType string

const (
	ActionNoOp         ActionType = "noop"
	ActionCountdown    ActionType = "countdown"
	ActionActivated    ActionType = "activated"
	ActionNumberCalled ActionType = "number_called"
	ActionRoundEnded   ActionType = "round_ended"
)

// Action is the client-visible result of one tick (or settlement). It
// reflects state already committed to the round record; callers must treat
// it as advisory, never as a command.
type Action struct {
	Type       ActionType         `json:"type"`
	RoundID    string             `json:"round_id"`
	Status     models.RoundStatus `json:"status"`
	Countdown  int                `json:"countdown,omitempty"`
	Commitment string             `json:"commitment,omitempty"`
	Letter     string             `json:"letter,omitempty"`
	Number     int                `json:"number,omitempty"`
	Total      int                `json:"total,omitempty"`
	Reason     models.EndReason   `json:"reason,omitempty"`
}

// noOp reports the authoritative state without claiming a transition. Every
// lost conditional write collapses to this.
func noOp(r *models.Round) Action {
	return Action{
		Type:      ActionNoOp,
		RoundID:   r.ID,
		Status:    r.Status,
		Countdown: r.CountdownRemaining,
		Total:     r.CalledCount,
	}
}

// LetterFor maps a called number to its bingo column letter.
func LetterFor(n int) string {
	switch {
	case n <= 15:
		return "B"
	case n <= 30:
		return "I"
	case n <= 45:
		return "N"
	case n <= 60:
		return "G"
	default:
		return "O"
	}
}
