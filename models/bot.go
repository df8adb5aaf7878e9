package models

import "time"

// BotProfile tags a synthetic participant with its difficulty curve. The
// claim delay drawn from [MinDelayMS, MaxDelayMS] shrinks as WinProbability
// approaches 1, so strong bots claim near-instantly.
type BotProfile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Name           string    `json:"name"`
	WinProbability float64   `gorm:"not null;default:0.5" json:"win_probability"`
	MinDelayMS     int       `gorm:"not null;default:500" json:"min_delay_ms"`
	MaxDelayMS     int       `gorm:"not null;default:6000" json:"max_delay_ms"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
