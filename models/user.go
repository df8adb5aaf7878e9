package models

import "time"

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex" json:"telegram_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	IsBot      bool      `gorm:"not null;default:false" json:"is_bot"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
