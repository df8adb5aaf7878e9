package models

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Card is a 5x5 bingo card assigned to one player for one round. Numbers are
// stored row-major; the center cell is 0 and plays as free.
type Card struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	RoundID   string         `gorm:"uniqueIndex:idx_round_card_user;type:varchar(64);not null" json:"round_id"`
	UserID    uint           `gorm:"uniqueIndex:idx_round_card_user;not null" json:"user_id"`
	Numbers   datatypes.JSON `json:"numbers"`
	CreatedAt time.Time      `json:"created_at"`
}

// Grid decodes the stored numbers into 5 rows of 5.
func (c *Card) Grid() ([][]int, error) {
	var nums []int
	if err := json.Unmarshal(c.Numbers, &nums); err != nil {
		return nil, err
	}
	if len(nums) != 25 {
		return nil, errors.New("card: expected 25 numbers")
	}
	grid := make([][]int, 5)
	for i := 0; i < 5; i++ {
		grid[i] = nums[i*5 : (i+1)*5]
	}
	return grid, nil
}
