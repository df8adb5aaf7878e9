package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// gridFrom lays out 25 numbers row-major.
func gridFrom(nums [25]int) [][]int {
	grid := make([][]int, 5)
	for i := 0; i < 5; i++ {
		grid[i] = nums[i*5 : (i+1)*5]
	}
	return grid
}

var baseCard = [25]int{
	1, 16, 31, 46, 61,
	2, 17, 32, 47, 62,
	3, 18, 0, 48, 63, // center free
	4, 19, 34, 49, 64,
	5, 20, 35, 50, 65,
}

func TestHasBingoRow(t *testing.T) {
	grid := gridFrom(baseCard)
	assert.True(t, HasBingo(grid, []int{1, 16, 31, 46, 61}))
	assert.False(t, HasBingo(grid, []int{1, 16, 31, 46}))
}

func TestHasBingoColumn(t *testing.T) {
	grid := gridFrom(baseCard)
	assert.True(t, HasBingo(grid, []int{1, 2, 3, 4, 5}))
}

func TestHasBingoColumnUsesFreeCenter(t *testing.T) {
	grid := gridFrom(baseCard)
	// N column: 31, 32, free, 34, 35
	assert.True(t, HasBingo(grid, []int{31, 32, 34, 35}))
}

func TestHasBingoDiagonals(t *testing.T) {
	grid := gridFrom(baseCard)
	assert.True(t, HasBingo(grid, []int{1, 17, 49, 65}))  // main diagonal via free center
	assert.True(t, HasBingo(grid, []int{61, 47, 19, 5})) // anti-diagonal via free center
}

func TestHasBingoCorners(t *testing.T) {
	grid := gridFrom(baseCard)
	assert.True(t, HasBingo(grid, []int{1, 61, 5, 65}))
	assert.False(t, HasBingo(grid, []int{1, 61, 5}))
}

func TestHasBingoCross(t *testing.T) {
	grid := gridFrom(baseCard)
	// middle row + middle column, center free
	assert.True(t, HasBingo(grid, []int{3, 18, 48, 63, 31, 32, 34, 35}))
}

func TestHasBingoFullCard(t *testing.T) {
	grid := gridFrom(baseCard)
	all := make([]int, 0, 24)
	for _, n := range baseCard {
		if n != 0 {
			all = append(all, n)
		}
	}
	assert.True(t, HasBingo(grid, all))
}

func TestHasBingoNoPattern(t *testing.T) {
	grid := gridFrom(baseCard)
	assert.False(t, HasBingo(grid, []int{1, 17, 48, 64, 20}))
	assert.False(t, HasBingo(grid, nil))
}
