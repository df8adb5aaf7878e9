package services

import (
	"math/rand"
)

// GenerateCardNumbers deals a standard 5x5 card, row-major: five numbers
// per column from B 1-15, I 16-30, N 31-45, G 46-60, O 61-75, center free
// (stored as 0). Cards only affect which claims validate, not the call
// order, so the general-purpose PRNG is fine here.
func GenerateCardNumbers() []int {
	nums := make([]int, 25)
	for col := 0; col < 5; col++ {
		low := col*15 + 1
		perm := rand.Perm(15)
		for row := 0; row < 5; row++ {
			nums[row*5+col] = low + perm[row]
		}
	}
	nums[12] = 0
	return nums
}
