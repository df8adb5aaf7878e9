package engine

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
)

// DomainSize is the bingo call-number domain: numbers 1..75.
const DomainSize = 75

// GenerateSequence produces the full call order for one round: a
// Fisher-Yates shuffle of 1..75 with every swap index drawn from
// crypto/rand, plus the SHA-256 commitment over the sequence. The
// commitment is published at activation so clients can audit the revealed
// sequence after the round.
func GenerateSequence() ([]int, string, error) {
	nums := make([]int, DomainSize)
	for i := range nums {
		nums[i] = i + 1
	}
	for i := len(nums) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, "", fmt.Errorf("fairness: random source: %w", err)
		}
		k := int(j.Int64())
		nums[i], nums[k] = nums[k], nums[i]
	}
	return nums, Commitment(nums), nil
}

// Commitment hashes the canonical JSON encoding of a call sequence.
func Commitment(seq []int) string {
	b, _ := json.Marshal(seq)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// VerifySequence checks a revealed sequence against its published
// commitment.
func VerifySequence(seq []int, commitment string) bool {
	return Commitment(seq) == commitment
}
