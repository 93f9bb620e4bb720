package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// PriorHash fingerprints a prior belief distribution. Stored answers are
// only meaningful against the prior they were given to.
type PriorHash Hash

func (h PriorHash) String() string { return Hash(h).String() }

// ComputePriorHash hashes hypothesis descriptions with their prior
// probabilities, in the order given. Probabilities are rounded to twelve
// significant digits.
func ComputePriorHash(descriptions []string, probabilities []float64) PriorHash {
	var data strings.Builder
	for i, description := range descriptions {
		data.WriteString(description)
		if i < len(probabilities) {
			data.WriteString(fmt.Sprintf("=%.12g", probabilities[i]))
		}
		data.WriteByte('\n')
	}
	return PriorHash(NewHash([]byte(data.String())))
}
