package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic sessions
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates the RNG stream one session uses for one purpose, such as
	// building its prior or sampling candidate questions. The same session,
	// purpose and seed always yield the same sequence.
	Stream(ctx context.Context, sessionID, purpose string, baseSeed int64) (*rand.Rand, error)
}
