package belief

import (
	"fmt"
	"math/rand"
)

// testBasic is a small predicate family over positive integers:
// 'd' means divisible by n, 'g' means not less than n.
type testBasic struct {
	kind byte
	n    int
}

func div(n int) testBasic     { return testBasic{kind: 'd', n: n} }
func atLeast(n int) testBasic { return testBasic{kind: 'g', n: n} }

func (b testBasic) PredictsTheProperty(subject int) bool {
	switch b.kind {
	case 'd':
		return subject%b.n == 0
	default:
		return subject >= b.n
	}
}

func (b testBasic) Description() string {
	switch b.kind {
	case 'd':
		return fmt.Sprintf("it is divisible by %d", b.n)
	default:
		return fmt.Sprintf("it is not less than %d", b.n)
	}
}

func (b testBasic) Obviates(other testBasic) bool {
	return b.kind == other.kind
}

func divisors(ns ...int) []testBasic {
	basics := make([]testBasic, 0, len(ns))
	for _, n := range ns {
		basics = append(basics, div(n))
	}
	return basics
}

func upTo(bound int) Sampler[int] {
	return SamplerFunc[int](func(rng *rand.Rand) int { return 1 + rng.Intn(bound) })
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// rawDistribution builds a distribution without normalizing, so tests can
// plant zero or broken masses.
func rawDistribution(entries map[testBasic]float64, order ...testBasic) *Distribution[int, testBasic] {
	d := newDistribution[int, testBasic](len(order))
	for _, h := range order {
		d.add(h, entries[h])
	}
	return d
}
