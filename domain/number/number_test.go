package number

import (
	"math/rand"
	"testing"

	"mezzanine/domain/belief"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicPredictions(t *testing.T) {
	tests := []struct {
		name  string
		basic Basic
		n     Number
		want  bool
	}{
		{"divisible", Divisibility(3), 9, true},
		{"not divisible", Divisibility(3), 10, false},
		{"divisible by one", Divisibility(1), 7, true},
		{"inside range", Boundedness(2, 5), 5, true},
		{"above range", Boundedness(2, 5), 6, false},
		{"below range", Boundedness(2, 5), 1, false},
		{"open upper bound", AtLeast(4), 1000, true},
		{"open lower bound", AtMost(4), 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.basic.PredictsTheProperty(tt.n))
		})
	}
}

func TestBasicDescriptions(t *testing.T) {
	assert.Equal(t, "it is divisible by 3", Divisibility(3).Description())
	assert.Equal(t, "it is exactly 4", Boundedness(4, 4).Description())
	assert.Equal(t, "it is not less than 2 and is not greater than 5", Boundedness(2, 5).Description())
	assert.Equal(t, "it is not less than 7", AtLeast(7).Description())

	join := belief.Conjunction[Number, Basic](Divisibility(2), Boundedness(3, 8))
	assert.Equal(t, "it is divisible by 2 and it is not less than 3 and is not greater than 8", join.Description())
}

func TestUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() { Basic{}.PredictsTheProperty(1) })
	assert.Panics(t, func() { _ = Basic{}.Description() })
}

func TestObviatesSameKind(t *testing.T) {
	assert.True(t, Divisibility(2).Obviates(Divisibility(3)))
	assert.True(t, Boundedness(2, 3).Obviates(AtLeast(5)))
	assert.False(t, Divisibility(2).Obviates(Boundedness(2, 3)))
}

func TestDomain(t *testing.T) {
	d := Domain{Bound: 5}
	assert.Equal(t, []Number{1, 2, 3, 4, 5}, d.Universe())

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		n := d.Sample(rng)
		require.GreaterOrEqual(t, int(n), 1)
		require.LessOrEqual(t, int(n), 5)
	}
}

func TestStandardBasics(t *testing.T) {
	basics := StandardBasics(10)

	divisors, ranges := 0, 0
	for _, b := range basics {
		switch b.Kind {
		case KindDivisibility:
			divisors++
			assert.LessOrEqual(t, b.Divisor, 4)
		case KindBoundedness:
			ranges++
			assert.GreaterOrEqual(t, b.Bounds.Lower, 2)
			assert.LessOrEqual(t, b.Bounds.Lower, b.Bounds.Upper)
			assert.LessOrEqual(t, b.Bounds.Upper, 10)
		}
	}
	assert.Equal(t, 4, divisors)
	assert.Equal(t, 44, ranges)
}

func TestStandardBasicsDivisors(t *testing.T) {
	tests := []struct {
		bound int
		max   int
	}{
		{30, 14},
		{31, 15},
		{12, 5},
		{3, 1},
	}

	for _, tt := range tests {
		largest := 0
		for _, b := range StandardBasics(tt.bound) {
			if b.Kind == KindDivisibility && b.Divisor > largest {
				largest = b.Divisor
			}
		}
		assert.Equal(t, tt.max, largest, "bound %d", tt.bound)
	}
}

func TestStandardHypothesesAreDistinctAndNonTrivial(t *testing.T) {
	const bound = 12
	hypotheses := StandardHypotheses(bound)
	universe := Domain{Bound: bound}.Universe()
	basics := StandardBasics(bound)

	require.Greater(t, len(hypotheses), len(basics))
	for i, b := range basics {
		assert.Equal(t, belief.Single[Number, Basic](b), hypotheses[i], "singles come first")
	}

	seen := make(map[string]bool)
	for _, h := range hypotheses[len(basics):] {
		assert.True(t, h.IsJoin())
		assert.NotEqual(t, h.Proposition.Kind, h.Remainder.Kind, "same-kind pairs are obviated")

		mask := make([]byte, len(universe))
		accepted := 0
		for i, n := range universe {
			mask[i] = '0'
			if h.PredictsTheProperty(n) {
				mask[i] = '1'
				accepted++
			}
		}
		assert.False(t, seen[string(mask)], "duplicate extension for %q", h.Description())
		seen[string(mask)] = true
		assert.NotZero(t, accepted, h.Description())
		assert.NotEqual(t, len(universe), accepted, h.Description())
	}
}

func TestNumberGameNarrowsDown(t *testing.T) {
	prior, err := belief.IgnorancePrior[Number, Hypothesis](StandardHypotheses(10))
	require.NoError(t, err)

	posterior, err := prior.Updated(7, true)
	require.NoError(t, err)
	posterior, err = posterior.Updated(8, false)
	require.NoError(t, err)

	assert.Less(t, posterior.Entropy(), prior.Entropy())
	assert.InDelta(t, 1.0, posterior.Mass(), 1e-9)
	assert.InDelta(t, 1.0, posterior.Predict(7, true), 1e-9)
}
