package belief

import (
	"testing"

	"mezzanine/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplexityPrior(t *testing.T) {
	basics := []testBasic{div(2), div(3), atLeast(5), atLeast(1)}

	prior, err := ComplexityPrior[int](basics, upTo(10), seeded(7), 200)
	require.NoError(t, err)

	// 4 singles, plus And/Or for the four divisor-with-bound pairs except
	// the two disjunctions with "not less than 1", which are always true.
	assert.Equal(t, 10, prior.Len())
	assert.InDelta(t, 1.0, prior.Mass(), tolerance)

	// Before renormalization singles hold 1/6 each and joins 1/48 each,
	// 19/24 in total.
	for _, b := range basics {
		assert.InDelta(t, 4.0/19.0, prior.Belief(Single[int](b)), tolerance, b.Description())
	}
	assert.InDelta(t, 1.0/38.0, prior.Belief(Conjunction[int](div(2), atLeast(5))), tolerance)
	assert.InDelta(t, 1.0/38.0, prior.Belief(Disjunction[int](div(3), atLeast(5))), tolerance)
	assert.InDelta(t, 1.0/38.0, prior.Belief(Conjunction[int](div(3), atLeast(1))), tolerance)

	// Tautologies are pruned.
	assert.Equal(t, 0.0, prior.Belief(Disjunction[int](div(2), atLeast(1))))
	assert.Equal(t, 0.0, prior.Belief(Disjunction[int](div(3), atLeast(1))))
}

func TestComplexityPriorNeverJoinsObviatedPairs(t *testing.T) {
	basics := []testBasic{div(2), div(3), div(4), atLeast(3), atLeast(6)}

	prior, err := ComplexityPrior[int](basics, upTo(12), seeded(11), 100)
	require.NoError(t, err)

	for _, b := range prior.Hypotheses() {
		h := b.Hypothesis
		if !h.IsJoin() {
			continue
		}
		assert.False(t, h.Proposition.Obviates(h.Remainder), h.Description())
		assert.False(t, h.Remainder.Obviates(h.Proposition), h.Description())
	}

	// Checked in both orders.
	for _, a := range basics {
		for _, b := range basics {
			if a.Obviates(b) {
				assert.Equal(t, 0.0, prior.Belief(Conjunction[int](a, b)))
				assert.Equal(t, 0.0, prior.Belief(Disjunction[int](a, b)))
			}
		}
	}
}

func TestComplexityPriorIsDeterministicForASeed(t *testing.T) {
	basics := []testBasic{div(2), div(3), div(7), atLeast(4), atLeast(9)}

	first, err := ComplexityPrior[int](basics, upTo(20), seeded(42), 5)
	require.NoError(t, err)
	second, err := ComplexityPrior[int](basics, upTo(20), seeded(42), 5)
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for _, b := range first.Hypotheses() {
		assert.Equal(t, b.Probability, second.Belief(b.Hypothesis), b.Description)
	}
}

func TestComplexityPriorRejectsBadConfiguration(t *testing.T) {
	_, err := ComplexityPrior[int, testBasic](nil, upTo(10), seeded(1), 10)
	assert.True(t, core.IsConfigurationError(err))

	_, err = ComplexityPrior[int](divisors(2), upTo(10), seeded(1), 0)
	assert.True(t, core.IsConfigurationError(err))

	_, err = ComplexityPrior[int](divisors(2), nil, seeded(1), 10)
	assert.True(t, core.IsConfigurationError(err))
}

func TestCheckSubstantiality(t *testing.T) {
	tests := []struct {
		name       string
		hypothesis Joined[int, testBasic]
		want       bool
	}{
		{"plain divisibility", Single[int](div(2)), true},
		{"tautology", Disjunction[int](div(2), atLeast(1)), false},
		{"contradiction", Conjunction[int](div(2), atLeast(50)), false},
		{"narrow but real", Conjunction[int](div(3), atLeast(8)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.hypothesis.CheckSubstantiality(upTo(10), seeded(3), 500)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinedEvaluationAndDescription(t *testing.T) {
	and := Conjunction[int](div(2), atLeast(5))
	or := Disjunction[int](div(2), atLeast(5))
	single := Single[int](div(2))

	for s := 1; s <= 12; s++ {
		even, big := s%2 == 0, s >= 5
		assert.Equal(t, even && big, and.PredictsTheProperty(s), "and on %d", s)
		assert.Equal(t, even || big, or.PredictsTheProperty(s), "or on %d", s)
		assert.Equal(t, even, single.PredictsTheProperty(s), "single on %d", s)
	}

	assert.Equal(t, "it is divisible by 2 and it is not less than 5", and.Description())
	assert.Equal(t, "it is divisible by 2 or it is not less than 5", or.Description())
	assert.Equal(t, "it is divisible by 2", single.Description())
	assert.False(t, single.IsJoin())
	assert.True(t, and.IsJoin())
}

func TestExtensionalJoins(t *testing.T) {
	universe := []int{1, 2, 3, 4, 5, 6}
	basics := []testBasic{div(2), div(3), atLeast(4), atLeast(7)}

	hypotheses := ExtensionalJoins[int](basics, universe)

	// singles first, in order
	for i, b := range basics {
		assert.Equal(t, Single[int](b), hypotheses[i])
	}

	seen := map[string]bool{}
	for _, h := range hypotheses[len(basics):] {
		require.True(t, h.IsJoin())
		assert.False(t, h.Proposition.Obviates(h.Remainder))

		mask := ""
		ones := 0
		for _, s := range universe {
			if h.PredictsTheProperty(s) {
				mask += "1"
				ones++
			} else {
				mask += "0"
			}
		}
		assert.False(t, seen[mask], "duplicate extension %s for %s", mask, h.Description())
		seen[mask] = true
		assert.NotZero(t, ones, h.Description())
		assert.NotEqual(t, len(universe), ones, h.Description())
	}

	// "divisible by 2 and not less than 7" accepts nothing in 1..6
	assert.NotContains(t, hypotheses, Conjunction[int](div(2), atLeast(7)))
	// "divisible by 2 or not less than 7" says the same as "divisible by 2"
	assert.NotContains(t, hypotheses, Disjunction[int](div(2), atLeast(7)))
	assert.Contains(t, hypotheses, Conjunction[int](div(2), atLeast(4)))
}
