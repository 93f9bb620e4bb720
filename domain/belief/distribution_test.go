package belief

import (
	"math"
	"testing"

	"mezzanine/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestUpdatingYourBayesianDistribution(t *testing.T) {
	// Suppose "a number has the property iff it is divisible by n" is
	// equally likely for n in {2, 3, 5, 7, 11}.
	prior, err := IgnorancePrior[int](divisors(2, 3, 5, 7, 11))
	require.NoError(t, err)

	// Learning that 15 lacks the property rules out 3 and 5.
	beliefs, err := prior.Updated(15, false)
	require.NoError(t, err)

	oneThird := 1.0 / 3.0
	assert.Equal(t, oneThird, beliefs.Belief(div(2)))
	assert.Equal(t, oneThird, beliefs.Belief(div(7)))
	assert.Equal(t, oneThird, beliefs.Belief(div(11)))
	assert.Equal(t, 0.0, beliefs.Belief(div(3)))
	assert.Equal(t, 0.0, beliefs.Belief(div(5)))

	// And 14 has a two-in-three chance of having the property.
	assert.Equal(t, 2.0/3.0, beliefs.Predict(14, true))

	// The prior snapshot is untouched.
	assert.Equal(t, 0.2, prior.Belief(div(3)))
	assert.Equal(t, 5, prior.Len())
}

func TestIgnorancePrior(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17, 64} {
		basics := make([]testBasic, 0, n)
		for i := 1; i <= n; i++ {
			basics = append(basics, div(i))
		}
		prior, err := IgnorancePrior[int](basics)
		require.NoError(t, err)

		for _, b := range basics {
			assert.InDelta(t, 1.0/float64(n), prior.Belief(b), tolerance)
		}
		assert.InDelta(t, 1.0, prior.Mass(), tolerance)
		assert.InDelta(t, math.Log2(float64(n)), prior.Entropy(), tolerance, "entropy of uniform over %d", n)
	}
}

func TestIgnorancePriorRejectsEmptySet(t *testing.T) {
	_, err := IgnorancePrior[int, testBasic](nil)
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
}

func TestIgnorancePriorCollapsesDuplicates(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, prior.Len())
	assert.InDelta(t, 0.5, prior.Belief(div(2)), tolerance)
	assert.InDelta(t, 1.0, prior.Mass(), tolerance)
}

func TestBeliefOfUnknownHypothesisIsZero(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 3))
	require.NoError(t, err)
	assert.Equal(t, 0.0, prior.Belief(div(13)))
}

func TestPredictionsAreComplementary(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 3, 4, 5, 6, 7, 8, 9, 10))
	require.NoError(t, err)
	for s := 1; s <= 200; s++ {
		assert.InDelta(t, 1.0, prior.Predict(s, true)+prior.Predict(s, false), tolerance, "subject %d", s)
	}
}

func TestUpdatedKeepsOnlyAgreeingHypotheses(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 3, 4, 5, 6))
	require.NoError(t, err)

	posterior, err := prior.Updated(12, true)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, posterior.Mass(), tolerance)
	for _, b := range divisors(2, 3, 4, 5, 6) {
		if b.PredictsTheProperty(12) {
			assert.InDelta(t, 0.25, posterior.Belief(b), tolerance)
		} else {
			assert.Equal(t, 0.0, posterior.Belief(b))
		}
	}
}

func TestUpdatedOnUnanimousVerdictIsIdempotent(t *testing.T) {
	prior, err := FromWeights[int](divisors(2, 4, 6), []float64{0.5, 0.3, 0.2})
	require.NoError(t, err)

	posterior, err := prior.Updated(24, true)
	require.NoError(t, err)
	for _, b := range divisors(2, 4, 6) {
		assert.InDelta(t, prior.Belief(b), posterior.Belief(b), tolerance)
	}
	assert.InDelta(t, prior.Entropy(), posterior.Entropy(), tolerance)
}

func TestUpdatedCollapse(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 4))
	require.NoError(t, err)

	_, err = prior.Updated(8, false)
	require.Error(t, err)
	assert.True(t, core.IsCollapse(err))
	assert.Contains(t, err.Error(), "8")
}

func TestEntropyIgnoresZeroMass(t *testing.T) {
	d := rawDistribution(map[testBasic]float64{div(2): 1, div(3): 0}, div(2), div(3))
	entropy := d.Entropy()
	assert.False(t, math.IsNaN(entropy))
	assert.Equal(t, 0.0, entropy)
	assert.Equal(t, 0.0, d.ValueOfInformation(6))
}

func TestCompletelyCertain(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 3))
	require.NoError(t, err)

	_, certain := prior.CompletelyCertain()
	assert.False(t, certain)

	posterior, err := prior.Updated(3, true)
	require.NoError(t, err)
	sole, certain := posterior.CompletelyCertain()
	assert.True(t, certain)
	assert.Equal(t, div(3), sole)
}

func TestCompletelyCertainIgnoresZeroMassEntries(t *testing.T) {
	d := rawDistribution(map[testBasic]float64{div(2): 1, div(3): 0}, div(2), div(3))
	sole, certain := d.CompletelyCertain()
	assert.True(t, certain)
	assert.Equal(t, div(2), sole)
}

// materializedValueOfInformation computes the value of information the slow
// way, by building both conditioned distributions.
func materializedValueOfInformation(t *testing.T, d *Distribution[int, testBasic], subject int) float64 {
	t.Helper()
	expected := 0.0
	for _, verdict := range []bool{true, false} {
		p := d.Predict(subject, verdict)
		if p == 0 {
			continue
		}
		child, err := d.Updated(subject, verdict)
		require.NoError(t, err)
		expected += p * child.Entropy()
	}
	return d.Entropy() - expected
}

func TestValueOfInformationMatchesMaterializedComputation(t *testing.T) {
	var basics []testBasic
	var weights []float64
	for n := 1; n <= 40; n++ {
		basics = append(basics, div(n))
		weights = append(weights, float64(n%7+1))
	}
	prior, err := FromWeights[int](basics, weights)
	require.NoError(t, err)

	for s := 1; s <= 120; s++ {
		fast := prior.ValueOfInformation(s)
		slow := materializedValueOfInformation(t, prior, s)
		assert.InDelta(t, slow, fast, tolerance, "subject %d", s)
		assert.GreaterOrEqual(t, fast, 0.0)
	}
}

func TestValueOfInformationIsZeroIffUnanimous(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 3, 5, 7, 11))
	require.NoError(t, err)

	assert.Equal(t, 0.0, prior.ValueOfInformation(1), "nobody predicts 1 has the property")
	assert.Equal(t, 0.0, prior.ValueOfInformation(2310), "everybody predicts 2310 has the property")
	assert.Greater(t, prior.ValueOfInformation(6), 0.0)

	// A single yes/no answer is worth at most one bit.
	for s := 1; s <= 100; s++ {
		assert.LessOrEqual(t, prior.ValueOfInformation(s), 1.0+tolerance)
	}
}

func TestValidateReportsDegenerateMass(t *testing.T) {
	good, err := IgnorancePrior[int](divisors(2, 3))
	require.NoError(t, err)
	assert.NoError(t, good.Validate())

	bad := rawDistribution(map[testBasic]float64{div(2): math.NaN()}, div(2))
	err = bad.Validate()
	require.Error(t, err)
	assert.True(t, core.IsDegeneracy(err))
}

func TestFromWeightsRejectsNegativeWeight(t *testing.T) {
	_, err := FromWeights[int](divisors(2), []float64{-1})
	require.Error(t, err)
	assert.True(t, core.IsDegeneracy(err))

	_, err = FromWeights[int](divisors(2), []float64{0})
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))

	_, err = FromWeights[int](divisors(2, 3), []float64{1})
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
}

func TestHypothesesAreSortedByBelief(t *testing.T) {
	d, err := FromWeights[int](divisors(2, 3, 5), []float64{1, 3, 1})
	require.NoError(t, err)

	beliefs := d.Hypotheses()
	require.Len(t, beliefs, 3)
	assert.Equal(t, div(3), beliefs[0].Hypothesis)
	assert.Equal(t, "it is divisible by 3", beliefs[0].Description)
	assert.InDelta(t, 0.6, beliefs[0].Probability, tolerance)
	// equal mass falls back to description order
	assert.Equal(t, div(2), beliefs[1].Hypothesis)
	assert.Equal(t, div(5), beliefs[2].Hypothesis)
}

func TestFoldProducesSnapshots(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 3, 5, 7, 11))
	require.NoError(t, err)

	snapshots, err := Fold(prior, []Observation[int]{
		{Subject: 15, Verdict: false},
		{Subject: 14, Verdict: true},
		{Subject: 7, Verdict: true},
	})
	require.NoError(t, err)
	require.Len(t, snapshots, 4)
	assert.Same(t, prior, snapshots[0])
	assert.Equal(t, 3, snapshots[1].Len())
	assert.Equal(t, 2, snapshots[2].Len())

	sole, certain := snapshots[3].CompletelyCertain()
	assert.True(t, certain)
	assert.Equal(t, div(7), sole)
}

func TestFoldStopsAtCollapse(t *testing.T) {
	prior, err := IgnorancePrior[int](divisors(2, 3))
	require.NoError(t, err)

	snapshots, err := Fold(prior, []Observation[int]{
		{Subject: 4, Verdict: true},
		{Subject: 2, Verdict: false},
	})
	require.Error(t, err)
	assert.True(t, core.IsCollapse(err))
	require.Len(t, snapshots, 2)
	sole, certain := snapshots[1].CompletelyCertain()
	assert.True(t, certain)
	assert.Equal(t, div(2), sole)
}
