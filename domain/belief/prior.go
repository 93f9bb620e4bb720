package belief

import (
	"math/rand"

	"mezzanine/domain/core"
)

const (
	singleShare = 2.0 / 3.0
	joinedShare = 1.0 / 3.0
)

// ComplexityPrior builds a distribution over joined hypotheses that favours
// simple explanations. Every basic alone shares two thirds of the prior mass
// evenly; each And/Or join of an unordered pair of basics gets a nominal
// (1/3)/n² of it. A pair is never joined when either member obviates the
// other, and a join is kept only if it passes CheckSubstantiality. The
// result is renormalized to sum to one, so pruning redistributes the mass of
// the rejected joins proportionally over everything that survives.
func ComplexityPrior[S any, B Basic[S, B]](
	basics []B,
	sampler Sampler[S],
	rng *rand.Rand,
	sampleCap int,
) (*Distribution[S, Joined[S, B]], error) {
	if len(basics) == 0 {
		return nil, core.NewConfigurationError("complexity prior over an empty hypothesis set")
	}
	if sampler == nil || rng == nil {
		return nil, core.NewConfigurationError("complexity prior needs a sampler and a random source")
	}
	if sampleCap <= 0 {
		return nil, core.NewConfigurationError("substantiality sample cap must be positive")
	}

	n := float64(len(basics))
	singleEach := singleShare / n
	joinedEach := joinedShare / (n * n)

	hypotheses := make([]Joined[S, B], 0, len(basics))
	weights := make([]float64, 0, len(basics))
	for _, basic := range basics {
		hypotheses = append(hypotheses, Single[S, B](basic))
		weights = append(weights, singleEach)
	}
	for i := 0; i < len(basics); i++ {
		for j := i + 1; j < len(basics); j++ {
			if obviated[S, B](basics[i], basics[j]) {
				continue
			}
			for _, join := range []Joined[S, B]{
				Conjunction[S, B](basics[i], basics[j]),
				Disjunction[S, B](basics[i], basics[j]),
			} {
				if join.CheckSubstantiality(sampler, rng, sampleCap) {
					hypotheses = append(hypotheses, join)
					weights = append(weights, joinedEach)
				}
			}
		}
	}
	return FromWeights[S, Joined[S, B]](hypotheses, weights)
}

// ExtensionalJoins enumerates the And/Or joins of unordered pairs of basics
// that say something new over a finite universe. A join is kept when its
// extension (the set of subjects it accepts) differs from the extension of
// both components and from that of every join kept before it, and when it
// is neither empty nor the whole universe. The singles come first in the
// result, followed by the joins in pair order.
func ExtensionalJoins[S any, B Basic[S, B]](basics []B, universe []S) []Joined[S, B] {
	extension := func(h interface{ PredictsTheProperty(S) bool }) string {
		mask := make([]byte, len(universe))
		for i, s := range universe {
			if h.PredictsTheProperty(s) {
				mask[i] = '1'
			} else {
				mask[i] = '0'
			}
		}
		return string(mask)
	}
	degenerate := func(mask string) bool {
		ones := 0
		for i := 0; i < len(mask); i++ {
			if mask[i] == '1' {
				ones++
			}
		}
		return ones == 0 || ones == len(mask)
	}

	hypotheses := make([]Joined[S, B], 0, len(basics))
	extensions := make([]string, len(basics))
	for i, basic := range basics {
		hypotheses = append(hypotheses, Single[S, B](basic))
		extensions[i] = extension(basic)
	}

	seen := make(map[string]bool)
	for i := 0; i < len(basics); i++ {
		for j := i + 1; j < len(basics); j++ {
			if obviated[S, B](basics[i], basics[j]) {
				continue
			}
			for _, join := range []Joined[S, B]{
				Conjunction[S, B](basics[i], basics[j]),
				Disjunction[S, B](basics[i], basics[j]),
			} {
				mask := extension(join)
				if mask == extensions[i] || mask == extensions[j] || seen[mask] || degenerate(mask) {
					continue
				}
				seen[mask] = true
				hypotheses = append(hypotheses, join)
			}
		}
	}
	return hypotheses
}
