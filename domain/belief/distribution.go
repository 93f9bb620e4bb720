package belief

import (
	"math"
	"sort"

	"mezzanine/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution is an immutable probability mass function over hypotheses.
// Hypotheses it does not hold have probability zero. Every operation that
// looks like a mutation returns a new Distribution.
//
// Entries keep the order in which they were supplied, so every sum is taken
// in the same order and results are reproducible bit for bit.
type Distribution[S any, H Hypothesis[S]] struct {
	hypotheses    []H
	probabilities []float64
	index         map[H]int
}

// Belief pairs a hypothesis with its probability, for display.
type Belief[H any] struct {
	Hypothesis  H
	Description string
	Probability float64
}

func newDistribution[S any, H Hypothesis[S]](capacity int) *Distribution[S, H] {
	return &Distribution[S, H]{
		hypotheses:    make([]H, 0, capacity),
		probabilities: make([]float64, 0, capacity),
		index:         make(map[H]int, capacity),
	}
}

func (d *Distribution[S, H]) add(h H, p float64) {
	if i, ok := d.index[h]; ok {
		d.probabilities[i] += p
		return
	}
	d.index[h] = len(d.hypotheses)
	d.hypotheses = append(d.hypotheses, h)
	d.probabilities = append(d.probabilities, p)
}

// IgnorancePrior assigns equal probability to each distinct hypothesis.
// Duplicates collapse into one entry; the mass is split over what remains so
// the distribution still sums to one.
func IgnorancePrior[S any, H Hypothesis[S]](hypotheses []H) (*Distribution[S, H], error) {
	if len(hypotheses) == 0 {
		return nil, core.NewConfigurationError("ignorance prior over an empty hypothesis set")
	}
	d := newDistribution[S, H](len(hypotheses))
	for _, h := range hypotheses {
		d.add(h, 0)
	}
	each := 1.0 / float64(len(d.hypotheses))
	for i := range d.probabilities {
		d.probabilities[i] = each
	}
	return d, nil
}

// FromWeights builds a distribution from unnormalized non-negative weights,
// weights[i] belonging to hypotheses[i]. Zero weights are dropped and
// repeated hypotheses accumulate.
func FromWeights[S any, H Hypothesis[S]](hypotheses []H, weights []float64) (*Distribution[S, H], error) {
	if len(hypotheses) != len(weights) {
		return nil, core.NewConfigurationError("hypotheses and weights differ in length")
	}
	total := 0.0
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, core.NewDegeneracyError("weight of "+hypotheses[i].Description(), w)
		}
		total += w
	}
	if total == 0 {
		return nil, core.NewConfigurationError("no hypothesis carries positive weight")
	}
	d := newDistribution[S, H](len(hypotheses))
	for i, h := range hypotheses {
		if weights[i] > 0 {
			d.add(h, weights[i]/total)
		}
	}
	return d, nil
}

// Len returns the number of hypotheses with stored mass.
func (d *Distribution[S, H]) Len() int {
	return len(d.hypotheses)
}

// Belief returns the probability of h, zero when h is unknown.
func (d *Distribution[S, H]) Belief(h H) float64 {
	if i, ok := d.index[h]; ok {
		return d.probabilities[i]
	}
	return 0
}

// Mass returns the total stored probability. It is one up to rounding.
func (d *Distribution[S, H]) Mass() float64 {
	return floats.Sum(d.probabilities)
}

// Entropy is the Shannon entropy of the distribution in bits. Zero
// probabilities contribute zero.
func (d *Distribution[S, H]) Entropy() float64 {
	return stat.Entropy(d.probabilities) / math.Ln2
}

// Predict returns the probability that subject's verdict is verdict.
func (d *Distribution[S, H]) Predict(subject S, verdict bool) float64 {
	total := 0.0
	for i, h := range d.hypotheses {
		if h.PredictsTheProperty(subject) == verdict {
			total += d.probabilities[i]
		}
	}
	return total
}

// Updated conditions on having observed verdict for subject: hypotheses that
// disagree are dropped and the rest are rescaled to sum to one. It fails with
// core.ErrDistributionCollapse when no hypothesis with positive mass agrees.
func (d *Distribution[S, H]) Updated(subject S, verdict bool) (*Distribution[S, H], error) {
	var agreeing []int
	mass := 0.0
	for i, h := range d.hypotheses {
		if h.PredictsTheProperty(subject) == verdict {
			agreeing = append(agreeing, i)
			mass += d.probabilities[i]
		}
	}
	if mass == 0 {
		return nil, core.NewCollapseError(describeSubject(subject), verdict)
	}
	normalization := 1.0 / mass
	updated := newDistribution[S, H](len(agreeing))
	for _, i := range agreeing {
		updated.add(d.hypotheses[i], d.probabilities[i]*normalization)
	}
	return updated, nil
}

// CompletelyCertain returns the sole hypothesis with positive mass, if there
// is exactly one.
func (d *Distribution[S, H]) CompletelyCertain() (H, bool) {
	var sole H
	found := 0
	for i, h := range d.hypotheses {
		if d.probabilities[i] > 0 {
			sole = h
			found++
		}
	}
	if found != 1 {
		var zero H
		return zero, false
	}
	return sole, true
}

// ValueOfInformation is the expected reduction in entropy from learning
// subject's verdict: the mutual information between the verdict and the
// hypothesis. It is computed in one pass by accumulating, per verdict, the
// probability mass m and the sum s of p·log2(p); the entropy of the
// distribution conditioned on that verdict is then log2(m) - s/m.
//
// The result is exactly zero when every hypothesis with positive mass agrees
// on the verdict, and never negative.
func (d *Distribution[S, H]) ValueOfInformation(subject S) float64 {
	var mass, plogp [2]float64
	var members [2]int
	for i, h := range d.hypotheses {
		p := d.probabilities[i]
		if p <= 0 {
			continue
		}
		v := 0
		if h.PredictsTheProperty(subject) {
			v = 1
		}
		mass[v] += p
		plogp[v] += p * math.Log2(p)
		members[v]++
	}
	if members[0] == 0 || members[1] == 0 {
		return 0
	}
	total := mass[0] + mass[1]
	entropy := -(plogp[0] + plogp[1])
	expected := 0.0
	for v := range mass {
		conditional := math.Log2(mass[v]) - plogp[v]/mass[v]
		expected += (mass[v] / total) * conditional
	}
	return math.Max(0, entropy-expected)
}

// Validate reports core.ErrNumericDegeneracy when a stored probability is not
// a finite non-negative number.
func (d *Distribution[S, H]) Validate() error {
	for i, h := range d.hypotheses {
		if p := d.probabilities[i]; math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return core.NewDegeneracyError("belief in "+h.Description(), p)
		}
	}
	return nil
}

// Hypotheses returns every hypothesis with stored mass, most probable first.
// Ties are ordered by description so the listing is stable.
func (d *Distribution[S, H]) Hypotheses() []Belief[H] {
	beliefs := make([]Belief[H], 0, len(d.hypotheses))
	for i, h := range d.hypotheses {
		beliefs = append(beliefs, Belief[H]{Hypothesis: h, Description: h.Description(), Probability: d.probabilities[i]})
	}
	sort.SliceStable(beliefs, func(i, j int) bool {
		if beliefs[i].Probability != beliefs[j].Probability {
			return beliefs[i].Probability > beliefs[j].Probability
		}
		return beliefs[i].Description < beliefs[j].Description
	})
	return beliefs
}

// Positive returns the hypotheses that still carry mass.
func (d *Distribution[S, H]) Positive() []Belief[H] {
	all := d.Hypotheses()
	positive := all[:0]
	for _, b := range all {
		if b.Probability > 0 {
			positive = append(positive, b)
		}
	}
	return positive
}
