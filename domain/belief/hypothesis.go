// Package belief maintains Bayesian belief distributions over candidate
// hypotheses and chooses which subject to ask about next.
//
// Likelihoods are binary: a hypothesis either predicts that a subject has the
// property or that it does not, so conditioning on a verdict simply discards
// the hypotheses that disagree and rescales the survivors.
package belief

import (
	"fmt"
	"math/rand"
	"strings"
)

// Hypothesis is a candidate predicate over subjects of type S.
//
// Implementations must be plain comparable values: a Distribution uses them
// as map keys, so equality is structural over their parameters. Description
// is for display only and never participates in identity.
type Hypothesis[S any] interface {
	comparable
	PredictsTheProperty(subject S) bool
	Description() string
}

// Basic is a hypothesis that can take part in a join. Obviates reports that
// pairing the receiver with other would only produce redundant or
// uninformative composites.
type Basic[S any, B any] interface {
	Hypothesis[S]
	Obviates(other B) bool
}

// Sampler draws a random subject from a subject domain.
type Sampler[S any] interface {
	Sample(rng *rand.Rand) S
}

// Universe enumerates a finite subject domain.
type Universe[S any] interface {
	Universe() []S
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc[S any] func(rng *rand.Rand) S

func (f SamplerFunc[S]) Sample(rng *rand.Rand) S { return f(rng) }

// Bounds is an optional inclusive lower and upper limit on a count.
type Bounds struct {
	Lower    int
	Upper    int
	HasLower bool
	HasUpper bool
}

func Between(lower, upper int) Bounds {
	return Bounds{Lower: lower, Upper: upper, HasLower: true, HasUpper: true}
}

func Exactly(n int) Bounds { return Between(n, n) }

func AtLeast(lower int) Bounds { return Bounds{Lower: lower, HasLower: true} }

func AtMost(upper int) Bounds { return Bounds{Upper: upper, HasUpper: true} }

// Contains reports whether n lies within the bounds.
func (b Bounds) Contains(n int) bool {
	if b.HasLower && n < b.Lower {
		return false
	}
	if b.HasUpper && n > b.Upper {
		return false
	}
	return true
}

// IsExact reports whether the bounds pin the count to a single value.
func (b Bounds) IsExact() bool {
	return b.HasLower && b.HasUpper && b.Lower == b.Upper
}

// Describe renders the bounds as a clause about quantity, for example
// "the number of pips is not less than 2 and is not greater than 5".
func (b Bounds) Describe(quantity string) string {
	described := []string{quantity}
	if b.IsExact() {
		described = append(described, fmt.Sprintf("is exactly %d", b.Lower))
		return strings.Join(described, " ")
	}
	if b.HasLower {
		described = append(described, fmt.Sprintf("is not less than %d", b.Lower))
	}
	if b.HasLower && b.HasUpper {
		described = append(described, "and")
	}
	if b.HasUpper {
		described = append(described, fmt.Sprintf("is not greater than %d", b.Upper))
	}
	return strings.Join(described, " ")
}
