package number

import (
	"fmt"

	"mezzanine/domain/belief"
)

// Kind tags the variant held by a Basic hypothesis.
type Kind uint8

const (
	KindDivisibility Kind = iota + 1
	KindBoundedness
)

// Basic is a single predicate over numbers. Only the fields belonging to its
// Kind are meaningful; the rest stay zero so equality remains structural.
type Basic struct {
	Kind    Kind
	Divisor int
	Bounds  belief.Bounds
}

// Hypothesis is what the number game reasons about.
type Hypothesis = belief.Joined[Number, Basic]

func Divisibility(n int) Basic {
	return Basic{Kind: KindDivisibility, Divisor: n}
}

func Boundedness(lower, upper int) Basic {
	return Basic{Kind: KindBoundedness, Bounds: belief.Between(lower, upper)}
}

func AtLeast(lower int) Basic {
	return Basic{Kind: KindBoundedness, Bounds: belief.AtLeast(lower)}
}

func AtMost(upper int) Basic {
	return Basic{Kind: KindBoundedness, Bounds: belief.AtMost(upper)}
}

func (b Basic) PredictsTheProperty(n Number) bool {
	switch b.Kind {
	case KindDivisibility:
		if b.Divisor == 0 {
			return n == 0
		}
		return int(n)%b.Divisor == 0
	case KindBoundedness:
		return b.Bounds.Contains(int(n))
	default:
		panic(fmt.Sprintf("number: unknown hypothesis kind %d", b.Kind))
	}
}

func (b Basic) Description() string {
	switch b.Kind {
	case KindDivisibility:
		return fmt.Sprintf("it is divisible by %d", b.Divisor)
	case KindBoundedness:
		return b.Bounds.Describe("it")
	default:
		panic(fmt.Sprintf("number: unknown hypothesis kind %d", b.Kind))
	}
}

// Obviates keeps two hypotheses of the same kind from being joined: a
// conjunction of divisibilities is another divisibility, and two ranges
// combine into a range or a gap the space already covers poorly.
func (b Basic) Obviates(other Basic) bool {
	return b.Kind == other.Kind
}

// StandardBasics lists the divisibility and range hypotheses of the game
// played up to bound: divisors n with 2n < bound, so 1..14 for bound 30,
// and every range [min, max] with 2 <= min < bound and min <= max <= bound.
func StandardBasics(bound int) []Basic {
	var basics []Basic
	for divisor := 1; divisor < (bound+1)/2; divisor++ {
		basics = append(basics, Divisibility(divisor))
	}
	for lower := 2; lower < bound; lower++ {
		for upper := lower; upper <= bound; upper++ {
			basics = append(basics, Boundedness(lower, upper))
		}
	}
	return basics
}

// StandardHypotheses is the full hypothesis space of the game: every standard
// basic on its own plus the divisibility/range conjunctions and disjunctions
// whose predictions over 1..bound differ from both of their components and
// from every join listed before them.
func StandardHypotheses(bound int) []Hypothesis {
	return belief.ExtensionalJoins[Number, Basic](StandardBasics(bound), Domain{Bound: bound}.Universe())
}
