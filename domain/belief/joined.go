package belief

import (
	"fmt"
	"math/rand"
)

// Connective says how a joined hypothesis combines its two halves.
type Connective uint8

const (
	FullStop Connective = iota
	And
	Or
)

func (c Connective) String() string {
	switch c {
	case FullStop:
		return "full stop"
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return fmt.Sprintf("Connective(%d)", uint8(c))
	}
}

// Joined is a depth-one composite of basic hypotheses: the proposition alone
// (FullStop), or the proposition combined with the remainder by And or Or.
// For FullStop joins the remainder is the zero value of B and is ignored.
type Joined[S any, B Basic[S, B]] struct {
	Proposition B
	Connective  Connective
	Remainder   B
}

func Single[S any, B Basic[S, B]](proposition B) Joined[S, B] {
	return Joined[S, B]{Proposition: proposition, Connective: FullStop}
}

func Conjunction[S any, B Basic[S, B]](proposition, remainder B) Joined[S, B] {
	return Joined[S, B]{Proposition: proposition, Connective: And, Remainder: remainder}
}

func Disjunction[S any, B Basic[S, B]](proposition, remainder B) Joined[S, B] {
	return Joined[S, B]{Proposition: proposition, Connective: Or, Remainder: remainder}
}

func (j Joined[S, B]) PredictsTheProperty(subject S) bool {
	switch j.Connective {
	case And:
		return j.Proposition.PredictsTheProperty(subject) &&
			j.Remainder.PredictsTheProperty(subject)
	case Or:
		return j.Proposition.PredictsTheProperty(subject) ||
			j.Remainder.PredictsTheProperty(subject)
	default:
		return j.Proposition.PredictsTheProperty(subject)
	}
}

func (j Joined[S, B]) Description() string {
	switch j.Connective {
	case And, Or:
		return fmt.Sprintf("%s %s %s",
			j.Proposition.Description(), j.Connective, j.Remainder.Description())
	default:
		return j.Proposition.Description()
	}
}

// IsJoin reports whether the hypothesis combines two basics.
func (j Joined[S, B]) IsJoin() bool {
	return j.Connective == And || j.Connective == Or
}

// CheckSubstantiality samples up to sampleCap subjects and reports whether at
// least one of them has the property according to j and at least one does not.
//
// This is a Monte-Carlo test: a hypothesis that is false (or true) on only a
// sliver of the subject domain can be misjudged as contradictory (or
// tautological) and rejected, and with a small cap a substantial hypothesis
// can be rejected too. It never accepts a hypothesis that is tautological or
// contradictory over the whole domain.
func (j Joined[S, B]) CheckSubstantiality(sampler Sampler[S], rng *rand.Rand, sampleCap int) bool {
	seenTrue, seenFalse := false, false
	for i := 0; i < sampleCap; i++ {
		if j.PredictsTheProperty(sampler.Sample(rng)) {
			seenTrue = true
		} else {
			seenFalse = true
		}
		if seenTrue && seenFalse {
			return true
		}
	}
	return false
}

// obviated reports whether a and b must never be joined. The relation is
// checked in both orders so a one-sided Obviates implementation still keeps
// the pair out.
func obviated[S any, B Basic[S, B]](a, b B) bool {
	return a.Obviates(b) || b.Obviates(a)
}
