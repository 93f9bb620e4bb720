// Package number is the classic game domain: the subject is a natural number
// no greater than a bound and hypotheses talk about divisibility and ranges.
package number

import (
	"math/rand"
	"strconv"
)

// Number is a subject of the number game.
type Number int

func (n Number) String() string {
	return strconv.Itoa(int(n))
}

// Domain is the set of numbers 1..Bound.
type Domain struct {
	Bound int
}

// Universe enumerates 1..Bound in ascending order.
func (d Domain) Universe() []Number {
	numbers := make([]Number, 0, d.Bound)
	for n := 1; n <= d.Bound; n++ {
		numbers = append(numbers, Number(n))
	}
	return numbers
}

// Sample draws a number uniformly from 1..Bound.
func (d Domain) Sample(rng *rand.Rand) Number {
	return Number(1 + rng.Intn(d.Bound))
}
