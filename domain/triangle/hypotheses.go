package triangle

import (
	"fmt"

	"mezzanine/domain/belief"
)

// Kind tags the variant held by a Basic hypothesis.
type Kind uint8

const (
	KindColorCount Kind = iota + 1
	KindSizeCount
	KindGroundednessCount
	KindPipCount
	KindPipParity
)

// Basic is a single predicate over studies. Only the fields belonging to its
// Kind are set; the rest stay zero so equality remains structural.
type Basic struct {
	Kind     Kind
	Color    Color
	Size     Size
	Grounded bool
	Bounds   belief.Bounds
	Modulus  int
	Residue  int
}

// Hypothesis is what the triangle game reasons about.
type Hypothesis = belief.Joined[Study, Basic]

func ColorCount(color Color, bounds belief.Bounds) Basic {
	return Basic{Kind: KindColorCount, Color: color, Bounds: bounds}
}

func SizeCount(size Size, bounds belief.Bounds) Basic {
	return Basic{Kind: KindSizeCount, Size: size, Bounds: bounds}
}

func GroundednessCount(grounded bool, bounds belief.Bounds) Basic {
	return Basic{Kind: KindGroundednessCount, Grounded: grounded, Bounds: bounds}
}

func PipCount(bounds belief.Bounds) Basic {
	return Basic{Kind: KindPipCount, Bounds: bounds}
}

func PipParity(modulus, residue int) Basic {
	return Basic{Kind: KindPipParity, Modulus: modulus, Residue: residue}
}

func (b Basic) PredictsTheProperty(study Study) bool {
	switch b.Kind {
	case KindColorCount:
		return b.Bounds.Contains(study.ColorCount(b.Color))
	case KindSizeCount:
		return b.Bounds.Contains(study.SizeCount(b.Size))
	case KindGroundednessCount:
		return b.Bounds.Contains(study.GroundednessCount(b.Grounded))
	case KindPipCount:
		return b.Bounds.Contains(study.PipCount())
	case KindPipParity:
		return study.PipCount()%b.Modulus == b.Residue
	default:
		panic(fmt.Sprintf("triangle: unknown hypothesis kind %d", b.Kind))
	}
}

func (b Basic) Description() string {
	switch b.Kind {
	case KindColorCount:
		return b.Bounds.Describe(fmt.Sprintf("the number of %s triangles", b.Color))
	case KindSizeCount:
		return b.Bounds.Describe(fmt.Sprintf("the number of size-%d triangles", b.Size))
	case KindGroundednessCount:
		prefix := "un"
		if b.Grounded {
			prefix = ""
		}
		return b.Bounds.Describe(fmt.Sprintf("the number of %sgrounded triangles", prefix))
	case KindPipCount:
		return b.Bounds.Describe("the number of pips")
	case KindPipParity:
		if b.Residue == 0 {
			return fmt.Sprintf("the total pip count is divisible by %d", b.Modulus)
		}
		return fmt.Sprintf("the total pip count leaves a remainder of %d when divided by %d",
			b.Residue, b.Modulus)
	default:
		panic(fmt.Sprintf("triangle: unknown hypothesis kind %d", b.Kind))
	}
}

func (b Basic) isPipHypothesis() bool {
	return b.Kind == KindPipCount || b.Kind == KindPipParity
}

// Obviates reports pairs that are not worth joining: two count bounds over
// the same dimension (same color, same size, or same groundedness), and any
// pip hypothesis together with a count bound or another pip hypothesis.
func (b Basic) Obviates(other Basic) bool {
	if b.isPipHypothesis() || other.isPipHypothesis() {
		return true
	}
	if b.Kind != other.Kind {
		return false
	}
	switch b.Kind {
	case KindColorCount:
		return b.Color == other.Color
	case KindSizeCount:
		return b.Size == other.Size
	case KindGroundednessCount:
		return b.Grounded == other.Grounded
	default:
		return false
	}
}

// StandardBasics is the hypothesis vocabulary of the triangle game.
func StandardBasics() []Basic {
	countBounds := func() []belief.Bounds {
		var bounds []belief.Bounds
		for exact := 1; exact <= 3; exact++ {
			bounds = append(bounds, belief.Exactly(exact))
		}
		for lower := 1; lower <= 3; lower++ {
			bounds = append(bounds, belief.AtLeast(lower))
		}
		for upper := 0; upper <= 2; upper++ {
			bounds = append(bounds, belief.AtMost(upper))
		}
		return bounds
	}

	var basics []Basic
	for _, color := range Colors() {
		for _, bounds := range countBounds() {
			basics = append(basics, ColorCount(color, bounds))
		}
	}
	for _, size := range Sizes() {
		for _, bounds := range countBounds() {
			basics = append(basics, SizeCount(size, bounds))
		}
	}
	for _, grounded := range []bool{true, false} {
		for lower := 1; lower <= 3; lower++ {
			basics = append(basics, GroundednessCount(grounded, belief.AtLeast(lower)))
		}
		for upper := 0; upper <= 2; upper++ {
			basics = append(basics, GroundednessCount(grounded, belief.AtMost(upper)))
		}
	}
	for _, bounds := range []belief.Bounds{belief.AtLeast(6), belief.AtLeast(12), belief.AtMost(5), belief.AtMost(11)} {
		basics = append(basics, PipCount(bounds))
	}
	for modulus := 2; modulus <= 3; modulus++ {
		basics = append(basics, PipParity(modulus, 0))
	}
	basics = append(basics, PipParity(2, 1))
	return basics
}
