// Package triangle is the "triangle science" domain: a subject is a study,
// a row of stacks of colored triangles of three sizes, and hypotheses talk
// about how many triangles of a kind it contains and how many pips (size
// units) it holds in total.
package triangle

import (
	"fmt"
	"math/rand"
	"strings"
)

// Color of a triangle.
type Color uint8

const (
	Red Color = iota
	Blue
	Green
	Yellow
)

var colorNames = [...]string{Red: "red", Blue: "blue", Green: "green", Yellow: "yellow"}

// Colors lists every color in declaration order.
func Colors() []Color { return []Color{Red, Blue, Green, Yellow} }

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("Color(%d)", uint8(c))
}

func (c Color) MarshalText() ([]byte, error) {
	if int(c) >= len(colorNames) {
		return nil, fmt.Errorf("triangle: invalid color %d", uint8(c))
	}
	return []byte(colorNames[c]), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	for i, name := range colorNames {
		if name == string(text) {
			*c = Color(i)
			return nil
		}
	}
	return fmt.Errorf("triangle: unknown color %q", text)
}

// Size of a triangle. Its numeric value is its pip count.
type Size uint8

const (
	One Size = iota + 1
	Two
	Three
)

// Sizes lists every size from smallest to largest.
func Sizes() []Size { return []Size{One, Two, Three} }

func (s Size) Pips() int { return int(s) }

func (s Size) String() string { return fmt.Sprintf("%d", uint8(s)) }

// Triangle is one piece of a study.
type Triangle struct {
	Color Color `json:"color"`
	Size  Size  `json:"size"`
}

func (t Triangle) String() string {
	return fmt.Sprintf("%s-%d", t.Color, t.Size)
}

// Stack is a pile of triangles listed from the bottom up. The bottom
// triangle is the grounded one.
type Stack []Triangle

// Study is a row of stacks, the subject of the triangle game. Studies are
// read-only once built.
type Study struct {
	Stacks []Stack `json:"stacks"`
}

func NewStudy(stacks ...Stack) Study {
	return Study{Stacks: stacks}
}

// Triangles returns every triangle, stack by stack, bottom up.
func (s Study) Triangles() []Triangle {
	var all []Triangle
	for _, stack := range s.Stacks {
		all = append(all, stack...)
	}
	return all
}

func (s Study) Len() int {
	n := 0
	for _, stack := range s.Stacks {
		n += len(stack)
	}
	return n
}

func (s Study) ColorCount(color Color) int {
	n := 0
	for _, t := range s.Triangles() {
		if t.Color == color {
			n++
		}
	}
	return n
}

func (s Study) SizeCount(size Size) int {
	n := 0
	for _, t := range s.Triangles() {
		if t.Size == size {
			n++
		}
	}
	return n
}

// GroundednessCount counts triangles resting on the ground (grounded) or on
// another triangle (not grounded).
func (s Study) GroundednessCount(grounded bool) int {
	n := 0
	for _, stack := range s.Stacks {
		for i := range stack {
			if (i == 0) == grounded {
				n++
			}
		}
	}
	return n
}

// PipCount is the total size of every triangle in the study.
func (s Study) PipCount() int {
	pips := 0
	for _, t := range s.Triangles() {
		pips += t.Size.Pips()
	}
	return pips
}

// String renders the study on one line, one bracketed stack at a time.
func (s Study) String() string {
	parts := make([]string, 0, len(s.Stacks))
	for _, stack := range s.Stacks {
		pieces := make([]string, 0, len(stack))
		for _, t := range stack {
			pieces = append(pieces, t.String())
		}
		parts = append(parts, "["+strings.Join(pieces, " ")+"]")
	}
	return strings.Join(parts, " ")
}

// Domain describes how random studies are drawn.
type Domain struct {
	MaxStacks int
	MaxHeight int
}

// DefaultDomain draws up to three stacks of up to three triangles.
func DefaultDomain() Domain {
	return Domain{MaxStacks: 3, MaxHeight: 3}
}

// Sample draws a study with 1..MaxStacks stacks, each 0..MaxHeight tall,
// with colors and sizes chosen uniformly.
func (d Domain) Sample(rng *rand.Rand) Study {
	colors, sizes := Colors(), Sizes()
	stacks := make([]Stack, 1+rng.Intn(d.MaxStacks))
	for i := range stacks {
		height := rng.Intn(d.MaxHeight + 1)
		stack := make(Stack, 0, height)
		for j := 0; j < height; j++ {
			stack = append(stack, Triangle{
				Color: colors[rng.Intn(len(colors))],
				Size:  sizes[rng.Intn(len(sizes))],
			})
		}
		stacks[i] = stack
	}
	return Study{Stacks: stacks}
}
