package resize

import (
	"math"

	"github.com/aretw0/easel/pkg/domain"
)

// State is the resizer state.
type State int

const (
	Idle State = iota
	Active
	Committing
	Cancelling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Committing:
		return "committing"
	case Cancelling:
		return "cancelling"
	}
	return "unknown"
}

// Session holds everything one drag needs. It exists between Begin and the end
// of Commit or Cancel.
type Session struct {
	Element      *domain.Element
	Handle       domain.Handle
	StartBox     domain.Box
	AspectRatio  float64
	PointerStart domain.Point
	Centered     bool
	// ClassAdded records that this session added the resized class, so only
	// this session removes it again.
	ClassAdded bool

	// Width and Height are the last candidate size.
	Width  float64
	Height float64

	prevWidth  style
	prevHeight style
}

type style struct {
	value string
	set   bool
}

// Limits bound candidate widths. A zero Max means unbounded.
type Limits struct {
	Min float64
	Max float64
}

// Candidate returns the size for pointer, clamped to limits and rounded to two
// decimals. The height follows the session aspect ratio.
func (s *Session) Candidate(pointer domain.Point, limits Limits) (width, height float64) {
	dx := pointer.X - s.PointerStart.X
	if s.Handle.IsLeft() {
		dx = -dx
	}
	if s.Centered {
		dx *= 2
	}

	width = s.StartBox.Width + dx
	if limits.Max > 0 && width > limits.Max {
		width = limits.Max
	}
	if width < limits.Min {
		width = limits.Min
	}
	width = round2(width)
	if s.AspectRatio > 0 {
		height = round2(width / s.AspectRatio)
	}
	return width, height
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
