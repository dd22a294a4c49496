package domain

// Point is a pointer location in rendered coordinates.
type Point struct {
	X, Y float64
}

// Box is a rendered bounding box.
type Box struct {
	X, Y          float64
	Width, Height float64
}

// AspectRatio returns Width/Height, or 0 when the box has no height.
func (b Box) AspectRatio() float64 {
	if b.Height == 0 {
		return 0
	}
	return b.Width / b.Height
}

// Handle identifies the corner a resize drag started from.
type Handle string

const (
	HandleTopLeft     Handle = "top-left"
	HandleTopRight    Handle = "top-right"
	HandleBottomLeft  Handle = "bottom-left"
	HandleBottomRight Handle = "bottom-right"
)

// IsLeft reports whether dragging the handle to the left grows the element.
func (h Handle) IsLeft() bool {
	return h == HandleTopLeft || h == HandleBottomLeft
}

// Part selects a piece of the rendered structure of a media element.
type Part string

const (
	// PartWrapper is the outer rendered element (the figure) that carries classes.
	PartWrapper Part = "wrapper"
	// PartHost is the inner rendered element (the img) that carries the size.
	PartHost Part = "host"
)
