package domain

import (
	"fmt"
	"slices"
)

// Position is a location between two offsets of an element.
type Position struct {
	Parent *Element
	Offset int
}

// PositionAt creates a position inside el at offset.
func PositionAt(el *Element, offset int) Position {
	return Position{Parent: el, Offset: offset}
}

// PositionBefore returns the position right before n. n must be attached.
func PositionBefore(n Node) Position {
	p := n.Parent()
	return Position{Parent: p, Offset: p.OffsetOf(n)}
}

// PositionAfter returns the position right after n. n must be attached.
func PositionAfter(n Node) Position {
	p := n.Parent()
	return Position{Parent: p, Offset: p.OffsetOf(n) + n.Size()}
}

// IsValid reports whether the position points inside its parent's bounds.
func (p Position) IsValid() bool {
	return p.Parent != nil && p.Offset >= 0 && p.Offset <= p.Parent.MaxOffset()
}

// IsAtStart reports whether the position is at offset zero.
func (p Position) IsAtStart() bool { return p.Offset == 0 }

// IsAtEnd reports whether the position is at the end of its parent.
func (p Position) IsAtEnd() bool { return p.Offset == p.Parent.MaxOffset() }

// NodeAfter returns the element starting at the position, or nil when the
// position is followed by text or the end of the parent.
func (p Position) NodeAfter() *Element {
	el, _ := p.Parent.NodeAt(p.Offset).(*Element)
	if el == nil || p.Parent.OffsetOf(el) != p.Offset {
		return nil
	}
	return el
}

// Path is the list of offsets leading from the root to the position.
func (p Position) Path() []int {
	path := []int{p.Offset}
	for cur := p.Parent; cur.Parent() != nil; cur = cur.Parent() {
		path = append(path, cur.Parent().OffsetOf(cur))
	}
	slices.Reverse(path)
	return path
}

// Equal compares parent identity and offset.
func (p Position) Equal(other Position) bool {
	return p.Parent == other.Parent && p.Offset == other.Offset
}

func (p Position) String() string {
	if p.Parent == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s%v", p.Parent.Root().Name(), p.Path())
}

// Selection is an anchored range; Focus is the moving end.
type Selection struct {
	Anchor Position
	Focus  Position
}

// Collapsed creates a selection with both ends at p.
func Collapsed(p Position) Selection {
	return Selection{Anchor: p, Focus: p}
}

// Range creates a selection from anchor to focus.
func Range(anchor, focus Position) Selection {
	return Selection{Anchor: anchor, Focus: focus}
}

// On creates a selection spanning exactly the element el.
func On(el *Element) Selection {
	return Selection{Anchor: PositionBefore(el), Focus: PositionAfter(el)}
}

// IsCollapsed reports whether anchor and focus coincide.
func (s Selection) IsCollapsed() bool {
	return s.Anchor.Equal(s.Focus)
}

// SelectedElement returns the element when the selection spans exactly one
// element, or nil.
func (s Selection) SelectedElement() *Element {
	if s.Anchor.Parent == nil || s.Anchor.Parent != s.Focus.Parent {
		return nil
	}
	start, end := s.Anchor.Offset, s.Focus.Offset
	if start > end {
		start, end = end, start
	}
	if end-start != 1 {
		return nil
	}
	return PositionAt(s.Anchor.Parent, start).NodeAfter()
}
