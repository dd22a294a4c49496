package domain

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"
)

// Built-in item names understood by the schema.
const (
	// NameRoot is the name of the document root element.
	NameRoot = "$root"
	// NameText is the schema name of text nodes.
	NameText = "$text"
	// NameBlock is the generic block item other blocks inherit from.
	NameBlock = "$block"

	NameParagraph = "paragraph"
	NameImage     = "image"
)

// Attribute keys carried by media elements.
const (
	AttrUploadID   = "uploadId"
	AttrWidth      = "width"
	AttrImageStyle = "imageStyle"
	AttrSrc        = "src"
	AttrSrcset     = "srcset"
	AttrAlt        = "alt"
)

// StyleFull is the image style value that renders the image centered at full width.
const StyleFull = "full"

// ClassResized marks a rendered wrapper whose media carries an explicit size.
const ClassResized = "resized"

// Node is an item of the document tree: either an *Element or a *Text.
type Node interface {
	// Parent returns the element holding this node, or nil when detached.
	Parent() *Element
	// Size is the number of offsets the node occupies in its parent.
	Size() int

	setParent(*Element)
}

// Text is a run of characters inside an element.
type Text struct {
	Data   string
	parent *Element
}

// NewText creates a detached text node.
func NewText(data string) *Text {
	return &Text{Data: data}
}

func (t *Text) Parent() *Element     { return t.parent }
func (t *Text) Size() int            { return utf8.RuneCountInString(t.Data) }
func (t *Text) setParent(p *Element) { t.parent = p }

// Element is a typed node with children and attributes.
//
// The mutating methods (InsertAt, RemoveChild, SetAttribute, RemoveAttribute) are
// raw primitives: they do not consult the schema and do not record changes.
// Documents mutate elements through model.Writer inside a batch.
type Element struct {
	name     string
	attrs    map[string]any
	children []Node
	parent   *Element
}

// NewElement creates a detached element.
func NewElement(name string, attrs map[string]any, children ...Node) *Element {
	el := &Element{name: name, attrs: make(map[string]any, len(attrs))}
	maps.Copy(el.attrs, attrs)
	for _, c := range children {
		c.setParent(el)
		el.children = append(el.children, c)
	}
	return el
}

func (e *Element) Name() string         { return e.name }
func (e *Element) Parent() *Element     { return e.parent }
func (e *Element) Size() int            { return 1 }
func (e *Element) setParent(p *Element) { e.parent = p }
func (e *Element) ChildCount() int      { return len(e.children) }
func (e *Element) Child(index int) Node { return e.children[index] }
func (e *Element) IsEmpty() bool        { return len(e.children) == 0 }
func (e *Element) HasAttribute(k string) bool {
	_, ok := e.attrs[k]
	return ok
}

// Attribute returns the value stored under key.
func (e *Element) Attribute(key string) (any, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// StringAttribute returns the attribute formatted as a string, or "" when absent.
func (e *Element) StringAttribute(key string) string {
	v, ok := e.attrs[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Attributes returns a copy of the attribute map.
func (e *Element) Attributes() map[string]any {
	return maps.Clone(e.attrs)
}

// AttributeKeys returns the attribute keys in lexical order.
func (e *Element) AttributeKeys() []string {
	return slices.Sorted(maps.Keys(e.attrs))
}

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	return slices.Clone(e.children)
}

// MaxOffset is the offset of the position at the end of the element.
func (e *Element) MaxOffset() int {
	n := 0
	for _, c := range e.children {
		n += c.Size()
	}
	return n
}

// Root walks up to the topmost ancestor (the element itself when detached).
func (e *Element) Root() *Element {
	r := e
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Ancestors returns the chain from the root down to and including e.
func (e *Element) Ancestors() []*Element {
	var chain []*Element
	for cur := e; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	slices.Reverse(chain)
	return chain
}

// IsDescendantOf reports whether e is other or lies inside it.
func (e *Element) IsDescendantOf(other *Element) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Walk visits e and its descendant elements depth first until fn returns false.
func (e *Element) Walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if ce, ok := c.(*Element); ok {
			if !ce.Walk(fn) {
				return false
			}
		}
	}
	return true
}

// IndexOf returns the child index of n, or -1.
func (e *Element) IndexOf(n Node) int {
	return slices.Index(e.children, n)
}

// OffsetOf returns the start offset of the child n, or -1.
func (e *Element) OffsetOf(n Node) int {
	off := 0
	for _, c := range e.children {
		if c == n {
			return off
		}
		off += c.Size()
	}
	return -1
}

// locate maps an offset to the child index at or after it. When the offset falls
// strictly inside a text node, inText is the rune offset inside that node.
func (e *Element) locate(offset int) (index, inText int) {
	off := 0
	for i, c := range e.children {
		size := c.Size()
		if offset == off {
			return i, 0
		}
		if offset < off+size {
			return i, offset - off
		}
		off += size
	}
	return len(e.children), 0
}

// NodeAt returns the child that starts at or contains offset, or nil at the end.
func (e *Element) NodeAt(offset int) Node {
	i, _ := e.locate(offset)
	if i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// InsertAt places nodes at offset, splitting a text node when the offset falls
// inside one.
func (e *Element) InsertAt(offset int, nodes ...Node) error {
	if offset < 0 || offset > e.MaxOffset() {
		return fmt.Errorf("%w: offset %d in %s", ErrInvalidPosition, offset, e.name)
	}
	for _, n := range nodes {
		if n.Parent() != nil {
			return fmt.Errorf("%w: node already attached", ErrInvalidPosition)
		}
	}
	i, inText := e.locate(offset)
	if inText > 0 {
		t := e.children[i].(*Text)
		runes := []rune(t.Data)
		t.Data = string(runes[:inText])
		tail := &Text{Data: string(runes[inText:]), parent: e}
		e.children = slices.Insert(e.children, i+1, Node(tail))
		i++
	}
	for _, n := range nodes {
		n.setParent(e)
	}
	e.children = slices.Insert(e.children, i, nodes...)
	return nil
}

// RemoveChild detaches n and returns the offset it occupied. Adjacent text nodes
// left behind are merged.
func (e *Element) RemoveChild(n Node) (int, error) {
	idx := e.IndexOf(n)
	if idx < 0 {
		return -1, ErrNodeDetached
	}
	offset := e.OffsetOf(n)
	e.children = slices.Delete(e.children, idx, idx+1)
	n.setParent(nil)
	if idx > 0 && idx < len(e.children) {
		prev, ok1 := e.children[idx-1].(*Text)
		next, ok2 := e.children[idx].(*Text)
		if ok1 && ok2 {
			prev.Data += next.Data
			next.setParent(nil)
			e.children = slices.Delete(e.children, idx, idx+1)
		}
	}
	return offset, nil
}

// SetAttribute stores value under key; a nil value removes the key.
func (e *Element) SetAttribute(key string, value any) {
	if value == nil {
		delete(e.attrs, key)
		return
	}
	e.attrs[key] = value
}

// RemoveAttribute deletes key.
func (e *Element) RemoveAttribute(key string) {
	delete(e.attrs, key)
}

// IsCentered reports whether a media element renders centered: no style or the
// full style.
func (e *Element) IsCentered() bool {
	style := e.StringAttribute(AttrImageStyle)
	return style == "" || style == StyleFull
}
