package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/beevik/etree"

	"github.com/aretw0/easel/pkg/domain"
)

const markupWrapper = "root"

// ErrMalformedMarkup is returned by Parse for markup that is not a tree.
var ErrMalformedMarkup = errors.New("malformed markup")

// Parse builds a detached root element and the selection described by markup,
// a compact XML rendering of a tree with the selection marked by brackets:
//
//	<paragraph>fo[]o</paragraph>
//	[<image uploadId="1"></image>]
//
// "[" marks the selection start and "]" its end. Without brackets the selection
// is collapsed at the start of the root. Attribute values are read as strings.
func Parse(markup string) (*domain.Element, domain.Selection, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString("<" + markupWrapper + ">" + markup + "</" + markupWrapper + ">"); err != nil {
		return nil, domain.Selection{}, fmt.Errorf("%w: %w", ErrMalformedMarkup, err)
	}
	root := domain.NewElement(domain.NameRoot, nil)
	p := &parser{}
	if err := p.fill(root, doc.Root()); err != nil {
		return nil, domain.Selection{}, err
	}
	switch {
	case p.start == nil && p.end == nil:
		return root, domain.Collapsed(domain.PositionAt(root, 0)), nil
	case p.start == nil || p.end == nil:
		return nil, domain.Selection{}, fmt.Errorf("%w: unbalanced selection brackets", ErrMalformedMarkup)
	}
	return root, domain.Range(*p.start, *p.end), nil
}

type parser struct {
	start, end *domain.Position
}

func (p *parser) fill(dst *domain.Element, src *etree.Element) error {
	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if err := p.text(dst, t.Data); err != nil {
				return err
			}
		case *etree.Element:
			attrs := make(map[string]any, len(t.Attr))
			for _, a := range t.Attr {
				key := a.Key
				if a.Space != "" {
					key = a.Space + ":" + a.Key
				}
				attrs[key] = a.Value
			}
			child := domain.NewElement(t.Tag, attrs)
			if err := dst.InsertAt(dst.MaxOffset(), child); err != nil {
				return err
			}
			if err := p.fill(child, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) text(dst *domain.Element, data string) error {
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		appendText(dst, buf.String())
		buf.Reset()
	}
	for _, r := range data {
		switch r {
		case '[', ']':
			flush()
			pos := domain.PositionAt(dst, dst.MaxOffset())
			target := &p.start
			if r == ']' {
				target = &p.end
			}
			if *target != nil {
				return fmt.Errorf("%w: duplicate %q", ErrMalformedMarkup, r)
			}
			*target = &pos
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return nil
}

func appendText(dst *domain.Element, data string) {
	if n := dst.ChildCount(); n > 0 {
		if t, ok := dst.Child(n - 1).(*domain.Text); ok {
			t.Data += data
			return
		}
	}
	_ = dst.InsertAt(dst.MaxOffset(), domain.NewText(data))
}

// Format renders root and the selection as markup.
func Format(root *domain.Element, sel domain.Selection) string {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true
	wrapper := doc.CreateElement(markupWrapper)

	f := formatter{}
	if sel.Anchor.Parent != nil && sel.Focus.Parent != nil {
		start, end := sel.Anchor, sel.Focus
		if slices.Compare(start.Path(), end.Path()) > 0 {
			start, end = end, start
		}
		if start.Equal(end) {
			f.markers = []marker{{pos: start, text: "[]"}}
		} else {
			f.markers = []marker{{pos: start, text: "["}, {pos: end, text: "]"}}
		}
	}
	f.write(wrapper, root)

	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	out = strings.TrimPrefix(out, "<"+markupWrapper+">")
	return strings.TrimSuffix(out, "</"+markupWrapper+">")
}

type marker struct {
	pos  domain.Position
	text string
}

type formatter struct {
	markers []marker
}

// at returns the markers inside el with offsets in [from, to), in offset order.
func (f formatter) at(el *domain.Element, from, to int) []marker {
	var out []marker
	for _, m := range f.markers {
		if m.pos.Parent == el && m.pos.Offset >= from && m.pos.Offset < to {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b marker) int { return cmp.Compare(a.pos.Offset, b.pos.Offset) })
	return out
}

func (f formatter) write(dst *etree.Element, src *domain.Element) {
	offset := 0
	for _, child := range src.Children() {
		size := child.Size()
		switch c := child.(type) {
		case *domain.Text:
			runes := []rune(c.Data)
			cut := 0
			for _, m := range f.at(src, offset, offset+size) {
				i := m.pos.Offset - offset
				if i > cut {
					dst.CreateText(string(runes[cut:i]))
				}
				dst.CreateText(m.text)
				cut = i
			}
			if cut < len(runes) {
				dst.CreateText(string(runes[cut:]))
			}
		case *domain.Element:
			for _, m := range f.at(src, offset, offset+1) {
				dst.CreateText(m.text)
			}
			out := dst.CreateElement(c.Name())
			for _, key := range c.AttributeKeys() {
				out.CreateAttr(key, c.StringAttribute(key))
			}
			f.write(out, c)
		}
		offset += size
	}
	for _, m := range f.at(src, offset, offset+1) {
		dst.CreateText(m.text)
	}
}

// Data renders the document and its selection as markup.
func (d *Document) Data() string {
	return Format(d.root, d.selection)
}

// SetData replaces the content and selection of the document with the ones
// described by markup. The content must satisfy the schema. Observers receive a
// transparent "load" batch that is not recorded in history.
func (d *Document) SetData(markup string) error {
	if d.current != nil {
		return fmt.Errorf("set data: a change is in progress")
	}
	loaded, sel, err := Parse(markup)
	if err != nil {
		return err
	}
	if err := d.schema.ValidateTree(loaded); err != nil {
		return err
	}
	return d.Change("load", func(w *Writer) error {
		w.batch.Transparent = true
		for d.root.ChildCount() > 0 {
			switch c := d.root.Child(0).(type) {
			case *domain.Element:
				if err := w.Remove(c); err != nil {
					return err
				}
			default:
				_, _ = d.root.RemoveChild(c)
			}
		}
		for _, child := range loaded.Children() {
			if _, err := loaded.RemoveChild(child); err != nil {
				return err
			}
			pos := domain.PositionAt(d.root, d.root.MaxOffset())
			if err := d.root.InsertAt(pos.Offset, child); err != nil {
				return err
			}
			if el, ok := child.(*domain.Element); ok {
				w.record(Change{Type: ChangeInsert, Element: el, Position: pos})
			}
		}
		remap := func(p domain.Position) domain.Position {
			if p.Parent == loaded {
				p.Parent = d.root
			}
			return p
		}
		d.selection = domain.Selection{Anchor: remap(sel.Anchor), Focus: remap(sel.Focus)}
		return nil
	})
}
