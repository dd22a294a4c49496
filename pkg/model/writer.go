package model

import (
	"fmt"
	"reflect"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/schema"
)

// Writer applies schema-checked mutations to a document. It is only valid inside
// the Change call that produced it.
type Writer struct {
	doc   *Document
	batch *Batch
}

// Batch returns the batch the writer records into.
func (w *Writer) Batch() *Batch { return w.batch }

// Document returns the document being changed.
func (w *Writer) Document() *Document { return w.doc }

func (w *Writer) active() error {
	if w.doc.current != w.batch {
		return domain.ErrNoBatch
	}
	return nil
}

func (w *Writer) attached(el *domain.Element) error {
	if !w.doc.Contains(el) {
		return fmt.Errorf("%w: %s", domain.ErrNodeDetached, el.Name())
	}
	return nil
}

// InsertElement creates an element named name at pos. The schema must allow the
// element, with its attributes, in the position's context.
func (w *Writer) InsertElement(name string, attrs map[string]any, pos domain.Position) (*domain.Element, error) {
	if err := w.active(); err != nil {
		return nil, err
	}
	if !pos.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPosition, pos)
	}
	if err := w.attached(pos.Parent); err != nil {
		return nil, err
	}
	if !w.doc.schema.Check(schema.ContextOf(pos.Parent), name, attrs) {
		return nil, fmt.Errorf("%w: %s is not allowed in %s", domain.ErrSchemaViolation, name, pos.Parent.Name())
	}
	el := domain.NewElement(name, attrs)
	if err := pos.Parent.InsertAt(pos.Offset, el); err != nil {
		return nil, err
	}
	w.record(Change{Type: ChangeInsert, Element: el, Position: pos})
	w.doc.shiftSelection(func(p domain.Position) domain.Position {
		if p.Parent == pos.Parent && p.Offset > pos.Offset {
			p.Offset++
		}
		return p
	})
	return el, nil
}

// SetAttribute sets key on el. Setting the current value is a no-op.
func (w *Writer) SetAttribute(el *domain.Element, key string, value any) error {
	if err := w.active(); err != nil {
		return err
	}
	if err := w.attached(el); err != nil {
		return err
	}
	if !w.doc.schema.CheckAttribute(schema.ContextOf(el), key) {
		return fmt.Errorf("%w: attribute %q is not allowed on %s", domain.ErrSchemaViolation, key, el.Name())
	}
	if err := w.doc.schema.ValidateValues(el.Name(), map[string]any{key: value}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err)
	}
	old, _ := el.Attribute(key)
	if reflect.DeepEqual(old, value) {
		return nil
	}
	el.SetAttribute(key, value)
	w.record(Change{Type: ChangeAttribute, Element: el, Key: key, OldValue: old, NewValue: value})
	return nil
}

// RemoveAttribute deletes key from el. Removing an absent key is a no-op.
func (w *Writer) RemoveAttribute(el *domain.Element, key string) error {
	if err := w.active(); err != nil {
		return err
	}
	if err := w.attached(el); err != nil {
		return err
	}
	old, ok := el.Attribute(key)
	if !ok {
		return nil
	}
	el.RemoveAttribute(key)
	w.record(Change{Type: ChangeAttribute, Element: el, Key: key, OldValue: old})
	return nil
}

// Remove detaches el from the tree. Selection ends inside el move to where it was.
func (w *Writer) Remove(el *domain.Element) error {
	if err := w.active(); err != nil {
		return err
	}
	if err := w.attached(el); err != nil {
		return err
	}
	parent := el.Parent()
	if parent == nil {
		return fmt.Errorf("%w: cannot remove the root", domain.ErrInvalidPosition)
	}
	offset, err := parent.RemoveChild(el)
	if err != nil {
		return err
	}
	pos := domain.PositionAt(parent, offset)
	w.record(Change{Type: ChangeRemove, Element: el, Position: pos})
	w.doc.shiftSelection(func(p domain.Position) domain.Position {
		switch {
		case p.Parent.IsDescendantOf(el):
			return pos
		case p.Parent == parent && p.Offset > offset:
			p.Offset--
		}
		return p
	})
	return nil
}

// SetSelection moves the selection. Both ends must be valid positions in the
// document.
func (w *Writer) SetSelection(sel domain.Selection) error {
	if err := w.active(); err != nil {
		return err
	}
	for _, p := range []domain.Position{sel.Anchor, sel.Focus} {
		if !p.IsValid() {
			return fmt.Errorf("%w: %s", domain.ErrInvalidPosition, p)
		}
		if err := w.attached(p.Parent); err != nil {
			return err
		}
	}
	w.doc.selection = sel
	return nil
}

// OnRollback registers fn to run if the batch is rolled back, after the tree
// and selection are restored. Callbacks run in reverse registration order.
func (w *Writer) OnRollback(fn func()) {
	w.batch.onRollback = append(w.batch.onRollback, fn)
}

func (w *Writer) record(c Change) {
	w.batch.Changes = append(w.batch.Changes, c)
}

func (d *Document) shiftSelection(fn func(domain.Position) domain.Position) {
	d.selection = domain.Selection{Anchor: fn(d.selection.Anchor), Focus: fn(d.selection.Focus)}
}
