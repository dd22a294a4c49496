package model

import "github.com/aretw0/easel/pkg/domain"

// ChangeType identifies a primitive tree mutation.
type ChangeType string

const (
	ChangeInsert    ChangeType = "insert"
	ChangeRemove    ChangeType = "remove"
	ChangeAttribute ChangeType = "attribute"
)

// Change records one applied mutation with enough data to invert it.
type Change struct {
	Type    ChangeType
	Element *domain.Element
	// Position is where the element was inserted or removed from.
	Position domain.Position
	Key      string
	OldValue any
	NewValue any
}

// Batch groups the changes of one Document.Change call; it is the undo unit.
type Batch struct {
	Name    string
	Changes []Change
	// Transparent batches (such as loading data) are not recorded in history.
	Transparent bool

	poisoned   error
	onRollback []func()
}

// IsEmpty reports whether the batch applied nothing.
func (b *Batch) IsEmpty() bool { return len(b.Changes) == 0 }

// Inserted returns the elements inserted by the batch that are still attached
// to a parent.
func (b *Batch) Inserted() []*domain.Element {
	var out []*domain.Element
	for _, c := range b.Changes {
		if c.Type == ChangeInsert && c.Element.Parent() != nil {
			out = append(out, c.Element)
		}
	}
	return out
}

// invert undoes a single change on the raw tree.
func invert(c Change) {
	switch c.Type {
	case ChangeInsert:
		if p := c.Element.Parent(); p != nil {
			_, _ = p.RemoveChild(c.Element)
		}
	case ChangeRemove:
		_ = c.Position.Parent.InsertAt(c.Position.Offset, c.Element)
	case ChangeAttribute:
		c.Element.SetAttribute(c.Key, c.OldValue)
	}
}
