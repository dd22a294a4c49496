package model

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/schema"
)

// Observer is notified once per committed batch, after the outermost Change
// returns. It never sees a partially applied batch.
type Observer func(*Batch)

type observerEntry struct {
	id int
	fn Observer
}

// Document owns the tree and the selection. It is not safe for concurrent use;
// callers serialize access (see internal/eventloop and pkg/session).
type Document struct {
	root      *domain.Element
	schema    *schema.Schema
	selection domain.Selection

	current   *Batch
	history   []*Batch
	observers []observerEntry
	nextID    int

	destroyed bool
	onDestroy []observerEntry

	logger *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		d.logger = logger
	}
}

// New creates an empty document governed by s.
func New(s *schema.Schema, opts ...Option) *Document {
	root := domain.NewElement(domain.NameRoot, nil)
	d := &Document{
		root:      root,
		schema:    s,
		selection: domain.Collapsed(domain.PositionAt(root, 0)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the root element.
func (d *Document) Root() *domain.Element { return d.root }

// Schema returns the schema governing the document.
func (d *Document) Schema() *schema.Schema { return d.schema }

// Selection returns the current selection.
func (d *Document) Selection() domain.Selection { return d.selection }

// InBatch reports whether a Change call is in progress.
func (d *Document) InBatch() bool { return d.current != nil }

// History returns the committed, non-transparent batches, oldest first.
func (d *Document) History() []*Batch { return slices.Clone(d.history) }

// IsDestroyed reports whether Destroy was called.
func (d *Document) IsDestroyed() bool { return d.destroyed }

// Contains reports whether el is attached to this document's tree.
func (d *Document) Contains(el *domain.Element) bool {
	return el != nil && el.Root() == d.root
}

// FindByAttribute returns the first element, in document order, whose attribute
// key equals value.
func (d *Document) FindByAttribute(key string, value any) *domain.Element {
	var found *domain.Element
	d.root.Walk(func(el *domain.Element) bool {
		if v, ok := el.Attribute(key); ok && v == value {
			found = el
			return false
		}
		return true
	})
	return found
}

// Subscribe registers an observer and returns a function removing it.
func (d *Document) Subscribe(fn Observer) func() {
	d.nextID++
	id := d.nextID
	d.observers = append(d.observers, observerEntry{id: id, fn: fn})
	return func() {
		d.observers = slices.DeleteFunc(d.observers, func(e observerEntry) bool { return e.id == id })
	}
}

// OnDestroy registers a callback run by Destroy.
func (d *Document) OnDestroy(fn func()) func() {
	d.nextID++
	id := d.nextID
	d.onDestroy = append(d.onDestroy, observerEntry{id: id, fn: func(*Batch) { fn() }})
	return func() {
		d.onDestroy = slices.DeleteFunc(d.onDestroy, func(e observerEntry) bool { return e.id == id })
	}
}

// Destroy runs the destroy callbacks; later Change calls fail.
func (d *Document) Destroy() {
	if d.destroyed {
		return
	}
	callbacks := slices.Clone(d.onDestroy)
	for _, cb := range callbacks {
		cb.fn(nil)
	}
	d.destroyed = true
	d.observers = nil
	d.onDestroy = nil
}

// Change runs fn inside a batch named name. A Change issued while another one is
// running joins the enclosing batch. If fn (or any nested fn) returns an error,
// every change of the batch is reverted, the selection is restored and the
// observers are not notified.
func (d *Document) Change(name string, fn func(w *Writer) error) (err error) {
	if d.destroyed {
		return fmt.Errorf("change %q: document destroyed", name)
	}
	if d.current != nil {
		batch := d.current
		if err := fn(&Writer{doc: d, batch: batch}); err != nil {
			if batch.poisoned == nil {
				batch.poisoned = fmt.Errorf("nested change %q: %w", name, err)
			}
			return err
		}
		return nil
	}

	batch := &Batch{Name: name}
	selection := d.selection
	d.current = batch

	defer func() {
		d.current = nil
		if r := recover(); r != nil {
			d.rollback(batch, selection)
			panic(r)
		}
	}()

	if err := fn(&Writer{doc: d, batch: batch}); err != nil {
		d.rollback(batch, selection)
		return err
	}
	if batch.poisoned != nil {
		d.rollback(batch, selection)
		return batch.poisoned
	}

	d.current = nil
	d.commit(batch)
	return nil
}

func (d *Document) rollback(batch *Batch, selection domain.Selection) {
	for i := len(batch.Changes) - 1; i >= 0; i-- {
		invert(batch.Changes[i])
	}
	d.logger.Debug("batch rolled back", "batch", batch.Name, "changes", len(batch.Changes))
	batch.Changes = nil
	d.selection = selection

	// Callbacks may open batches of their own.
	d.current = nil
	callbacks := batch.onRollback
	batch.onRollback = nil
	for i := len(callbacks) - 1; i >= 0; i-- {
		callbacks[i]()
	}
}

func (d *Document) commit(batch *Batch) {
	if batch.IsEmpty() {
		return
	}
	if !batch.Transparent {
		d.history = append(d.history, batch)
	}
	d.logger.Debug("batch committed", "batch", batch.Name, "changes", len(batch.Changes))
	observers := slices.Clone(d.observers)
	for _, o := range observers {
		o.fn(batch)
	}
}
