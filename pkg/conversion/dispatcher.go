// Package conversion turns committed document batches into named events so the
// rendered view can follow the model without the model knowing about it.
//
// Event names follow the pattern
//
//	insert:<element>
//	remove:<element>
//	attribute:<key>:<element>
//
// and are fired through a hooks.Registry, so a listener for "attribute:width"
// receives width changes of every element.
package conversion

import (
	"context"
	"log/slog"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/hooks"
	"github.com/aretw0/easel/pkg/model"
)

// Event is the payload of a conversion event.
type Event struct {
	Type     model.ChangeType
	Element  *domain.Element
	Key      string
	OldValue any
	// NewValue is nil when the attribute was removed.
	NewValue any
	Batch    *model.Batch
}

// Handler reacts to a conversion event.
type Handler func(ctx context.Context, ev *Event) error

// EventName returns the event name for a change.
func EventName(c model.Change) string {
	switch c.Type {
	case model.ChangeAttribute:
		return "attribute:" + c.Key + ":" + c.Element.Name()
	default:
		return string(c.Type) + ":" + c.Element.Name()
	}
}

// Dispatcher listens to a document and fires one event per relevant change of
// every committed batch.
type Dispatcher struct {
	doc      *model.Document
	registry *hooks.Registry
	logger   *slog.Logger
	off      func()
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithRegistry fires events through an existing registry.
func WithRegistry(r *hooks.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = r
	}
}

// NewDispatcher subscribes to doc. Close releases the subscription.
func NewDispatcher(doc *model.Document, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		doc:      doc,
		registry: hooks.NewRegistry(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.off = doc.Subscribe(d.dispatch)
	return d
}

// On registers a handler for an event name or namespace.
func (d *Dispatcher) On(name string, fn Handler, opts ...hooks.ListenOption) func() {
	return d.registry.On(name, func(ctx context.Context, ev *hooks.Event) error {
		return fn(ctx, ev.Data.(*Event))
	}, opts...)
}

// Registry returns the registry events are fired through.
func (d *Dispatcher) Registry() *hooks.Registry { return d.registry }

// Close stops listening to the document.
func (d *Dispatcher) Close() {
	if d.off != nil {
		d.off()
		d.off = nil
	}
}

func (d *Dispatcher) dispatch(b *model.Batch) {
	ctx := context.Background()
	for _, c := range b.Changes {
		switch c.Type {
		case model.ChangeInsert:
			if !d.doc.Contains(c.Element) {
				continue
			}
			// Inserted subtrees are announced element by element, parents first.
			c.Element.Walk(func(el *domain.Element) bool {
				d.fire(ctx, "insert:"+el.Name(), &Event{Type: model.ChangeInsert, Element: el, Batch: b})
				return true
			})
		case model.ChangeRemove:
			d.fire(ctx, EventName(c), &Event{Type: model.ChangeRemove, Element: c.Element, Batch: b})
		case model.ChangeAttribute:
			if !d.doc.Contains(c.Element) {
				continue
			}
			d.fire(ctx, EventName(c), &Event{
				Type:     model.ChangeAttribute,
				Element:  c.Element,
				Key:      c.Key,
				OldValue: c.OldValue,
				NewValue: c.NewValue,
				Batch:    b,
			})
		}
	}
}

func (d *Dispatcher) fire(ctx context.Context, name string, ev *Event) {
	if _, err := d.registry.Fire(ctx, name, ev); err != nil {
		d.logger.Error("conversion handler failed", "event", name, "batch", ev.Batch.Name, "err", err)
	}
}
