package hooks

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Priority orders handlers of the same event; higher runs first.
type Priority int

const (
	Lowest  Priority = -100000
	Low     Priority = -1000
	Normal  Priority = 0
	High    Priority = 1000
	Highest Priority = 100000
)

// ParsePriority maps a priority name to its value.
func ParsePriority(name string) (Priority, error) {
	switch strings.ToLower(name) {
	case "lowest":
		return Lowest, nil
	case "low":
		return Low, nil
	case "", "normal":
		return Normal, nil
	case "high":
		return High, nil
	case "highest":
		return Highest, nil
	}
	return Normal, fmt.Errorf("unknown priority: %s", name)
}

// Event is passed to every handler of a single Fire call.
type Event struct {
	Name string
	// Data is the event payload. Handlers may modify it for later handlers.
	Data any

	stopped bool
}

// Stop prevents lower priority handlers from running.
func (e *Event) Stop() { e.stopped = true }

// Stopped reports whether a handler called Stop.
func (e *Event) Stopped() bool { return e.stopped }

// Handler reacts to an event. Returning an error stops the event and is
// returned by Fire.
type Handler func(ctx context.Context, ev *Event) error

type entry struct {
	id       int
	name     string
	priority Priority
	fn       Handler
}

// Registry manages event handlers.
//
// Event names are namespaced with ":". A handler registered for "attribute"
// receives "attribute:width" and "attribute:width:image" too.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]entry
	seq      int
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string][]entry),
	}
}

// ListenOption configures a handler registration.
type ListenOption func(*entry)

// WithPriority sets the handler priority. The default is Normal.
func WithPriority(p Priority) ListenOption {
	return func(e *entry) {
		e.priority = p
	}
}

// On registers fn for name and returns a function removing it.
func (r *Registry) On(name string, fn Handler, opts ...ListenOption) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := entry{id: r.seq, name: name, priority: Normal, fn: fn}
	for _, opt := range opts {
		opt(&e)
	}
	r.handlers[name] = append(r.handlers[name], e)

	id := e.id
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.handlers[name] = slices.DeleteFunc(r.handlers[name], func(e entry) bool { return e.id == id })
		if len(r.handlers[name]) == 0 {
			delete(r.handlers, name)
		}
	}
}

// Has reports whether any handler would receive name.
func (r *Registry) Has(name string) bool {
	return len(r.collect(name)) > 0
}

// collect returns the handlers for name and its namespaces, highest priority
// first, registration order within a priority.
func (r *Registry) collect(name string) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entry
	for ns := name; ; {
		out = append(out, r.handlers[ns]...)
		i := strings.LastIndex(ns, ":")
		if i < 0 {
			break
		}
		ns = ns[:i]
	}
	slices.SortStableFunc(out, func(a, b entry) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// Fire runs the handlers of name with data. Handlers registered or removed while
// the event runs take effect on the next Fire.
func (r *Registry) Fire(ctx context.Context, name string, data any) (*Event, error) {
	ev := &Event{Name: name, Data: data}
	for _, e := range r.collect(name) {
		if err := ctx.Err(); err != nil {
			return ev, err
		}
		if err := e.fn(ctx, ev); err != nil {
			ev.stopped = true
			return ev, fmt.Errorf("%s handler: %w", name, err)
		}
		if ev.stopped {
			break
		}
	}
	return ev, nil
}
