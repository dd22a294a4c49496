package resize

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/hooks"
	"github.com/aretw0/easel/pkg/model"
	"github.com/aretw0/easel/pkg/ports"
)

// Hook names. The resizer registers its own behavior at hooks.Normal; a listener
// with a higher priority runs first and may change the payload or Stop the
// event to veto the step.
const (
	EventBegin      = "begin"
	EventUpdateSize = "updateSize"
	EventCommit     = "commit"
	EventCancel     = "cancel"
)

// Unit is the unit the committed width is written in.
type Unit string

const (
	UnitPixels  Unit = "px"
	UnitPercent Unit = "%"
)

// BeginArgs is the payload of the begin hook.
type BeginArgs struct {
	Element *domain.Element
	Pointer domain.Point
	Handle  domain.Handle
}

// UpdateArgs is the payload of the updateSize hook. Listeners may adjust Width
// and Height before they are applied.
type UpdateArgs struct {
	Session *Session
	Pointer domain.Point
	Width   float64
	Height  float64
}

// EndArgs is the payload of the commit and cancel hooks.
type EndArgs struct {
	Session *Session
	// Value is the attribute value a commit writes.
	Value string
}

// Resizer is the pointer-driven resize state machine for media elements.
// It is not safe for concurrent use.
type Resizer struct {
	doc        *model.Document
	projection ports.Projection
	hooks      *hooks.Registry
	lifecycle  domain.LifecycleHooks

	limits Limits
	unit   Unit
	strict bool
	logger *slog.Logger

	state     State
	session   *Session
	offDoc    func()
	lastError error
}

// Option configures a Resizer.
type Option func(*Resizer)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resizer) {
		r.logger = logger
	}
}

// WithStrict makes invalid transitions panic instead of returning
// domain.ErrInvalidStateTransition. Meant for development builds.
func WithStrict(strict bool) Option {
	return func(r *Resizer) {
		r.strict = strict
	}
}

// WithLimits bounds the candidate width.
func WithLimits(min, max float64) Option {
	return func(r *Resizer) {
		r.limits = Limits{Min: min, Max: max}
	}
}

// WithUnit sets the unit of the committed width.
func WithUnit(u Unit) Option {
	return func(r *Resizer) {
		r.unit = u
	}
}

// WithRegistry fires the resize hooks through an existing registry.
func WithRegistry(reg *hooks.Registry) Option {
	return func(r *Resizer) {
		r.hooks = reg
	}
}

// WithLifecycleHooks sets the resize lifecycle callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(r *Resizer) {
		r.lifecycle = h
	}
}

// New creates an idle resizer. A session still active when doc is destroyed is
// cancelled.
func New(doc *model.Document, projection ports.Projection, opts ...Option) *Resizer {
	r := &Resizer{
		doc:        doc,
		projection: projection,
		limits:     Limits{Min: 50},
		unit:       UnitPixels,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.hooks == nil {
		r.hooks = hooks.NewRegistry()
	}
	r.hooks.On(EventBegin, r.begin)
	r.hooks.On(EventUpdateSize, r.updateSize)
	r.hooks.On(EventCommit, r.commit)
	r.hooks.On(EventCancel, r.cancel)
	r.offDoc = doc.OnDestroy(func() { r.Destroy(context.Background()) })
	return r
}

// Hooks returns the registry the resize hooks are fired through.
func (r *Resizer) Hooks() *hooks.Registry { return r.hooks }

// State returns the current state.
func (r *Resizer) State() State { return r.state }

// Session returns a copy of the active session.
func (r *Resizer) Session() (Session, bool) {
	if r.session == nil {
		return Session{}, false
	}
	return *r.session, true
}

func (r *Resizer) invalid(op string) error {
	err := fmt.Errorf("%w: %s while %s", domain.ErrInvalidStateTransition, op, r.state)
	if r.strict {
		panic(err)
	}
	r.logger.Debug("ignored resize step", "op", op, "state", r.state.String())
	return err
}

// Begin starts resizing el from handle at pointer. Only valid while Idle.
func (r *Resizer) Begin(ctx context.Context, el *domain.Element, pointer domain.Point, handle domain.Handle) error {
	if r.state != Idle {
		return r.invalid("begin")
	}
	if !r.doc.Contains(el) {
		return fmt.Errorf("resize %s: %w", el.Name(), domain.ErrNodeDetached)
	}
	if _, ok := r.projection.Box(el, domain.PartHost); !ok {
		return fmt.Errorf("resize %s: element is not rendered", el.Name())
	}
	_, err := r.hooks.Fire(ctx, EventBegin, &BeginArgs{Element: el, Pointer: pointer, Handle: handle})
	return err
}

func (r *Resizer) begin(ctx context.Context, ev *hooks.Event) error {
	args := ev.Data.(*BeginArgs)
	el := args.Element
	box, _ := r.projection.Box(el, domain.PartHost)

	s := &Session{
		Element:      el,
		Handle:       args.Handle,
		StartBox:     box,
		AspectRatio:  box.AspectRatio(),
		PointerStart: args.Pointer,
		Centered:     el.IsCentered(),
		Width:        box.Width,
		Height:       box.Height,
	}
	s.prevWidth.value, s.prevWidth.set = r.projection.Style(el, domain.PartHost, "width")
	s.prevHeight.value, s.prevHeight.set = r.projection.Style(el, domain.PartHost, "height")
	if !r.projection.HasClass(el, domain.PartWrapper, domain.ClassResized) {
		r.projection.AddClass(el, domain.PartWrapper, domain.ClassResized)
		s.ClassAdded = true
	}

	r.session = s
	r.state = Active
	r.logger.Debug("resize started", "element", el.Name(), "handle", string(args.Handle), "width", box.Width, "height", box.Height)
	if r.lifecycle.OnResizeBegin != nil {
		r.lifecycle.OnResizeBegin(ctx, domain.NewResizeEvent(domain.EventResizeBegin, el, box.Width, box.Height))
	}
	return nil
}

// Update moves the pointer. The new size is applied to the projection only.
// Only valid while Active.
func (r *Resizer) Update(ctx context.Context, pointer domain.Point) error {
	if r.state != Active {
		return r.invalid("update")
	}
	w, h := r.session.Candidate(pointer, r.limitsFor(r.session.Element))
	_, err := r.hooks.Fire(ctx, EventUpdateSize, &UpdateArgs{Session: r.session, Pointer: pointer, Width: w, Height: h})
	return err
}

func (r *Resizer) limitsFor(el *domain.Element) Limits {
	l := r.limits
	if c, ok := r.projection.Container(el); ok && c.Width > 0 && (l.Max == 0 || c.Width < l.Max) {
		l.Max = c.Width
	}
	return l
}

func (r *Resizer) updateSize(_ context.Context, ev *hooks.Event) error {
	args := ev.Data.(*UpdateArgs)
	s := args.Session
	s.Width, s.Height = args.Width, args.Height
	if !r.doc.Contains(s.Element) {
		return nil
	}
	r.projection.SetStyle(s.Element, domain.PartHost, "width", formatPx(s.Width))
	r.projection.SetStyle(s.Element, domain.PartHost, "height", formatPx(s.Height))
	return nil
}

// Commit writes the last candidate width into the document in batch "resize"
// and ends the session. If the batch fails, or a listener fails before the
// write, the session is cancelled and the error returned. Only valid while
// Active.
func (r *Resizer) Commit(ctx context.Context) error {
	if r.state != Active {
		return r.invalid("commit")
	}
	r.state = Committing
	r.lastError = nil
	// The session must end even when the caller has gone away.
	ev, err := r.hooks.Fire(context.WithoutCancel(ctx), EventCommit, &EndArgs{Session: r.session, Value: r.format(r.session)})
	switch {
	case err != nil:
		if r.state == Committing {
			r.logger.Warn("resize commit aborted", "element", r.session.Element.Name(), "err", err)
			r.rollback(ctx, r.session)
		}
		return err
	case r.state == Committing && ev.Stopped():
		// Vetoed before the default ran: the drag goes on.
		r.state = Active
		return nil
	}
	return r.lastError
}

func (r *Resizer) commit(ctx context.Context, ev *hooks.Event) error {
	args := ev.Data.(*EndArgs)
	s := args.Session
	if r.state != Committing || r.session != s {
		// Ended by a listener, for example a destroyed document.
		return nil
	}

	if r.doc.Contains(s.Element) {
		r.restoreHost(s)
	}
	err := r.doc.Change("resize", func(w *model.Writer) error {
		return w.SetAttribute(s.Element, domain.AttrWidth, args.Value)
	})
	if err != nil {
		r.logger.Warn("resize commit failed", "element", s.Element.Name(), "err", err)
		r.lastError = fmt.Errorf("resize commit: %w", err)
		r.rollback(ctx, s)
		return nil
	}

	r.end()
	r.logger.Debug("resize committed", "element", s.Element.Name(), "width", args.Value)
	if r.lifecycle.OnResizeCommit != nil {
		r.lifecycle.OnResizeCommit(ctx, domain.NewResizeEvent(domain.EventResizeCommit, s.Element, s.Width, s.Height))
	}
	return nil
}

// Cancel ends the session without touching the document and restores the
// projection as it was before Begin. Only valid while Active.
func (r *Resizer) Cancel(ctx context.Context) error {
	if r.state != Active {
		return r.invalid("cancel")
	}
	r.state = Cancelling
	ev, err := r.hooks.Fire(context.WithoutCancel(ctx), EventCancel, &EndArgs{Session: r.session})
	switch {
	case err != nil:
		if r.state == Cancelling {
			r.rollback(ctx, r.session)
		}
	case r.state == Cancelling && ev.Stopped():
		r.state = Active
	}
	return err
}

func (r *Resizer) cancel(ctx context.Context, ev *hooks.Event) error {
	if s := ev.Data.(*EndArgs).Session; r.state == Cancelling && r.session == s {
		r.rollback(ctx, s)
	}
	return nil
}

// rollback restores the projection found at Begin and ends the session.
func (r *Resizer) rollback(ctx context.Context, s *Session) {
	if r.doc.Contains(s.Element) {
		r.restoreHost(s)
	}
	if s.ClassAdded {
		r.projection.RemoveClass(s.Element, domain.PartWrapper, domain.ClassResized)
	}
	r.end()
	r.logger.Debug("resize cancelled", "element", s.Element.Name())
	if r.lifecycle.OnResizeCancel != nil {
		r.lifecycle.OnResizeCancel(ctx, domain.NewResizeEvent(domain.EventResizeCancel, s.Element, s.StartBox.Width, s.StartBox.Height))
	}
}

// Destroy ends any open session and detaches from the document.
func (r *Resizer) Destroy(ctx context.Context) {
	if r.state == Active {
		if err := r.Cancel(ctx); err != nil {
			r.logger.Warn("resize cancel on destroy failed", "err", err)
		}
	}
	if r.state != Idle && r.session != nil {
		r.rollback(ctx, r.session)
	}
	if r.offDoc != nil {
		r.offDoc()
		r.offDoc = nil
	}
}

func (r *Resizer) end() {
	r.session = nil
	r.state = Idle
}

// restoreHost puts back the host size styles the session found at Begin.
func (r *Resizer) restoreHost(s *Session) {
	for key, prev := range map[string]style{"width": s.prevWidth, "height": s.prevHeight} {
		if prev.set {
			r.projection.SetStyle(s.Element, domain.PartHost, key, prev.value)
		} else {
			r.projection.RemoveStyle(s.Element, domain.PartHost, key)
		}
	}
}

func (r *Resizer) format(s *Session) string {
	if r.unit == UnitPercent {
		if c, ok := r.projection.Container(s.Element); ok && c.Width > 0 {
			return strconv.FormatFloat(round2(s.Width/c.Width*100), 'f', -1, 64) + "%"
		}
	}
	return formatPx(s.Width)
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
