package easel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/conversion"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/model"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/presentation"
	"github.com/aretw0/easel/pkg/resize"
	"github.com/aretw0/easel/pkg/schema"
	"github.com/aretw0/easel/pkg/upload"
)

// Editor is the high-level entry point: one document with the upload command,
// the resizer and the presentation listeners attached to it.
type Editor struct {
	doc        *model.Document
	dispatcher *conversion.Dispatcher
	widths     *presentation.WidthSync
	layout     *presentation.Layout
	uploads    *upload.Command
	resizer    *resize.Resizer

	schema     *schema.Schema
	projection ports.Projection
	registry   ports.UploadRegistry
	sink       ports.DiagnosticSink
	ledger     ports.TransferLedger
	hooks      domain.LifecycleHooks
	logger     *slog.Logger

	media      string
	accepted   []string
	size       presentation.SizeFunc
	resizeOpts []resize.Option
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithSchema replaces the default schema. The media element must be registered.
func WithSchema(s *schema.Schema) Option {
	return func(e *Editor) {
		e.schema = s
	}
}

// WithMediaElement sets the name of the media element (default "image").
func WithMediaElement(name string) Option {
	return func(e *Editor) {
		e.media = name
	}
}

// WithUploadRegistry sets the registry transfers are created on.
func WithUploadRegistry(r ports.UploadRegistry) Option {
	return func(e *Editor) {
		e.registry = r
	}
}

// WithProjection sets the rendered view the resizer and the presentation
// listeners work on.
func WithProjection(p ports.Projection) Option {
	return func(e *Editor) {
		e.projection = p
	}
}

// WithNaturalSize sets the box media elements get when the projection lays
// them out itself.
func WithNaturalSize(fn presentation.SizeFunc) Option {
	return func(e *Editor) {
		e.size = fn
	}
}

// WithDiagnosticSink sets where non-fatal upload problems are reported.
func WithDiagnosticSink(s ports.DiagnosticSink) Option {
	return func(e *Editor) {
		e.sink = s
	}
}

// WithTransferLedger records transfer progress.
func WithTransferLedger(l ports.TransferLedger) Option {
	return func(e *Editor) {
		e.ledger = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = h
	}
}

// WithAcceptedTypes restricts uploads to the given image subtypes.
func WithAcceptedTypes(types ...string) Option {
	return func(e *Editor) {
		e.accepted = types
	}
}

// WithResizeOptions passes options to the resizer.
func WithResizeOptions(opts ...resize.Option) Option {
	return func(e *Editor) {
		e.resizeOpts = append(e.resizeOpts, opts...)
	}
}

// New builds an editor. Without options it uses the default schema, an
// in-memory projection and an in-memory upload registry.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{media: domain.NameImage}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.schema == nil {
		e.schema = schema.NewDefault(e.media)
	}
	if !e.schema.IsRegistered(e.media) {
		return nil, fmt.Errorf("media element %q is not registered in the schema", e.media)
	}
	if e.projection == nil {
		e.projection = memory.NewProjection()
	}
	if e.registry == nil {
		e.registry = memory.NewRegistry()
	}
	if e.sink == nil {
		e.sink = memory.NewSink(e.logger)
	}

	e.doc = model.New(e.schema, model.WithLogger(e.logger))
	e.dispatcher = conversion.NewDispatcher(e.doc, conversion.WithLogger(e.logger))
	if r, ok := e.projection.(presentation.Renderer); ok {
		e.layout = presentation.AttachLayout(e.dispatcher, r, e.size,
			presentation.WithMediaElement(e.media), presentation.WithLogger(e.logger))
	}
	e.widths = presentation.AttachWidthSync(e.dispatcher, e.projection,
		presentation.WithMediaElement(e.media), presentation.WithLogger(e.logger))

	uploadOpts := []upload.Option{
		upload.WithLogger(e.logger),
		upload.WithMediaElement(e.media),
		upload.WithDiagnosticSink(e.sink),
		upload.WithLifecycleHooks(e.hooks),
	}
	if e.ledger != nil {
		uploadOpts = append(uploadOpts, upload.WithTransferLedger(e.ledger))
	}
	if len(e.accepted) > 0 {
		uploadOpts = append(uploadOpts, upload.WithAcceptedTypes(e.accepted...))
	}
	e.uploads = upload.NewCommand(e.doc, e.registry, uploadOpts...)

	resizeOpts := append([]resize.Option{
		resize.WithLogger(e.logger),
		resize.WithLifecycleHooks(e.hooks),
	}, e.resizeOpts...)
	e.resizer = resize.New(e.doc, e.projection, resizeOpts...)

	return e, nil
}

func (e *Editor) Document() *model.Document            { return e.doc }
func (e *Editor) Schema() *schema.Schema               { return e.schema }
func (e *Editor) Projection() ports.Projection         { return e.projection }
func (e *Editor) Registry() ports.UploadRegistry       { return e.registry }
func (e *Editor) Dispatcher() *conversion.Dispatcher   { return e.dispatcher }
func (e *Editor) Uploads() *upload.Command             { return e.uploads }
func (e *Editor) Resizer() *resize.Resizer             { return e.resizer }
func (e *Editor) DiagnosticSink() ports.DiagnosticSink { return e.sink }
func (e *Editor) MediaElement() string                 { return e.media }

// SetData loads markup, for example `<paragraph>fo[]o</paragraph>`.
func (e *Editor) SetData(markup string) error {
	return e.doc.SetData(markup)
}

// Data renders the document and its selection as markup.
func (e *Editor) Data() string {
	return e.doc.Data()
}

// Select moves the selection.
func (e *Editor) Select(sel domain.Selection) error {
	return e.doc.Change("selection", func(w *model.Writer) error {
		return w.SetSelection(sel)
	})
}

// SelectPath collapses the selection at the position reached by following
// path from the root: every entry but the last is a child index, the last is
// an offset.
func (e *Editor) SelectPath(path ...int) error {
	pos, err := e.PositionAt(path...)
	if err != nil {
		return err
	}
	return e.Select(domain.Collapsed(pos))
}

// PositionAt resolves a path as described by SelectPath.
func (e *Editor) PositionAt(path ...int) (domain.Position, error) {
	if len(path) == 0 {
		return domain.Position{}, fmt.Errorf("empty path: %w", domain.ErrInvalidPosition)
	}
	parent := e.doc.Root()
	for _, i := range path[:len(path)-1] {
		if i < 0 || i >= parent.ChildCount() {
			return domain.Position{}, fmt.Errorf("child %d of %s: %w", i, parent.Name(), domain.ErrInvalidPosition)
		}
		el, ok := parent.Child(i).(*domain.Element)
		if !ok {
			return domain.Position{}, fmt.Errorf("child %d of %s is text: %w", i, parent.Name(), domain.ErrInvalidPosition)
		}
		parent = el
	}
	pos := domain.PositionAt(parent, path[len(path)-1])
	if !pos.IsValid() {
		return domain.Position{}, fmt.Errorf("offset %d in %s: %w", pos.Offset, parent.Name(), domain.ErrInvalidPosition)
	}
	return pos, nil
}

// ElementAt returns the element reached by following child indexes from the root.
func (e *Editor) ElementAt(path ...int) (*domain.Element, error) {
	el := e.doc.Root()
	for _, i := range path {
		if i < 0 || i >= el.ChildCount() {
			return nil, fmt.Errorf("child %d of %s: %w", i, el.Name(), domain.ErrInvalidPosition)
		}
		child, ok := el.Child(i).(*domain.Element)
		if !ok {
			return nil, fmt.Errorf("child %d of %s is text: %w", i, el.Name(), domain.ErrInvalidPosition)
		}
		el = child
	}
	return el, nil
}

// MediaElements returns the media elements of the document in document order.
func (e *Editor) MediaElements() []*domain.Element {
	var out []*domain.Element
	e.doc.Root().Walk(func(el *domain.Element) bool {
		if el.Name() == e.media {
			out = append(out, el)
		}
		return true
	})
	return out
}

// CanUpload reports whether an upload would be inserted at the selection.
func (e *Editor) CanUpload() bool {
	return e.uploads.IsEnabled()
}

// Upload runs the upload command for files.
func (e *Editor) Upload(ctx context.Context, files ...ports.File) upload.Result {
	return e.uploads.Execute(ctx, files...)
}

// Resize runs a whole resize interaction on el: begin at from, one update at
// to, then commit.
func (e *Editor) Resize(ctx context.Context, el *domain.Element, handle domain.Handle, from, to domain.Point) error {
	if err := e.resizer.Begin(ctx, el, from, handle); err != nil {
		return err
	}
	if err := e.resizer.Update(ctx, to); err != nil {
		_ = e.resizer.Cancel(ctx)
		return err
	}
	return e.resizer.Commit(ctx)
}

// AcceptedTypes returns the configured upload types, or nil when unrestricted.
func (e *Editor) AcceptedTypes() []string {
	return slices.Clone(e.accepted)
}

// Close destroys the document. An active resize session is cancelled.
func (e *Editor) Close(ctx context.Context) {
	e.resizer.Destroy(ctx)
	e.doc.Destroy()
	e.widths.Detach()
	if e.layout != nil {
		e.layout.Detach()
	}
	e.dispatcher.Close()
}
