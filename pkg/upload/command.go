package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/model"
	"github.com/aretw0/easel/pkg/ports"
)

// Skip explains why a file produced no element.
type Skip struct {
	File   ports.File
	Reason error
}

// Result summarizes one Execute call.
type Result struct {
	Inserted    []*domain.Element
	Transfers   []ports.Transfer
	Skipped     []Skip
	Diagnostics []domain.Diagnostic
}

// Command inserts one media element per file and binds each to its transfer.
type Command struct {
	doc      *model.Document
	registry ports.UploadRegistry
	resolver *Resolver
	binder   *Binder

	sink     ports.DiagnosticSink
	hooks    domain.LifecycleHooks
	ledger   ports.TransferLedger
	accepted []string
	filter   bool
	media    string
	logger   *slog.Logger
}

// Option configures a Command.
type Option func(*Command)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Command) {
		c.logger = logger
	}
}

// WithDiagnosticSink sets where transfer creation problems are reported.
func WithDiagnosticSink(sink ports.DiagnosticSink) Option {
	return func(c *Command) {
		c.sink = sink
	}
}

// WithLifecycleHooks sets the upload lifecycle callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Command) {
		c.hooks = hooks
	}
}

// WithTransferLedger records transfer snapshots in ledger.
func WithTransferLedger(ledger ports.TransferLedger) Option {
	return func(c *Command) {
		c.ledger = ledger
	}
}

// WithAcceptedTypes makes Execute drop files whose image subtype is not listed.
func WithAcceptedTypes(types ...string) Option {
	return func(c *Command) {
		c.filter = true
		c.accepted = types
	}
}

// WithMediaElement sets the name of the inserted element. The default is "image".
func WithMediaElement(name string) Option {
	return func(c *Command) {
		c.media = name
	}
}

// NewCommand creates an upload command for doc.
func NewCommand(doc *model.Document, registry ports.UploadRegistry, opts ...Option) *Command {
	c := &Command{
		doc:      doc,
		registry: registry,
		media:    domain.NameImage,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resolver = NewResolver(doc.Schema(), c.media)
	c.binder = newBinder(doc, c.hooks, c.ledger, c.logger)
	return c
}

// Binder returns the binder used for transfer callbacks.
func (c *Command) Binder() *Binder { return c.binder }

// IsEnabled reports whether an upload can be inserted at the current selection.
func (c *Command) IsEnabled() bool {
	return c.resolver.IsEnabled(c.doc.Selection())
}

// Execute inserts an element for every file inside a single "upload" batch and
// moves the selection after each inserted element. Files the registry cannot
// handle are reported to the diagnostic sink; files with no valid position have
// their transfer aborted, as do files whose element is later rolled back with an
// enclosing batch. Execute never fails as a whole.
func (c *Command) Execute(ctx context.Context, files ...ports.File) Result {
	var res Result
	if c.filter {
		kept := FilterFiles(files, c.accepted)
		for _, f := range files {
			if !containsFile(kept, f) {
				res.Skipped = append(res.Skipped, Skip{File: f, Reason: fmt.Errorf("file type %q is not accepted", DetectType(f))})
			}
		}
		files = kept
	}
	if len(files) == 0 {
		return res
	}

	err := c.doc.Change("upload", func(w *model.Writer) error {
		for _, f := range files {
			// Registries may start work as soon as a transfer exists.
			if _, err := c.resolver.Resolve(c.doc.Selection(), map[string]any{domain.AttrUploadID: ""}); err != nil {
				c.logger.Debug("no insertion position for upload", "file", f.Name(), "err", err)
				res.Skipped = append(res.Skipped, Skip{File: f, Reason: err})
				continue
			}

			tr, err := c.registry.CreateTransfer(ctx, f)
			if err != nil {
				d := c.diagnose(f, err)
				c.report(ctx, d)
				res.Diagnostics = append(res.Diagnostics, d)
				res.Skipped = append(res.Skipped, Skip{File: f, Reason: err})
				continue
			}

			attrs := map[string]any{domain.AttrUploadID: tr.ID()}
			pos, err := c.resolver.Resolve(c.doc.Selection(), attrs)
			if err == nil {
				var el *domain.Element
				if el, err = w.InsertElement(c.media, attrs, pos); err == nil {
					if err = w.SetSelection(domain.Collapsed(domain.PositionAfter(el))); err == nil {
						c.binder.Bind(ctx, tr)
						// An enclosing batch may still roll the element back.
						w.OnRollback(tr.Abort)
						res.Inserted = append(res.Inserted, el)
						res.Transfers = append(res.Transfers, tr)
						c.logger.Debug("upload placeholder inserted", "transfer", tr.ID(), "file", f.Name(), "at", pos.String())
						continue
					}
				}
			}

			c.logger.Debug("no insertion position for upload", "transfer", tr.ID(), "file", f.Name(), "err", err)
			tr.Abort()
			res.Skipped = append(res.Skipped, Skip{File: f, Reason: err})
		}
		return nil
	})
	if err != nil {
		// The rolled back elements had their transfers aborted.
		c.logger.Error("upload batch failed", "err", err)
		res.Inserted, res.Transfers = nil, nil
	}
	return res
}

func (c *Command) diagnose(f ports.File, err error) domain.Diagnostic {
	code := domain.DiagTransferCreateFailed
	msg := "Could not create an upload transfer."
	if errors.Is(err, domain.ErrTransferConfigurationMissing) {
		code = domain.DiagTransferAdapterMissing
		msg = "Upload adapter is not defined."
	}
	return domain.Diagnostic{
		Code:    code,
		Message: msg,
		Err:     err,
		Fields:  map[string]any{"file": f.Name()},
	}
}

func (c *Command) report(ctx context.Context, d domain.Diagnostic) {
	if c.sink == nil {
		c.logger.Warn(d.Message, "code", d.Code, "err", d.Err)
		return
	}
	c.sink.Report(ctx, d)
}

func containsFile(files []ports.File, f ports.File) bool {
	for _, x := range files {
		if x == f {
			return true
		}
	}
	return false
}

func isStale(err error) bool {
	return errors.Is(err, domain.ErrStaleReference)
}
