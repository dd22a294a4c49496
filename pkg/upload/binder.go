package upload

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/model"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/schema"
)

// Response is the decoded completion payload of a transfer:
//
//	{"default": "https://cdn/cat.png", "800": "https://cdn/cat-800.png"}
type Response struct {
	Default string         `mapstructure:"default"`
	Widths  map[string]any `mapstructure:",remain"`
}

// DecodeResponse decodes a completion payload into media attributes: src from
// the default URL and srcset from the width-keyed URLs, narrowest first.
func DecodeResponse(raw map[string]any) (map[string]any, error) {
	var resp Response
	if err := mapstructure.Decode(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	attrs := make(map[string]any)
	if resp.Default != "" {
		attrs[domain.AttrSrc] = resp.Default
	}

	type candidate struct {
		width int
		url   string
	}
	var candidates []candidate
	for key, v := range resp.Widths {
		width, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		url, ok := v.(string)
		if !ok || url == "" {
			return nil, fmt.Errorf("failed to decode upload response: url for width %s is %T", key, v)
		}
		candidates = append(candidates, candidate{width: width, url: url})
	}
	slices.SortFunc(candidates, func(a, b candidate) int { return a.width - b.width })

	if len(candidates) > 0 {
		parts := make([]string, len(candidates))
		for i, c := range candidates {
			parts[i] = c.url + " " + strconv.Itoa(c.width) + "w"
		}
		attrs[domain.AttrSrcset] = strings.Join(parts, ", ")
	}
	return attrs, nil
}

// Binder connects transfers to the media elements created for them. Elements
// are located by their uploadId on every callback, never by a held reference
// alone, so edits made while the upload ran are respected.
type Binder struct {
	doc    *model.Document
	hooks  domain.LifecycleHooks
	ledger ports.TransferLedger
	logger *slog.Logger
}

func newBinder(doc *model.Document, hooks domain.LifecycleHooks, ledger ports.TransferLedger, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Binder{doc: doc, hooks: hooks, ledger: ledger, logger: logger}
}

// Bind registers the transfer callbacks.
func (b *Binder) Bind(ctx context.Context, tr ports.Transfer) {
	// Callbacks outlive the request that started the upload.
	ctx = context.WithoutCancel(ctx)
	id := tr.ID()
	name := tr.File().Name()
	b.record(ctx, &domain.TransferRecord{ID: id, FileName: name, Status: domain.TransferPending, Total: tr.File().Size()})

	if b.hooks.OnUploadStart != nil {
		ev := domain.NewUploadEvent(domain.EventUploadStart, id)
		ev.FileName = name
		b.hooks.OnUploadStart(ctx, ev)
	}

	tr.OnProgress(func(uploaded, total int64) {
		b.record(ctx, &domain.TransferRecord{ID: id, FileName: name, Status: domain.TransferProgressing, Uploaded: uploaded, Total: total})
		if b.hooks.OnUploadProgress != nil {
			ev := domain.NewUploadEvent(domain.EventUploadProgress, id)
			ev.FileName, ev.Uploaded, ev.Total = name, uploaded, total
			b.hooks.OnUploadProgress(ctx, ev)
		}
	})
	tr.OnComplete(func(response map[string]any) {
		err := b.Complete(ctx, id, response)
		switch {
		case err == nil:
			b.record(ctx, &domain.TransferRecord{ID: id, FileName: name, Status: domain.TransferDone})
		case !isStale(err):
			b.logger.Error("upload completion failed", "transfer", id, "err", err)
			_ = b.Cleanup(ctx, id, domain.EventUploadFail, err)
			b.record(ctx, &domain.TransferRecord{ID: id, FileName: name, Status: domain.TransferFailed, Error: err.Error()})
		}
	})
	tr.OnFail(func(err error) {
		_ = b.Cleanup(ctx, id, domain.EventUploadFail, err)
		rec := &domain.TransferRecord{ID: id, FileName: name, Status: domain.TransferFailed}
		if err != nil {
			rec.Error = err.Error()
		}
		b.record(ctx, rec)
	})
	tr.OnAbort(func() {
		_ = b.Cleanup(ctx, id, domain.EventUploadAbort, nil)
		b.record(ctx, &domain.TransferRecord{ID: id, FileName: name, Status: domain.TransferAborted})
	})
}

// Complete applies a completion payload to the element waiting for transfer id,
// inside batch "upload-complete". It returns domain.ErrStaleReference, leaving the
// tree untouched, when no element references the id any more.
func (b *Binder) Complete(ctx context.Context, id string, response map[string]any) error {
	ev := domain.NewUploadEvent(domain.EventUploadComplete, id)
	defer func() {
		if b.hooks.OnUploadComplete != nil {
			b.hooks.OnUploadComplete(ctx, ev)
		}
	}()

	el := b.doc.FindByAttribute(domain.AttrUploadID, id)
	if el == nil {
		ev.Stale = true
		b.logger.Debug("upload completed for a removed element", "transfer", id)
		return fmt.Errorf("transfer %s: %w", id, domain.ErrStaleReference)
	}

	attrs, err := DecodeResponse(response)
	if err != nil {
		ev.Err = err
		return err
	}

	err = b.doc.Change("upload-complete", func(w *model.Writer) error {
		if !b.doc.Contains(el) || el.StringAttribute(domain.AttrUploadID) != id {
			return fmt.Errorf("transfer %s: %w", id, domain.ErrStaleReference)
		}
		if err := w.RemoveAttribute(el, domain.AttrUploadID); err != nil {
			return err
		}
		ctxNames := schema.ContextOf(el)
		for _, key := range sortedKeys(attrs) {
			if !b.doc.Schema().CheckAttribute(ctxNames, key) {
				b.logger.Debug("attribute not allowed on media element", "key", key, "element", el.Name())
				continue
			}
			if err := w.SetAttribute(el, key, attrs[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		ev.Err = err
		ev.Stale = isStale(err)
		return err
	}
	b.logger.Info("upload completed", "transfer", id, "element", el.Name())
	return nil
}

// Cleanup removes the element still waiting for transfer id, inside batch
// "upload-cleanup". Elements whose uploadId changed or that were removed are left
// alone and domain.ErrStaleReference is returned.
func (b *Binder) Cleanup(ctx context.Context, id string, reason domain.EventType, cause error) error {
	ev := domain.NewUploadEvent(reason, id)
	ev.Err = cause
	defer func() {
		if b.hooks.OnUploadFail != nil {
			b.hooks.OnUploadFail(ctx, ev)
		}
	}()

	el := b.doc.FindByAttribute(domain.AttrUploadID, id)
	if el == nil {
		ev.Stale = true
		return fmt.Errorf("transfer %s: %w", id, domain.ErrStaleReference)
	}
	err := b.doc.Change("upload-cleanup", func(w *model.Writer) error {
		if !b.doc.Contains(el) || el.StringAttribute(domain.AttrUploadID) != id {
			return fmt.Errorf("transfer %s: %w", id, domain.ErrStaleReference)
		}
		return w.Remove(el)
	})
	if err != nil {
		ev.Stale = isStale(err)
		return err
	}
	b.logger.Info("upload discarded", "transfer", id, "reason", string(reason), "err", cause)
	return nil
}

func (b *Binder) record(ctx context.Context, rec *domain.TransferRecord) {
	if b.ledger == nil {
		return
	}
	rec.UpdatedAt = time.Now().UTC()
	if err := b.ledger.Save(ctx, rec); err != nil {
		b.logger.Warn("failed to record transfer", "transfer", rec.ID, "err", err)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
