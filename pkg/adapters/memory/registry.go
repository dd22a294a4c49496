package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// Registry implements ports.UploadRegistry with transfers that never move on
// their own: the caller drives them with Progress, Complete, Fail and Abort.
// Callbacks run synchronously on the driving goroutine.
type Registry struct {
	mu         sync.Mutex
	transfers  map[string]*Transfer
	order      []string
	configured bool
	newID      func() string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithoutAdapter makes CreateTransfer fail with domain.ErrTransferConfigurationMissing.
func WithoutAdapter() RegistryOption {
	return func(r *Registry) {
		r.configured = false
	}
}

// WithIDGenerator replaces the random transfer ids.
func WithIDGenerator(fn func() string) RegistryOption {
	return func(r *Registry) {
		r.newID = fn
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		transfers:  make(map[string]*Transfer),
		configured: true,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetConfigured toggles whether an upload adapter is available.
func (r *Registry) SetConfigured(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configured = ok
}

// CreateTransfer registers a pending transfer for file.
func (r *Registry) CreateTransfer(ctx context.Context, file ports.File) (ports.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.configured {
		return nil, domain.ErrTransferConfigurationMissing
	}
	id := r.newID()
	if _, dup := r.transfers[id]; dup {
		return nil, fmt.Errorf("duplicate transfer id %s", id)
	}
	t := &Transfer{id: id, file: file, status: domain.TransferPending}
	r.transfers[id] = t
	r.order = append(r.order, id)
	return t, nil
}

// Transfer returns the transfer with id.
func (r *Registry) Transfer(id string) (*Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransferNotFound, id)
	}
	return t, nil
}

// Transfers returns every transfer in creation order.
func (r *Registry) Transfers() []*Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Transfer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.transfers[id])
	}
	return out
}

// Transfer is a manually driven ports.Transfer.
type Transfer struct {
	mu     sync.Mutex
	id     string
	file   ports.File
	status domain.TransferStatus

	onProgress []func(uploaded, total int64)
	onComplete []func(map[string]any)
	onFail     []func(error)
	onAbort    []func()
}

func (t *Transfer) ID() string       { return t.id }
func (t *Transfer) File() ports.File { return t.file }

// Status returns the current status.
func (t *Transfer) Status() domain.TransferStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Transfer) OnProgress(fn func(uploaded, total int64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onProgress = append(t.onProgress, fn)
}

func (t *Transfer) OnComplete(fn func(response map[string]any)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onComplete = append(t.onComplete, fn)
}

func (t *Transfer) OnFail(fn func(err error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFail = append(t.onFail, fn)
}

func (t *Transfer) OnAbort(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAbort = append(t.onAbort, fn)
}

// transition moves to status unless the transfer already finished.
func (t *Transfer) transition(status domain.TransferStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return fmt.Errorf("transfer %s is already %s", t.id, t.status)
	}
	t.status = status
	return nil
}

// Progress reports uploaded bytes.
func (t *Transfer) Progress(uploaded, total int64) error {
	if err := t.transition(domain.TransferProgressing); err != nil {
		return err
	}
	t.mu.Lock()
	callbacks := slices.Clone(t.onProgress)
	t.mu.Unlock()
	for _, fn := range callbacks {
		fn(uploaded, total)
	}
	return nil
}

// Complete finishes the transfer with the server response.
func (t *Transfer) Complete(response map[string]any) error {
	if err := t.transition(domain.TransferDone); err != nil {
		return err
	}
	t.mu.Lock()
	callbacks := slices.Clone(t.onComplete)
	t.mu.Unlock()
	for _, fn := range callbacks {
		fn(response)
	}
	return nil
}

// Fail finishes the transfer with an error.
func (t *Transfer) Fail(cause error) error {
	if err := t.transition(domain.TransferFailed); err != nil {
		return err
	}
	t.mu.Lock()
	callbacks := slices.Clone(t.onFail)
	t.mu.Unlock()
	for _, fn := range callbacks {
		fn(cause)
	}
	return nil
}

// Abort stops the transfer. Aborting a finished transfer has no effect.
func (t *Transfer) Abort() {
	if err := t.transition(domain.TransferAborted); err != nil {
		return
	}
	t.mu.Lock()
	callbacks := slices.Clone(t.onAbort)
	t.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

// CompleteTransfer completes the transfer with id.
func (r *Registry) CompleteTransfer(id string, response map[string]any) error {
	t, err := r.Transfer(id)
	if err != nil {
		return err
	}
	return t.Complete(response)
}

// FailTransfer fails the transfer with id.
func (r *Registry) FailTransfer(id string, cause error) error {
	t, err := r.Transfer(id)
	if err != nil {
		return err
	}
	return t.Fail(cause)
}

// AbortTransfer aborts the transfer with id.
func (r *Registry) AbortTransfer(id string) error {
	t, err := r.Transfer(id)
	if err != nil {
		return err
	}
	t.Abort()
	return nil
}
