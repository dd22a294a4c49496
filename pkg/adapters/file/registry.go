package file

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/zeebo/blake3"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// ErrTooLarge is reported through OnFail when a file exceeds the size limit.
var ErrTooLarge = errors.New("file exceeds upload limit")

// Poster schedules a callback on the goroutine that owns the document.
type Poster interface {
	Post(fn func()) error
}

// Registry implements ports.UploadRegistry by copying files into a
// content-addressed directory. Each transfer runs on its own goroutine; its
// callbacks are posted to the Poster and never run on the worker.
type Registry struct {
	dir      string
	baseURL  string
	maxBytes int64
	poster   Poster
	logger   *slog.Logger
	newID    func() string

	wg sync.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithBaseURL sets the prefix of the URLs reported on completion.
func WithBaseURL(u string) Option {
	return func(r *Registry) {
		r.baseURL = u
	}
}

// WithMaxBytes limits the size of a single upload. Zero means unlimited.
func WithMaxBytes(n int64) Option {
	return func(r *Registry) {
		r.maxBytes = n
	}
}

// WithIDGenerator replaces the random transfer ids.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		r.newID = fn
	}
}

// NewRegistry creates a registry storing files under dir.
func NewRegistry(dir string, poster Poster, opts ...Option) *Registry {
	r := &Registry{
		dir:     dir,
		baseURL: "/uploads",
		poster:  poster,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wait blocks until every started transfer has finished copying and posted its
// final callback.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// CreateTransfer starts copying file in the background.
func (r *Registry) CreateTransfer(ctx context.Context, f ports.File) (ports.Transfer, error) {
	if r.dir == "" || r.poster == nil {
		return nil, domain.ErrTransferConfigurationMissing
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Uploads outlive the request that started them; Abort is the way to stop one.
	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &Transfer{
		id:     r.newID(),
		file:   f,
		status: domain.TransferPending,
		cancel: cancel,
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		r.run(workCtx, t)
	}()
	return t, nil
}

func (r *Registry) run(ctx context.Context, t *Transfer) {
	logger := r.logger.With("transfer", t.id, "file", t.file.Name())

	response, err := r.store(ctx, t)
	switch {
	case ctx.Err() != nil:
		logger.Debug("transfer aborted before completion")
	case err != nil:
		logger.Warn("transfer failed", "err", err)
		r.post(t, func() { t.fail(err) })
	default:
		logger.Info("transfer stored", "url", response["default"])
		r.post(t, func() { t.complete(response) })
	}
}

// store copies the file under its blake3 digest and describes it as a
// completion response.
func (r *Registry) store(ctx context.Context, t *Transfer) (map[string]any, error) {
	src, err := t.file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", t.file.Name(), err)
	}
	defer src.Close()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure upload directory: %w", err)
	}
	tmp, err := os.CreateTemp(r.dir, "tmp-"+t.id+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	total := t.file.Size()
	var reader io.Reader = src
	if r.maxBytes > 0 {
		reader = io.LimitReader(src, r.maxBytes+1)
	}
	hash := blake3.New()
	progress := &progressWriter{ctx: ctx, total: total, report: func(n, total int64) {
		r.post(t, func() { t.progress(n, total) })
	}}
	written, err := io.Copy(io.MultiWriter(tmp, hash, progress), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to copy %s: %w", t.file.Name(), err)
	}
	if r.maxBytes > 0 && written > r.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, t.file.Name(), r.maxBytes)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("failed to fsync temp file: %w", err)
	}

	header := make([]byte, 261)
	n, _ := tmp.ReadAt(header, 0)
	ext := "bin"
	if kind, _ := filetype.Match(header[:n]); kind != filetype.Unknown {
		ext = kind.Extension
	}

	var cfg image.Config
	if _, err := tmp.Seek(0, io.SeekStart); err == nil {
		cfg, _, _ = image.DecodeConfig(tmp)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	digest := hex.EncodeToString(hash.Sum(nil))
	rel := path.Join(digest[:2], digest+"."+ext)
	dest := filepath.Join(r.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure blob directory: %w", err)
	}
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		if err := os.Rename(tmpPath, dest); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", t.file.Name(), err)
		}
	}

	url := r.baseURL + "/" + rel
	response := map[string]any{"default": url}
	if cfg.Width > 0 {
		response[strconv.Itoa(cfg.Width)] = url
	}
	return response, nil
}

func (r *Registry) post(t *Transfer, fn func()) {
	if err := r.poster.Post(fn); err != nil {
		r.logger.Warn("dropping transfer callback", "transfer", t.id, "err", err)
	}
}

type progressWriter struct {
	ctx    context.Context
	done   int64
	total  int64
	report func(done, total int64)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	w.done += int64(len(p))
	w.report(w.done, w.total)
	return len(p), nil
}

// Transfer is a background copy started by Registry.
type Transfer struct {
	mu     sync.Mutex
	id     string
	file   ports.File
	status domain.TransferStatus
	cancel context.CancelFunc

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

// Abort cancels the copy and runs the abort callbacks on the calling goroutine.
// Aborting a finished transfer has no effect.
func (t *Transfer) Abort() {
	t.mu.Lock()
	if t.status.IsTerminal() {
		t.mu.Unlock()
		return
	}
	t.status = domain.TransferAborted
	callbacks := slices.Clone(t.onAbort)
	t.mu.Unlock()

	t.cancel()
	for _, fn := range callbacks {
		fn()
	}
}

func (t *Transfer) progress(uploaded, total int64) {
	t.mu.Lock()
	if t.status.IsTerminal() {
		t.mu.Unlock()
		return
	}
	t.status = domain.TransferProgressing
	callbacks := slices.Clone(t.onProgress)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(uploaded, total)
	}
}

func (t *Transfer) complete(response map[string]any) {
	t.mu.Lock()
	if t.status.IsTerminal() {
		t.mu.Unlock()
		return
	}
	t.status = domain.TransferDone
	callbacks := slices.Clone(t.onComplete)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(response)
	}
}

func (t *Transfer) fail(err error) {
	t.mu.Lock()
	if t.status.IsTerminal() {
		t.mu.Unlock()
		return
	}
	t.status = domain.TransferFailed
	callbacks := slices.Clone(t.onFail)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(err)
	}
}
