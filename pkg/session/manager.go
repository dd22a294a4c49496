package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/eventloop"
	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// Factory builds the editor of a new session.
type Factory func(ctx context.Context, sessionID string) (*easel.Editor, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the live editors.
type Manager struct {
	factory Factory

	mu        sync.Mutex // guards the maps below
	editors   map[string]*easel.Editor
	locks     map[string]*lockEntry // active locks, reference counted
	transfers map[string]string     // transfer id -> session id

	locker  ports.DistributedLocker
	lockTTL time.Duration
	loop    *eventloop.Loop
	newID   func() string
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithEventLoop runs every WithLock callback on loop. The loop must be running.
func WithEventLoop(loop *eventloop.Loop) Option {
	return func(m *Manager) {
		m.loop = loop
	}
}

// WithIDGenerator replaces the random session ids.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager building editors with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:   factory,
		editors:   make(map[string]*easel.Editor),
		locks:     make(map[string]*lockEntry),
		transfers: make(map[string]string),
		lockTTL:   30 * time.Second,
		newID:     uuid.NewString,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create builds a new session and loads markup into it.
func (m *Manager) Create(ctx context.Context, markup string) (string, error) {
	id := m.newID()
	ed, err := m.factory(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to create editor: %w", err)
	}

	m.mu.Lock()
	if _, dup := m.editors[id]; dup {
		m.mu.Unlock()
		ed.Close(ctx)
		return "", fmt.Errorf("session %s already exists", id)
	}
	m.editors[id] = ed
	m.mu.Unlock()

	err = m.WithLock(ctx, id, func(ctx context.Context, ed *easel.Editor) error {
		return ed.SetData(markup)
	})
	if err != nil {
		_ = m.Close(ctx, id)
		return "", err
	}
	m.logger.Info("session created", "session_id", id)
	return id, nil
}

// WithLock runs fn with exclusive access to the editor of sessionID.
// Returns domain.ErrSessionNotFound for unknown sessions.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, *easel.Editor) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	ed, err := m.Editor(sessionID)
	if err != nil {
		return err
	}

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return m.run(ctx, func(ctx context.Context) error { return fn(ctx, ed) })
}

// run executes fn on the event loop when one is attached. Once posted, the
// caller keeps its locks until fn has run: a body whose ctx was cancelled while
// queued is skipped, and a running body is never cut short. The loop must be
// running.
func (m *Manager) run(ctx context.Context, fn func(context.Context) error) error {
	if m.loop == nil {
		return fn(ctx)
	}
	done := make(chan error, 1)
	err := m.loop.Post(func() {
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- fn(context.WithoutCancel(ctx))
	})
	if err != nil {
		return err
	}
	return <-done
}

// Editor returns the live editor of sessionID without locking it.
func (m *Manager) Editor(sessionID string) (*easel.Editor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ed, ok := m.editors[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return ed, nil
}

// TrackTransfer remembers which session a transfer belongs to.
func (m *Manager) TrackTransfer(transferID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[transferID] = sessionID
}

// SessionForTransfer returns the session a transfer was started in.
func (m *Manager) SessionForTransfer(transferID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.transfers[transferID]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrTransferNotFound, transferID)
	}
	return id, nil
}

// Close destroys the editor of sessionID and forgets its transfers.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context, ed *easel.Editor) error {
		ed.Close(ctx)
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.editors[sessionID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	delete(m.editors, sessionID)
	for tid, sid := range m.transfers {
		if sid == sessionID {
			delete(m.transfers, tid)
		}
	}
	m.logger.Info("session closed", "session_id", sessionID)
	return nil
}

// CloseAll closes every session.
func (m *Manager) CloseAll(ctx context.Context) {
	for _, id := range m.List() {
		if err := m.Close(ctx, id); err != nil {
			m.logger.Warn("failed to close session", "session_id", id, "err", err)
		}
	}
}

// List returns the live session ids in lexical order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.editors))
	for id := range m.editors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Post queues fn on the event loop, or runs it at once without one. It lets
// the manager serve as the poster of background upload registries.
func (m *Manager) Post(fn func()) error {
	if m.loop == nil {
		fn()
		return nil
	}
	return m.loop.Post(fn)
}
