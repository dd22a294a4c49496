package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/easel/pkg/domain"
)

// Ledger implements ports.TransferLedger in memory.
// Safe for concurrent use.
type Ledger struct {
	data map[string]domain.TransferRecord
	mu   sync.RWMutex
}

// NewLedger creates a new in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		data: make(map[string]domain.TransferRecord),
	}
}

// Save stores a copy of the record.
func (l *Ledger) Save(ctx context.Context, record *domain.TransferRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[record.ID] = *record
	return nil
}

// Load retrieves a copy of the record.
func (l *Ledger) Load(ctx context.Context, transferID string) (*domain.TransferRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, ok := l.data[transferID]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return &record, nil
}

// Delete removes the record.
func (l *Ledger) Delete(ctx context.Context, transferID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.data, transferID)
	return nil
}

// List returns the recorded transfer ids in lexical order.
func (l *Ledger) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.data))
	for id := range l.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
