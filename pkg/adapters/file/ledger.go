package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
)

// Ledger implements ports.TransferLedger using the local filesystem.
// It stores one JSON file per transfer in a configured directory.
type Ledger struct {
	BasePath string
}

// NewLedger creates a Ledger rooted at basePath.
// If basePath is empty, it defaults to ".easel/transfers".
func NewLedger(basePath string) *Ledger {
	if basePath == "" {
		basePath = filepath.Join(".easel", "transfers")
	}
	return &Ledger{BasePath: basePath}
}

// Save persists the record atomically: it writes a temp file in the same
// directory, fsyncs it and renames it over the destination.
func (l *Ledger) Save(ctx context.Context, record *domain.TransferRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("transfer id cannot be empty")
	}
	if err := os.MkdirAll(l.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure ledger directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transfer record: %w", err)
	}

	tmp, err := os.CreateTemp(l.BasePath, "tmp-"+record.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := l.path(record.ID)
	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace transfer record: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename transfer record: %w", err)
	}
	return nil
}

// Load reads the record for transferID.
func (l *Ledger) Load(ctx context.Context, transferID string) (*domain.TransferRecord, error) {
	if transferID == "" {
		return nil, fmt.Errorf("transfer id cannot be empty")
	}
	data, err := os.ReadFile(l.path(transferID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to read transfer record: %w", err)
	}

	var rec domain.TransferRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer record: %w", err)
	}
	return &rec, nil
}

// Delete removes the record file. Deleting an unknown transfer is not an error.
func (l *Ledger) Delete(ctx context.Context, transferID string) error {
	if transferID == "" {
		return fmt.Errorf("transfer id cannot be empty")
	}
	if err := os.Remove(l.path(transferID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete transfer record: %w", err)
	}
	return nil
}

// List returns the ids of all stored records in lexical order.
func (l *Ledger) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list ledger directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	slices.Sort(ids)
	return ids, nil
}

func (l *Ledger) path(id string) string {
	return filepath.Join(l.BasePath, id+".json")
}
