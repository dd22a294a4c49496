package ports

import (
	"context"

	"github.com/aretw0/easel/pkg/domain"
)

// TransferLedger persists transfer snapshots so progress survives the process
// that started the upload and can be queried by other replicas.
type TransferLedger interface {
	// Save persists the record under its ID, replacing any previous snapshot.
	Save(ctx context.Context, record *domain.TransferRecord) error

	// Load retrieves the record for a transfer ID.
	// Returns domain.ErrTransferNotFound if the transfer is unknown.
	Load(ctx context.Context, transferID string) (*domain.TransferRecord, error)

	// Delete removes the record for a transfer ID.
	Delete(ctx context.Context, transferID string) error

	// List returns the IDs of all recorded transfers.
	List(ctx context.Context) ([]string, error)
}
