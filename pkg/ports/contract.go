package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTransferLedgerContract runs a suite of tests to verify that a TransferLedger
// implementation adheres to the defined interface contract.
func RunTransferLedgerContract(t *testing.T, ledger TransferLedger) {
	ctx := context.Background()
	transferID := "contract-test-transfer-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		record := &domain.TransferRecord{
			ID:        transferID,
			FileName:  "cat.png",
			Status:    domain.TransferProgressing,
			Uploaded:  512,
			Total:     2048,
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}

		err := ledger.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := ledger.Load(ctx, transferID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.FileName, loaded.FileName)
		assert.Equal(t, domain.TransferProgressing, loaded.Status)
		assert.EqualValues(t, 512, loaded.Uploaded)
		assert.EqualValues(t, 2048, loaded.Total)
		assert.True(t, record.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		err := ledger.Save(ctx, &domain.TransferRecord{ID: transferID, Status: domain.TransferFailed, Error: "boom"})
		require.NoError(t, err)

		loaded, err := ledger.Load(ctx, transferID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransferFailed, loaded.Status)
		assert.Equal(t, "boom", loaded.Error)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := ledger.Load(ctx, "non-existent-"+transferID)
		assert.ErrorIs(t, err, domain.ErrTransferNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := ledger.Save(ctx, &domain.TransferRecord{ID: transferID, Status: domain.TransferPending})
		require.NoError(t, err)

		err = ledger.Delete(ctx, transferID)
		require.NoError(t, err, "Delete should not return error")

		_, err = ledger.Load(ctx, transferID)
		assert.ErrorIs(t, err, domain.ErrTransferNotFound, "Load after Delete should return ErrTransferNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := transferID + "-1"
		id2 := transferID + "-2"
		_ = ledger.Save(ctx, &domain.TransferRecord{ID: id1, Status: domain.TransferPending})
		_ = ledger.Save(ctx, &domain.TransferRecord{ID: id2, Status: domain.TransferDone})

		defer func() {
			_ = ledger.Delete(ctx, id1)
			_ = ledger.Delete(ctx, id2)
		}()

		ids, err := ledger.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
