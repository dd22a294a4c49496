package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/adapters/file"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

func TestLedger_Contract(t *testing.T) {
	ports.RunTransferLedgerContract(t, file.NewLedger(t.TempDir()))
}

func TestLedger_ListSkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	ledger := file.NewLedger(dir)
	ctx := context.Background()

	require.NoError(t, ledger.Save(ctx, &domain.TransferRecord{ID: "b", Status: domain.TransferDone}))
	require.NoError(t, ledger.Save(ctx, &domain.TransferRecord{ID: "a", Status: domain.TransferPending}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-c-123.json"), []byte("{}"), 0o644))

	ids, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, ledger.Save(ctx, &domain.TransferRecord{ID: "a", Status: domain.TransferFailed, Error: "boom"}))
	rec, err := ledger.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.TransferFailed, rec.Status)
	assert.Equal(t, "boom", rec.Error)
}

func TestLedger_MissingDirectory(t *testing.T) {
	ledger := file.NewLedger(filepath.Join(t.TempDir(), "absent"))
	ids, err := ledger.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ledger.Load(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrTransferNotFound)
	assert.Error(t, ledger.Save(context.Background(), &domain.TransferRecord{}))
}
