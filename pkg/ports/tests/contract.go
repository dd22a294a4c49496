package tests

import (
	"context"
	"testing"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
)

// UploadRegistryContractTest is a reusable test suite that verifies if an adapter complies with ports.UploadRegistry.
// newFile must return a fresh, readable file on every call.
func UploadRegistryContractTest(t *testing.T, registry ports.UploadRegistry, newFile func() ports.File) {
	t.Helper()
	ctx := context.Background()

	// 1. Transfers start pending and get distinct ids
	t.Run("CreateTransfer_DistinctIDs", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 3; i++ {
			tr, err := registry.CreateTransfer(ctx, newFile())
			if err != nil {
				t.Fatalf("unexpected error creating transfer: %v", err)
			}
			if tr.ID() == "" {
				t.Fatal("transfer has an empty id")
			}
			if seen[tr.ID()] {
				t.Errorf("duplicate transfer id %s", tr.ID())
			}
			seen[tr.ID()] = true
			if tr.Status().IsTerminal() {
				t.Errorf("new transfer %s is already %s", tr.ID(), tr.Status())
			}
			tr.Abort()
		}
	})

	// 2. Abort is terminal and notifies once
	t.Run("Abort", func(t *testing.T) {
		tr, err := registry.CreateTransfer(ctx, newFile())
		if err != nil {
			t.Fatalf("unexpected error creating transfer: %v", err)
		}
		aborted := make(chan struct{}, 2)
		tr.OnAbort(func() { aborted <- struct{}{} })

		tr.Abort()
		tr.Abort()

		if got := tr.Status(); got != domain.TransferAborted {
			t.Errorf("expected status %s, got %s", domain.TransferAborted, got)
		}
		if n := len(aborted); n > 1 {
			t.Errorf("expected at most one abort notification, got %d", n)
		}
	})

	// 3. The transfer keeps the file it was created for
	t.Run("File", func(t *testing.T) {
		f := newFile()
		tr, err := registry.CreateTransfer(ctx, f)
		if err != nil {
			t.Fatalf("unexpected error creating transfer: %v", err)
		}
		defer tr.Abort()
		if tr.File().Name() != f.Name() {
			t.Errorf("file mismatch. got %q, want %q", tr.File().Name(), f.Name())
		}
	})
}
