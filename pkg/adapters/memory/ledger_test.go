package memory_test

import (
	"testing"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/ports"
)

func TestMemoryLedger_Contract(t *testing.T) {
	ledger := memory.NewLedger()
	ports.RunTransferLedgerContract(t, ledger)
}
