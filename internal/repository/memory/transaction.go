package memory

import (
	"context"
	"sync"

	"papertrail/internal/domain/repositories"
)

// TransactionManager gives the in-memory ledger the same all-or-nothing
// semantics the Postgres transaction manager provides: it snapshots the
// ledger before running fn and restores the snapshot if fn fails, so a
// failed transition leaves no partial append behind. Transactions are
// serialized with a mutex.
type TransactionManager struct {
	mu     sync.Mutex
	ledger *MemoryRevisionLedger
}

// NewTransactionManager creates a transaction manager over the ledger.
func NewTransactionManager(ledger *MemoryRevisionLedger) repositories.TransactionManager {
	return &TransactionManager{ledger: ledger}
}

// ExecTx executes fn, rolling the ledger back to its prior state on error.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	state := tm.ledger.snapshot()
	if err := fn(ctx); err != nil {
		tm.ledger.restore(state)
		return err
	}
	return nil
}
