package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager scopes a function to one atomic transaction. Every
// revision-creating lifecycle transition runs its ledger append and its
// invalidation call inside a single ExecTx scope: either both are
// observable afterward, or neither is.
type TransactionManager interface {
	// ExecTx executes fn within a transaction, rolling back on error.
	ExecTx(ctx context.Context, fn TxFn) error
}
