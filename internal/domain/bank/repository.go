package bank

import "context"

// Repository defines persistence operations for the bank transaction ledger.
// The ledger is append-only: existing rows are never rewritten.
type Repository interface {
	// ListIDs returns the identifiers of every transaction already in the ledger
	ListIDs(ctx context.Context) ([]int64, error)

	// List returns the full transaction table, newest date first
	List(ctx context.Context) ([]Transaction, error)

	// InsertBatch appends the given transactions in a single batch and
	// returns the number of rows written
	InsertBatch(ctx context.Context, txns []Transaction) (int64, error)
}
