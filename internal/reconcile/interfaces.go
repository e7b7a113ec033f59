// Package reconcile implements the core reconciliation pipeline: incremental
// transaction sync against the ledger, client/student consolidation with
// search index publishing, and fuzzy identity resolution of bank transactions
// to client ids.
package reconcile

import (
	"context"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/domain/match"
)

// TransactionSource is the remote bank API the sync engine pulls from.
// The source adjusts the requested window to the nearest available
// transaction dates; an empty result is a valid outcome.
type TransactionSource interface {
	FetchRange(ctx context.Context, from, to bank.Date) ([]bank.Transaction, error)
}

// SearchIndex is the full-text index over consolidated client records.
type SearchIndex interface {
	// Publish replaces the index contents with the given documents and makes
	// them immediately queryable before returning
	Publish(ctx context.Context, docs []client.SearchDocument) error

	// Search returns the top `size` relevance-ranked hits for the phrase,
	// matching against all document fields with best-fields ranking
	Search(ctx context.Context, phrase string, size int) ([]match.Hit, error)
}
