package handler

import (
	"context"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/reconcile"
)

// SyncRunner runs one transaction sync pass against the remote bank
type SyncRunner interface {
	Sync(ctx context.Context, from, to bank.Date) (reconcile.SyncResult, error)
}

// SourceBrowser lists the remote bank's full transaction table, letting the
// operator inspect the source before picking a sync window
type SourceBrowser interface {
	FetchAll(ctx context.Context) ([]bank.Transaction, error)
}

// Consolidator rebuilds the combined client view and publishes it to the search index
type Consolidator interface {
	Consolidate(ctx context.Context) ([]client.CombinedClient, error)
}

// Resolver matches bank transactions to client ids
type Resolver interface {
	Resolve(ctx context.Context, txns []bank.Transaction) []reconcile.MatchedTransaction
}

// DocumentSearcher answers free-text queries against the published client index.
// An empty phrase returns all documents (match-all).
type DocumentSearcher interface {
	Documents(ctx context.Context, phrase string, size int) ([]map[string]interface{}, error)
}
