// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all ledger store access while keeping the bank table append-only
// and preserving proper error handling for the reconciliation dashboard.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// BankRepository implements the bank.Repository interface for PostgreSQL
type BankRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBankRepository creates a new PostgreSQL bank transaction repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewBankRepository(logger *slog.Logger, db *persistence.PostgresDB) bank.Repository {
	return &BankRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *BankRepository) WithTx(tx pgx.Tx) bank.Repository {
	return &BankRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// ListIDs returns the identifiers of all transactions currently in the ledger.
// The sync engine diffs remote batches against this set to keep ids unique.
func (r *BankRepository) ListIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT id FROM bank`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list transaction ids", "error", err)
		return nil, fmt.Errorf("failed to list transaction ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction ids: %w", err)
	}

	return ids, nil
}

// List returns the full bank table, newest transaction date first
func (r *BankRepository) List(ctx context.Context) ([]bank.Transaction, error) {
	query := `
		SELECT id, date, type, sender, description, amount, bank_sync_date
		FROM bank
		ORDER BY date DESC, id DESC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []bank.Transaction
	for rows.Next() {
		var t bank.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.Date.Time,
			&t.Type,
			&t.Sender,
			&t.Description,
			&t.Amount,
			&t.BankSyncDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	return txns, nil
}

// InsertBatch appends the given transactions to the bank table in one batch
// using the COPY protocol. Existing rows are never touched.
func (r *BankRepository) InsertBatch(ctx context.Context, txns []bank.Transaction) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []interface{}{
			t.ID,
			t.Date.Time,
			t.Type,
			t.Sender,
			t.Description,
			t.Amount,
			t.BankSyncDate,
		})
	}

	copied, err := r.querier.CopyFrom(
		ctx,
		pgx.Identifier{"bank"},
		[]string{"id", "date", "type", "sender", "description", "amount", "bank_sync_date"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		r.logger.Error("Failed to insert transaction batch", "count", len(txns), "error", err)
		return 0, fmt.Errorf("failed to insert transaction batch: %w", err)
	}

	return copied, nil
}
