package bankmock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/platform/persistence"
)

// Repository reads the remote bank's transaction table
type Repository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewRepository creates a new remote bank repository
func NewRepository(logger *slog.Logger, db *persistence.PostgresDB) *Repository {
	return &Repository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const selectColumns = `SELECT id, date, type, sender, description, amount FROM bank_remote`

// ListAll returns every transaction the remote bank has
func (r *Repository) ListAll(ctx context.Context) ([]Transaction, error) {
	rows, err := r.querier.Query(ctx, selectColumns+` ORDER BY date, id`)
	if err != nil {
		r.logger.Error("Failed to list remote transactions", "error", err)
		return nil, fmt.Errorf("failed to list remote transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListDateRange returns transactions between the adjusted bounds of the
// requested window. When no transaction falls exactly on a requested
// boundary, the boundary moves inward to the nearest available transaction
// date; a window containing no transactions at all yields an empty result.
func (r *Repository) ListDateRange(ctx context.Context, start, end bank.Date) ([]Transaction, error) {
	var adjustedStart, adjustedEnd *time.Time

	err := r.querier.QueryRow(ctx,
		`SELECT MIN(date) FROM bank_remote WHERE date >= $1`, start.Time,
	).Scan(&adjustedStart)
	if err != nil {
		r.logger.Error("Failed to adjust start date", "error", err)
		return nil, fmt.Errorf("failed to adjust start date: %w", err)
	}

	err = r.querier.QueryRow(ctx,
		`SELECT MAX(date) FROM bank_remote WHERE date <= $1`, end.Time,
	).Scan(&adjustedEnd)
	if err != nil {
		r.logger.Error("Failed to adjust end date", "error", err)
		return nil, fmt.Errorf("failed to adjust end date: %w", err)
	}

	// No transactions on either side of the window: empty result, not an error
	if adjustedStart == nil || adjustedEnd == nil {
		return []Transaction{}, nil
	}

	rows, err := r.querier.Query(ctx,
		selectColumns+` WHERE date BETWEEN $1 AND $2 ORDER BY date, id`,
		*adjustedStart, *adjustedEnd,
	)
	if err != nil {
		r.logger.Error("Failed to list remote transactions by date range", "error", err)
		return nil, fmt.Errorf("failed to list remote transactions by date range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanTransactions(rows rowScanner) ([]Transaction, error) {
	txns := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID,
			&t.Date.Time,
			&t.Type,
			&t.Sender,
			&t.Description,
			&t.Amount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan remote transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read remote transactions: %w", err)
	}
	return txns, nil
}
