package client

import "context"

// Repository defines read access to the client and student tables.
// Consolidation always works on full-table scans; both tables are small
// (hundreds to low thousands of rows).
type Repository interface {
	// ListClients returns the full client table
	ListClients(ctx context.Context) ([]Client, error)

	// ListStudents returns the full student table ordered by student id,
	// which fixes the per-client slot ordering used by consolidation
	ListStudents(ctx context.Context) ([]Student, error)
}
