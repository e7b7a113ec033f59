package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/platform/persistence"
)

// ClientRepository implements the client.Repository interface for PostgreSQL
type ClientRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewClientRepository creates a new PostgreSQL client/student repository
func NewClientRepository(logger *slog.Logger, db *persistence.PostgresDB) client.Repository {
	return &ClientRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// ListClients returns the full client table
func (r *ClientRepository) ListClients(ctx context.Context) ([]client.Client, error) {
	query := `
		SELECT client_id, name, last_name, email1, email2, handle, account_number
		FROM client
		ORDER BY client_id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list clients", "error", err)
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []client.Client
	for rows.Next() {
		var c client.Client
		if err := rows.Scan(
			&c.ClientID,
			&c.Name,
			&c.LastName,
			&c.Email1,
			&c.Email2,
			&c.Handle,
			&c.AccountNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read clients: %w", err)
	}

	return clients, nil
}

// ListStudents returns the full student table ordered by student_id.
// The ordering is part of the contract: consolidation assigns per-client
// slot numbers in this order.
func (r *ClientRepository) ListStudents(ctx context.Context) ([]client.Student, error) {
	query := `
		SELECT student_id, associated_client_id, student_name, student_last_name, grade
		FROM student
		ORDER BY student_id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list students", "error", err)
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []client.Student
	for rows.Next() {
		var s client.Student
		if err := rows.Scan(
			&s.StudentID,
			&s.AssociatedClientID,
			&s.StudentName,
			&s.StudentLastName,
			&s.Grade,
		); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}

	return students, nil
}
