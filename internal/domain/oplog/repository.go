package oplog

import "context"

// Repository defines persistence for operation log entries.
type Repository interface {
	// Append stores one entry
	Append(ctx context.Context, entry Entry) error

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
