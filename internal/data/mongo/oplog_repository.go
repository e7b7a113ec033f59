package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ar-automation/reconciliation/internal/domain/oplog"
)

const (
	// OplogCollectionName is the name of the operation log collection in MongoDB
	OplogCollectionName = "oplog_entries"
)

// OplogRepository implements the oplog.Repository interface for MongoDB.
// Entries are append-only; the dashboard reads them newest first.
type OplogRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewOplogRepository creates a new MongoDB operation log repository
func NewOplogRepository(logger *slog.Logger, db *mongo.Database) oplog.Repository {
	return &OplogRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores one operation log entry
func (r *OplogRepository) Append(ctx context.Context, entry oplog.Entry) error {
	collection := r.db.Collection(OplogCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to append oplog entry",
			"operation", entry.Operation,
			"error", err)
		return fmt.Errorf("failed to append oplog entry: %w", err)
	}

	return nil
}

// Recent returns up to limit entries sorted by timestamp in descending order
// (newest first), matching the dashboard's reversed log display.
func (r *OplogRepository) Recent(ctx context.Context, limit int) ([]oplog.Entry, error) {
	collection := r.db.Collection(OplogCollectionName)

	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to get oplog entries", "error", err)
		return nil, fmt.Errorf("failed to get oplog entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []oplog.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode oplog entries", "error", err)
		return nil, fmt.Errorf("failed to decode oplog entries: %w", err)
	}

	return entries, nil
}
