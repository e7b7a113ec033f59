// Package oplog provides the operation log: the timestamped (operation,
// message) stream surfaced to the dashboard UI alongside every sync,
// consolidation and matching run.
package oplog

import "time"

// Entry is one operation log line.
type Entry struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Operation string    `json:"operation" bson:"operation"`
	Message   string    `json:"message" bson:"message"`
}
