package oplog

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Recorder fans operation messages out to the structured logger and the
// operation log store. Store failures are logged and swallowed: losing a UI
// log line must never fail the operation that produced it.
type Recorder struct {
	logger *slog.Logger
	repo   Repository
	now    func() time.Time
}

// NewRecorder creates a Recorder writing to the given repository.
func NewRecorder(logger *slog.Logger, repo Repository) *Recorder {
	return &Recorder{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
}

// NewRecorderWithClock is like NewRecorder with an injected clock for tests.
func NewRecorderWithClock(logger *slog.Logger, repo Repository, now func() time.Time) *Recorder {
	return &Recorder{logger: logger, repo: repo, now: now}
}

// Record emits one log line attributed to the named operation.
func (r *Recorder) Record(ctx context.Context, operation, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	r.logger.Info(message, "operation", operation)

	entry := Entry{
		Timestamp: r.now(),
		Operation: operation,
		Message:   message,
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		r.logger.Warn("Failed to append operation log entry", "operation", operation, "error", err)
	}
}
