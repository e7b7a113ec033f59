package oplog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	entries   []Entry
	appendErr error
}

func (r *memRepo) Append(_ context.Context, entry Entry) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memRepo) Recent(_ context.Context, _ int) ([]Entry, error) {
	return r.entries, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRecorder_Record(t *testing.T) {
	repo := &memRepo{}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	recorder := NewRecorderWithClock(newTestLogger(), repo, func() time.Time { return at })

	recorder.Record(context.Background(), "sync_transactions", "Found %d new transactions:", 3)

	require.Len(t, repo.entries, 1)
	assert.Equal(t, at, repo.entries[0].Timestamp)
	assert.Equal(t, "sync_transactions", repo.entries[0].Operation)
	assert.Equal(t, "Found 3 new transactions:", repo.entries[0].Message)
}

func TestRecorder_Record_StoreFailureSwallowed(t *testing.T) {
	repo := &memRepo{appendErr: errors.New("mongo down")}
	recorder := NewRecorder(newTestLogger(), repo)

	// Must not panic or propagate the store error
	recorder.Record(context.Background(), "combine_clients", "message")
	assert.Empty(t, repo.entries)
}
