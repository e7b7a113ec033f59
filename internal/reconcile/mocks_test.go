package reconcile

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/domain/match"
	"github.com/ar-automation/reconciliation/internal/domain/oplog"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// memOplogRepo collects operation log entries in memory.
type memOplogRepo struct {
	mu      sync.Mutex
	entries []oplog.Entry
}

func (r *memOplogRepo) Append(_ context.Context, entry oplog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memOplogRepo) Recent(_ context.Context, limit int) ([]oplog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]oplog.Entry, n)
	copy(out, r.entries[len(r.entries)-n:])
	return out, nil
}

func (r *memOplogRepo) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, len(r.entries))
	for i, e := range r.entries {
		msgs[i] = e.Message
	}
	return msgs
}

func newTestRecorder() (*oplog.Recorder, *memOplogRepo) {
	repo := &memOplogRepo{}
	return oplog.NewRecorderWithClock(newTestLogger(), repo, func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}), repo
}

type MockTransactionSource struct {
	mock.Mock
}

func (m *MockTransactionSource) FetchRange(ctx context.Context, from, to bank.Date) ([]bank.Transaction, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bank.Transaction), args.Error(1)
}

type MockBankRepository struct {
	mock.Mock
}

func (m *MockBankRepository) ListIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockBankRepository) List(ctx context.Context) ([]bank.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bank.Transaction), args.Error(1)
}

func (m *MockBankRepository) InsertBatch(ctx context.Context, txns []bank.Transaction) (int64, error) {
	args := m.Called(ctx, txns)
	return args.Get(0).(int64), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) ListClients(ctx context.Context) ([]client.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Client), args.Error(1)
}

func (m *MockClientRepository) ListStudents(ctx context.Context) ([]client.Student, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Student), args.Error(1)
}

type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) Publish(ctx context.Context, docs []client.SearchDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockSearchIndex) Search(ctx context.Context, phrase string, size int) ([]match.Hit, error) {
	args := m.Called(ctx, phrase, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]match.Hit), args.Error(1)
}

func strPtr(s string) *string { return &s }

// hasMessagePrefix reports whether any recorded message starts with prefix.
func hasMessagePrefix(msgs []string, prefix string) bool {
	for _, m := range msgs {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}
