package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/domain/oplog"
)

// ErrInvalidDateRange is returned when the requested sync window is inverted
var ErrInvalidDateRange = errors.New("from date must not be after to date")

// SyncStatus classifies the outcome of a sync run. Collaborator failures are
// an outcome, not an error: sync is best-effort and the operator simply
// retries by re-invoking it.
type SyncStatus string

const (
	// SyncStatusOK means new transactions were inserted
	SyncStatusOK SyncStatus = "ok"
	// SyncStatusEmpty means the run succeeded but found nothing new to insert
	SyncStatusEmpty SyncStatus = "empty"
	// SyncStatusSourceFailed means the remote bank API was unreachable or errored
	SyncStatusSourceFailed SyncStatus = "source_failed"
	// SyncStatusStorageFailed means the local ledger store failed
	SyncStatusStorageFailed SyncStatus = "storage_failed"
)

// SyncResult reports what a sync run did
type SyncResult struct {
	Status   SyncStatus `json:"status"`
	Inserted int64      `json:"inserted"`
}

const syncOperation = "sync_transactions"

// SyncService incrementally pulls bank transactions from the remote source
// into the local ledger, inserting only ids the ledger has not seen.
type SyncService struct {
	source   TransactionSource
	bankRepo bank.Repository
	recorder *oplog.Recorder
	now      func() time.Time
}

// NewSyncService creates a new transaction sync service
func NewSyncService(source TransactionSource, bankRepo bank.Repository, recorder *oplog.Recorder) *SyncService {
	return &SyncService{
		source:   source,
		bankRepo: bankRepo,
		recorder: recorder,
		now:      time.Now,
	}
}

// Sync fetches transactions dated inside [from, to], diffs them against the
// ledger by id, stamps the unseen ones with the current time and appends them
// in one batch. It returns an error only for invalid input; source and
// storage failures are logged and reported through the result status so the
// dashboard stays usable and the operator can retry.
func (s *SyncService) Sync(ctx context.Context, from, to bank.Date) (SyncResult, error) {
	if from.After(to.Time) {
		return SyncResult{}, ErrInvalidDateRange
	}

	start := s.now()

	fetched, err := s.source.FetchRange(ctx, from, to)
	if err != nil {
		s.recorder.Record(ctx, syncOperation, "API request error: %v", err)
		return SyncResult{Status: SyncStatusSourceFailed}, nil
	}
	if len(fetched) == 0 {
		s.recorder.Record(ctx, syncOperation, "No transactions found in specified date range.")
		return SyncResult{Status: SyncStatusEmpty}, nil
	}
	s.recorder.Record(ctx, syncOperation, "Connected to remote bank, %d transactions in range %s..%s",
		len(fetched), from.Format(bank.DateLayout), to.Format(bank.DateLayout))

	existingIDs, err := s.bankRepo.ListIDs(ctx)
	if err != nil {
		s.recorder.Record(ctx, syncOperation, "Database error: %v", err)
		return SyncResult{Status: SyncStatusStorageFailed}, nil
	}
	seen := make(map[int64]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		seen[id] = struct{}{}
	}

	syncedAt := s.now()
	var retained []bank.Transaction
	for _, t := range fetched {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		t.BankSyncDate = syncedAt
		retained = append(retained, t)
	}

	if len(retained) == 0 {
		s.recorder.Record(ctx, syncOperation, "Bank transactions already synced in specified range.")
		return SyncResult{Status: SyncStatusEmpty}, nil
	}

	s.recorder.Record(ctx, syncOperation, "Found %d new transactions:", len(retained))
	for i := range retained {
		s.recorder.Record(ctx, syncOperation, "%s", retained[i].LogLine())
	}

	inserted, err := s.bankRepo.InsertBatch(ctx, retained)
	if err != nil {
		s.recorder.Record(ctx, syncOperation, "Database error: %v", err)
		return SyncResult{Status: SyncStatusStorageFailed}, nil
	}

	s.recorder.Record(ctx, syncOperation, "%d transactions successfully synchronized in %.2f seconds.",
		inserted, s.now().Sub(start).Seconds())

	return SyncResult{Status: SyncStatusOK, Inserted: inserted}, nil
}
