package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/domain/oplog"
)

const consolidateOperation = "combine_clients"

// ConsolidateService rebuilds the denormalized per-client view from the
// client and student tables and publishes it to the search index. The view is
// always fully recomputed and fully re-published; there is no incremental
// update path, which is what makes repeated runs idempotent.
type ConsolidateService struct {
	clientRepo client.Repository
	index      SearchIndex
	recorder   *oplog.Recorder
	now        func() time.Time

	// Publishing replaces the live index generation; concurrent runs must
	// not interleave their build/swap sequences.
	mu sync.Mutex
}

// NewConsolidateService creates a new client consolidation service
func NewConsolidateService(clientRepo client.Repository, index SearchIndex, recorder *oplog.Recorder) *ConsolidateService {
	return &ConsolidateService{
		clientRepo: clientRepo,
		index:      index,
		recorder:   recorder,
		now:        time.Now,
	}
}

// Consolidate joins students to clients, pivots each client's students into
// ordered slots and publishes the flattened documents to the search index.
// Clients without students are dropped (inner-join semantics). Any storage or
// index failure is fatal for the call; there is no partial-consolidation mode.
func (s *ConsolidateService) Consolidate(ctx context.Context) ([]client.CombinedClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()

	clients, err := s.clientRepo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("consolidation failed reading clients: %w", err)
	}
	students, err := s.clientRepo.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("consolidation failed reading students: %w", err)
	}

	combined := client.Combine(clients, students)
	s.recorder.Record(ctx, consolidateOperation, "Client and student data combined in %.2f seconds.",
		s.now().Sub(start).Seconds())

	width := client.MaxStudents(combined)
	docs := make([]client.SearchDocument, 0, len(combined))
	for i := range combined {
		docs = append(docs, combined[i].SearchDocument(width))
	}

	uploadStart := s.now()
	if err := s.index.Publish(ctx, docs); err != nil {
		s.recorder.Record(ctx, consolidateOperation, "Search index error: %v", err)
		return nil, fmt.Errorf("consolidation failed publishing to search index: %w", err)
	}
	s.recorder.Record(ctx, consolidateOperation, "%d client documents uploaded to search index in %.2f seconds.",
		len(docs), s.now().Sub(uploadStart).Seconds())

	return combined, nil
}
