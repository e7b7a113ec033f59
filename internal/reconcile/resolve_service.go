package reconcile

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/domain/match"
	"github.com/ar-automation/reconciliation/internal/domain/oplog"
)

const resolveOperation = "match_client_ids"

// minScoreGap is the disambiguation threshold: with two or more candidates
// the top hit is accepted only when it beats the runner-up by at least this
// many points on the engine's default score scale. Prefer no answer over a
// wrong answer when two candidates are close.
const minScoreGap = 1.0

// candidateHits is how many ranked hits a resolution query requests; the gap
// rule only ever needs the top two.
const candidateHits = 2

// MatchedTransaction is a bank transaction overlaid with the resolved client
// id. The overlay is recomputed on every resolution pass and never persisted.
type MatchedTransaction struct {
	bank.Transaction
	MatchedClientID *int64 `json:"matched_client_id"`
}

// ResolveService matches bank transactions to client ids by querying the
// search index with a phrase derived from each transaction's free-text
// fields. Queries are read-only and mutually independent, so they fan out
// across a bounded worker pool.
type ResolveService struct {
	index    SearchIndex
	recorder *oplog.Recorder
	logger   *slog.Logger
	pool     *ants.Pool
	now      func() time.Time
}

// NewResolveService creates a resolve service with a worker pool of the given size
func NewResolveService(logger *slog.Logger, index SearchIndex, recorder *oplog.Recorder, poolSize int) (*ResolveService, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &ResolveService{
		index:    index,
		recorder: recorder,
		logger:   logger,
		pool:     pool,
		now:      time.Now,
	}, nil
}

// Shutdown releases the worker pool
func (s *ResolveService) Shutdown() {
	s.pool.Release()
}

// Resolve returns the input transactions augmented with matched client ids.
// A transaction ends up unmatched when its search phrase is empty, the index
// returns no hits, the top two hits are too close to call, or its query
// fails; a failed query never aborts the rest of the batch.
func (s *ResolveService) Resolve(ctx context.Context, txns []bank.Transaction) []MatchedTransaction {
	start := s.now()
	results := make([]MatchedTransaction, len(txns))

	var wg sync.WaitGroup
	for i := range txns {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			outcome := s.resolveOne(ctx, &txns[i])
			results[i] = MatchedTransaction{Transaction: txns[i], MatchedClientID: outcome.ClientID}
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool exhausted or released; resolve inline rather than dropping the row
			s.logger.Warn("Worker pool submit failed, resolving inline", "error", err)
			task()
		}
	}
	wg.Wait()

	s.recorder.Record(ctx, resolveOperation, "Search queries completed in %.2f seconds.",
		s.now().Sub(start).Seconds())

	return results
}

// resolveOne applies the acceptance rule to a single transaction:
// zero hits means no match, a single hit is accepted unconditionally, and
// with two hits the top one must win by minScoreGap or the match is rejected
// as ambiguous.
func (s *ResolveService) resolveOne(ctx context.Context, txn *bank.Transaction) match.Result {
	none := match.Result{TransactionID: txn.ID}

	phrase := txn.SearchPhrase()
	if phrase == "" {
		s.recorder.Record(ctx, resolveOperation, "Skipped searching due to empty search terms.")
		return none
	}

	s.recorder.Record(ctx, resolveOperation, "Searching for: %s", phrase)
	hits, err := s.index.Search(ctx, phrase, candidateHits)
	if err != nil {
		s.recorder.Record(ctx, resolveOperation, "Search error for transaction %d: %v", txn.ID, err)
		return none
	}

	if len(hits) == 0 {
		s.recorder.Record(ctx, resolveOperation, "No matches found.")
		return none
	}

	top := hits[0]
	s.recorder.Record(ctx, resolveOperation, "Match found: ID %s with score %.2f", top.ID, top.Score)

	if len(hits) >= 2 && top.Score-hits[1].Score < minScoreGap {
		s.recorder.Record(ctx, resolveOperation, "Ambiguity detected. Close scores between top matches.")
		return none
	}

	clientID, err := strconv.ParseInt(top.ID, 10, 64)
	if err != nil {
		s.recorder.Record(ctx, resolveOperation, "Unexpected document id %q: %v", top.ID, err)
		return none
	}

	return match.Result{TransactionID: txn.ID, ClientID: &clientID, Accepted: true}
}
