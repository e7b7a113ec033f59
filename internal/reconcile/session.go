package reconcile

import (
	"sync"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/domain/client"
)

// Session holds the tables the dashboard is currently working with: the bank
// ledger snapshot, the consolidated client view and the latest matching
// overlay. It replaces ambient shared state with an explicit object owned by
// the presentation layer; the core services themselves only take and return
// values.
type Session struct {
	mu sync.RWMutex

	bank     []bank.Transaction
	combined []client.CombinedClient
	matched  []MatchedTransaction
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{}
}

// SetBank replaces the cached bank table snapshot
func (s *Session) SetBank(txns []bank.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bank = txns
}

// Bank returns the cached bank table snapshot
func (s *Session) Bank() []bank.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bank
}

// SetCombined replaces the cached consolidated client view
func (s *Session) SetCombined(combined []client.CombinedClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combined = combined
}

// Combined returns the cached consolidated client view
func (s *Session) Combined() []client.CombinedClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.combined
}

// SetMatched replaces the cached matching overlay
func (s *Session) SetMatched(matched []MatchedTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matched = matched
}

// Matched returns the cached matching overlay
func (s *Session) Matched() []MatchedTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matched
}
