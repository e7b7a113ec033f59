// Package match contains the ephemeral outcome types of identity resolution.
package match

// Hit is one relevance-ranked candidate returned by the search index.
// ID is the document identifier (the client id as a string).
type Hit struct {
	ID    string
	Score float64
}

// Result records the resolution outcome for one bank transaction.
// Results are produced per resolution pass and never persisted; the caller
// may cache a pass's output but each invocation recomputes from scratch.
type Result struct {
	TransactionID int64  `json:"transaction_id"`
	ClientID      *int64 `json:"matched_client_id"`
	Accepted      bool   `json:"accepted"`
}
