package handler

import (
	"time"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/reconcile"
)

// SyncRequest is the body of POST /sync
type SyncRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// SyncResponse reports the sync outcome together with the refreshed ledger table
type SyncResponse struct {
	Status       string                `json:"status"`
	Inserted     int64                 `json:"inserted"`
	Transactions []TransactionResponse `json:"transactions"`
}

// TransactionResponse is one bank ledger row ready for tabular display
type TransactionResponse struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	Type         string `json:"type"`
	Sender       string `json:"sender"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
	BankSyncDate string `json:"bank_sync_date"`
	MatchedID    *int64 `json:"matched_client_id,omitempty"`
}

// LogEntryResponse is one operation log line for the UI log panel
type LogEntryResponse struct {
	Timestamp string `json:"timestamp"`
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

func mapTransactionToResponse(t *bank.Transaction) TransactionResponse {
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	amount := ""
	if t.Amount.Valid {
		amount = t.Amount.Decimal.String()
	}
	syncDate := ""
	if !t.BankSyncDate.IsZero() {
		syncDate = t.BankSyncDate.Format(time.RFC3339)
	}
	return TransactionResponse{
		ID:           t.ID,
		Date:         t.Date.Format(bank.DateLayout),
		Type:         str(t.Type),
		Sender:       str(t.Sender),
		Description:  str(t.Description),
		Amount:       amount,
		BankSyncDate: syncDate,
	}
}

func mapTransactionsToResponse(txns []bank.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, mapTransactionToResponse(&txns[i]))
	}
	return out
}

func mapMatchedToResponse(matched []reconcile.MatchedTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(matched))
	for i := range matched {
		row := mapTransactionToResponse(&matched[i].Transaction)
		row.MatchedID = matched[i].MatchedClientID
		out = append(out, row)
	}
	return out
}

// mapCombinedToRows flattens consolidated records into fixed-width display
// rows; every row carries the same column set, sized to the widest client.
func mapCombinedToRows(combined []client.CombinedClient) []map[string]interface{} {
	width := client.MaxStudents(combined)
	rows := make([]map[string]interface{}, 0, len(combined))
	for i := range combined {
		rows = append(rows, combined[i].SearchDocument(width).Fields)
	}
	return rows
}
