// Package bankmock is a stand-in remote bank: an HTTP service over its own
// transaction table that the dashboard's sync engine pulls from during
// development and testing.
package bankmock

import (
	"github.com/shopspring/decimal"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
)

// Transaction is one remote bank row as served over the wire. Unlike ledger
// rows it carries no sync date; that is assigned by the consumer at ingest.
type Transaction struct {
	ID          int64               `json:"id"`
	Date        bank.Date           `json:"date"`
	Type        *string             `json:"type"`
	Sender      *string             `json:"sender"`
	Description *string             `json:"description"`
	Amount      decimal.NullDecimal `json:"amount"`
}
