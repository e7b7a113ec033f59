// Package bank contains the bank transaction ledger domain model.
package bank

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for transaction dates used by the remote bank API.
const DateLayout = "2006-01-02"

// Date is a calendar date (no time component) marshaled as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate builds a Date truncated to UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// MarshalJSON renders the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction represents one bank transaction row.
//
// Rows are immutable once stored; BankSyncDate is assigned locally when the
// transaction is first ingested from the remote source. The matched client id
// produced by identity resolution is an in-memory overlay and is deliberately
// not part of this type.
type Transaction struct {
	ID           int64               `json:"id"`
	Date         Date                `json:"date"`
	Type         *string             `json:"type"`
	Sender       *string             `json:"sender"`
	Description  *string             `json:"description"`
	Amount       decimal.NullDecimal `json:"amount"`
	BankSyncDate time.Time           `json:"bank_sync_date"`
}

// SearchPhrase derives the text used for client matching: sender and
// description joined with a single space, missing fields treated as empty,
// surrounding whitespace trimmed. An empty result means the transaction
// cannot be matched.
func (t *Transaction) SearchPhrase() string {
	var sender, description string
	if t.Sender != nil {
		sender = *t.Sender
	}
	if t.Description != nil {
		description = *t.Description
	}
	return strings.TrimSpace(sender + " " + description)
}

// LogLine renders the transaction the way it appears in the operation log,
// one pipe-separated line per newly synced row.
func (t *Transaction) LogLine() string {
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
	return fmt.Sprintf("%s | %s | %s | %s | %s",
		t.Date.Format(DateLayout), str(t.Type), str(t.Sender), str(t.Description), amount)
}
