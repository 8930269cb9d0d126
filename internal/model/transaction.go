// Package model defines the core domain types for the dual-account ledger.
package model

import "time"

// Layouts used for the calendar date and the display-only entry time.
// Dates are stored as text; this layout sorts lexically in chronological order.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "03:04:05 PM"
)

// Transaction is one ledger row. The two tracked balances are "EJ" and
// "EJ & Neng"; each row carries the deltas applied to them plus the running
// balances derived from every row at or before it in (date, id) order.
type Transaction struct {
	CreatedAt      time.Time
	Date           string
	Time           string
	Category       string
	Description    string
	Receipt        string
	ID             int64
	IncomingEJ     float64
	OutgoingEJ     float64
	IncomingShared float64
	OutgoingShared float64

	// Derived running values, owned by the recalculation engine.
	EJBalance     float64
	SharedBalance float64
	Total         float64
}

// DeltaEJ is the net change this row applies to the EJ balance.
func (t *Transaction) DeltaEJ() float64 {
	return t.IncomingEJ - t.OutgoingEJ
}

// DeltaShared is the net change this row applies to the shared balance.
func (t *Transaction) DeltaShared() float64 {
	return t.IncomingShared - t.OutgoingShared
}

// DateValue parses the row's calendar date.
func (t *Transaction) DateValue() (time.Time, error) {
	return time.Parse(DateLayout, t.Date)
}
