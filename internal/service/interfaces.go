// Package service defines the interfaces the ledger engine consumes.
package service

import (
	"context"
	"io"

	"github.com/ejcasil/dualledger/internal/model"
)

// TransactionFields is a partial update for a transaction row. Nil fields
// are left untouched by the store. Derived balance columns are deliberately
// absent; only the recalculation engine writes those, through
// UpdateBalances.
type TransactionFields struct {
	Date           *string
	Time           *string
	Category       *string
	Description    *string
	Receipt        *string
	IncomingEJ     *float64
	OutgoingEJ     *float64
	IncomingShared *float64
	OutgoingShared *float64
}

// Empty reports whether no field is set.
func (f TransactionFields) Empty() bool {
	return f.Date == nil && f.Time == nil && f.Category == nil &&
		f.Description == nil && f.Receipt == nil &&
		f.IncomingEJ == nil && f.OutgoingEJ == nil &&
		f.IncomingShared == nil && f.OutgoingShared == nil
}

// BalanceUpdate carries recomputed running balances for a single row.
type BalanceUpdate struct {
	ID            int64
	EJBalance     float64
	SharedBalance float64
	Total         float64
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Transaction operations. ListTransactions returns rows ordered by
	// (date ASC, id ASC); id breaks same-date ties in insertion order.
	InsertTransaction(ctx context.Context, txn *model.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, id int64, fields TransactionFields) error
	DeleteTransaction(ctx context.Context, id int64) error
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	CountTransactions(ctx context.Context) (int, error)

	// LastBalances returns the balances of the final row under (date, id)
	// ordering, or zeros when the ledger is empty.
	LastBalances(ctx context.Context) (ejBalance, sharedBalance float64, err error)

	// EntryExists is an exact-match probe on (date, description).
	EntryExists(ctx context.Context, date, description string) (bool, error)

	// UpdateBalances writes only the derived balance columns, as one batch.
	UpdateBalances(ctx context.Context, updates []BalanceUpdate) error

	// Chat widget persistence.
	ChatMessages(ctx context.Context, limit int) ([]model.ChatMessage, error)
	AddChatMessage(ctx context.Context, msg *model.ChatMessage) error

	// Database management.
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is the transactional surface the recalculation engine needs: read the
// full ordered row set and write balances back atomically.
type Tx interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	UpdateBalances(ctx context.Context, updates []BalanceUpdate) error
	Commit() error
	Rollback() error
}

// AttachmentStore stores receipt files referenced by transactions.
type AttachmentStore interface {
	Upload(ctx context.Context, filename string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
	URLFor(ref string) string
}
