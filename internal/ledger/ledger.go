// Package ledger implements the dual-account ledger: entry-level operations,
// full-ledger balance recalculation, and tiered daily interest accrual.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/ejcasil/dualledger/internal/common"
	"github.com/ejcasil/dualledger/internal/model"
	"github.com/ejcasil/dualledger/internal/service"
)

// Ledger is the facade over the transaction store. It owns the derived
// balance columns and guarantees recalculation runs after every mutation.
// A single mutex serializes all mutating paths; the store alone cannot
// protect the fetch-all/compute/write-back sequence from interleaving.
type Ledger struct {
	store       service.Storage
	attachments service.AttachmentStore
	mu          sync.Mutex
}

// New creates a ledger facade over the given store. The attachment store is
// optional; receipt operations fail cleanly without one.
func New(store service.Storage, attachments service.AttachmentStore) *Ledger {
	return &Ledger{
		store:       store,
		attachments: attachments,
	}
}

// AddEntry inserts a row and recalculates, unless recalculation is deferred
// for batching (interest backfill, CSV import). The entry time defaults to
// the current reporting-timezone clock when blank.
func (l *Ledger) AddEntry(ctx context.Context, entry *model.Transaction, recalculate bool) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addEntry(ctx, entry, recalculate)
}

func (l *Ledger) addEntry(ctx context.Context, entry *model.Transaction, recalculate bool) (int64, error) {
	if entry == nil {
		return 0, fmt.Errorf("entry cannot be nil")
	}
	if entry.Time == "" {
		entry.Time = model.NowDisplay()
	}

	// At most one interest entry may exist per accrual date. The accrual
	// engine probes before inserting; this guard holds the invariant against
	// manual entries too.
	if entry.Description == InterestDescription && entry.Date != "" {
		exists, err := l.store.EntryExists(ctx, entry.Date, entry.Description)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, fmt.Errorf("interest for %s: %w", entry.Date, common.ErrDuplicateEntry)
		}
	}

	// Seed the derived columns from the current tail so a row appended at
	// the end is immediately consistent; recalculation remains authoritative
	// for backdated rows.
	ejBalance, sharedBalance, err := l.store.LastBalances(ctx)
	if err != nil {
		return 0, err
	}
	entry.EJBalance = round2(ejBalance + entry.DeltaEJ())
	entry.SharedBalance = round2(sharedBalance + entry.DeltaShared())
	entry.Total = round2(entry.EJBalance + entry.SharedBalance)

	id, err := l.store.InsertTransaction(ctx, entry)
	if err != nil {
		return 0, err
	}

	if recalculate {
		if _, err := l.recalculate(ctx); err != nil {
			return id, err
		}
	}
	return id, nil
}

// UpdateEntry applies a partial update and recalculates. Derived balance
// columns cannot be set through this path; service.TransactionFields does
// not carry them.
func (l *Ledger) UpdateEntry(ctx context.Context, id int64, fields service.TransactionFields, recalculate bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.UpdateTransaction(ctx, id, fields); err != nil {
		return err
	}
	if recalculate {
		if _, err := l.recalculate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DeleteEntry removes a row and always recalculates. A receipt attached to
// the row is deleted best-effort; a stale file never blocks the delete.
func (l *Ledger) DeleteEntry(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	if entry.Receipt != "" && l.attachments != nil {
		if err := l.attachments.Delete(ctx, entry.Receipt); err != nil {
			slog.Warn("Failed to delete receipt for removed entry", "id", id, "receipt", entry.Receipt, "error", err)
		}
	}

	_, err = l.recalculate(ctx)
	return err
}

// GetEntry retrieves a single row.
func (l *Ledger) GetEntry(ctx context.Context, id int64) (*model.Transaction, error) {
	return l.store.GetTransaction(ctx, id)
}

// GetAllTransactions returns the full ledger in (date, id) order.
func (l *Ledger) GetAllTransactions(ctx context.Context) ([]model.Transaction, error) {
	return l.store.ListTransactions(ctx)
}

// GetLastBalances returns the current balances, zeros on an empty ledger.
func (l *Ledger) GetLastBalances(ctx context.Context) (ejBalance, sharedBalance float64, err error) {
	return l.store.LastBalances(ctx)
}

// CheckEntryExists is an exact-match probe on (date, description).
func (l *Ledger) CheckEntryExists(ctx context.Context, date, description string) (bool, error) {
	return l.store.EntryExists(ctx, date, description)
}

// InitializeLedger seeds an empty ledger with an "Initial Balance" row. The
// starting amounts are recorded as incoming deltas so the running-balance
// recurrence reproduces them on every recalculation.
func (l *Ledger) InitializeLedger(ctx context.Context, startEJ, startShared float64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if startEJ < 0 || startShared < 0 {
		return 0, common.ErrNegativeAmount
	}

	count, err := l.store.CountTransactions(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, common.ErrAlreadyInitialized
	}

	entry := &model.Transaction{
		Date:           model.Today(),
		Time:           model.NowDisplay(),
		Description:    "Initial Balance",
		IncomingEJ:     startEJ,
		IncomingShared: startShared,
	}
	return l.addEntry(ctx, entry, false)
}

// AttachReceipt uploads a receipt file and records its reference on the row.
// Receipts cannot affect balances, so no recalculation runs.
func (l *Ledger) AttachReceipt(ctx context.Context, id int64, filename string, r io.Reader, contentType string) (string, error) {
	if l.attachments == nil {
		return "", fmt.Errorf("no attachment store configured")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return "", err
	}

	ref, err := l.attachments.Upload(ctx, filename, r, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}

	if err := l.store.UpdateTransaction(ctx, id, service.TransactionFields{Receipt: &ref}); err != nil {
		if delErr := l.attachments.Delete(ctx, ref); delErr != nil {
			slog.Warn("Failed to clean up orphaned receipt", "receipt", ref, "error", delErr)
		}
		return "", err
	}

	// Replace, don't accumulate: drop the previous file once the row points
	// at the new one.
	if entry.Receipt != "" {
		if err := l.attachments.Delete(ctx, entry.Receipt); err != nil {
			slog.Warn("Failed to delete replaced receipt", "receipt", entry.Receipt, "error", err)
		}
	}
	return ref, nil
}

// ClearReceipt removes a row's receipt reference and file. This is the one
// update that bypasses recalculation: it cannot affect balances.
func (l *Ledger) ClearReceipt(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if entry.Receipt == "" {
		return fmt.Errorf("transaction %d: %w", id, common.ErrNoReceipt)
	}

	empty := ""
	if err := l.store.UpdateTransaction(ctx, id, service.TransactionFields{Receipt: &empty}); err != nil {
		return err
	}

	if l.attachments != nil {
		if err := l.attachments.Delete(ctx, entry.Receipt); err != nil {
			slog.Warn("Failed to delete cleared receipt", "receipt", entry.Receipt, "error", err)
		}
	}
	return nil
}

// ReceiptURL resolves a row's receipt reference to a servable URL.
func (l *Ledger) ReceiptURL(ctx context.Context, id int64) (string, error) {
	if l.attachments == nil {
		return "", fmt.Errorf("no attachment store configured")
	}

	entry, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return "", err
	}
	if entry.Receipt == "" {
		return "", fmt.Errorf("transaction %d: %w", id, common.ErrNoReceipt)
	}
	return l.attachments.URLFor(entry.Receipt), nil
}

// ChatMessages returns the most recent chat messages, oldest first.
func (l *Ledger) ChatMessages(ctx context.Context) ([]model.ChatMessage, error) {
	return l.store.ChatMessages(ctx, 50)
}

// AddChatMessage appends a message to the chat widget.
func (l *Ledger) AddChatMessage(ctx context.Context, nickname, message string) error {
	return l.store.AddChatMessage(ctx, &model.ChatMessage{
		Nickname: nickname,
		Message:  message,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
