package ledger

import (
	"context"
	"fmt"
	"math"

	"github.com/ejcasil/dualledger/internal/model"
	"github.com/ejcasil/dualledger/internal/service"
)

// balanceTolerance is the absolute difference below which a stored balance
// is considered already correct and no write is emitted. Keeps float jitter
// from turning every recalculation into a full-table rewrite.
const balanceTolerance = 0.01

// computeBalanceUpdates walks rows already ordered by (date, id) with two
// running accumulators and returns an update for every row whose stored
// balances drifted past the tolerance. Total is always rewritten alongside
// the balances so the three derived columns stay consistent.
func computeBalanceUpdates(rows []model.Transaction) []service.BalanceUpdate {
	var (
		ejBalance     float64
		sharedBalance float64
		updates       []service.BalanceUpdate
	)

	for i := range rows {
		row := &rows[i]
		ejBalance += row.DeltaEJ()
		sharedBalance += row.DeltaShared()
		total := ejBalance + sharedBalance

		if math.Abs(row.EJBalance-ejBalance) > balanceTolerance ||
			math.Abs(row.SharedBalance-sharedBalance) > balanceTolerance {
			updates = append(updates, service.BalanceUpdate{
				ID:            row.ID,
				EJBalance:     ejBalance,
				SharedBalance: sharedBalance,
				Total:         total,
			})
		}
	}
	return updates
}

// recalculate recomputes every running balance from scratch and writes back
// the rows that changed, all within one store transaction. Callers must hold
// the ledger mutex; the fetch+compute+write sequence is the critical section
// that keeps concurrent mutations from clobbering each other.
func (l *Ledger) recalculate(ctx context.Context) (int, error) {
	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin recalculation: %w", err)
	}

	rows, err := tx.ListTransactions(ctx)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	updates := computeBalanceUpdates(rows)
	if len(updates) == 0 {
		_ = tx.Rollback()
		return 0, nil
	}

	if err := tx.UpdateBalances(ctx, updates); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to write balances: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit recalculation: %w", err)
	}
	return len(updates), nil
}

// Recalculate recomputes running balances for the whole ledger and returns
// the number of rows rewritten. Idempotent: a second run on an unchanged
// ledger writes nothing.
func (l *Ledger) Recalculate(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recalculate(ctx)
}
