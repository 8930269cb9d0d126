package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ejcasil/dualledger/internal/common"
	"github.com/ejcasil/dualledger/internal/model"
	"github.com/ejcasil/dualledger/internal/service"
)

const transactionColumns = `id, date, time, category, description,
	incoming_ej, outgoing_ej, incoming_ej_neng, outgoing_ej_neng,
	ej_balance, ej_neng_balance, total, receipt, created_at`

// InsertTransaction inserts a row and returns the store-assigned id.
// CreatedAt is stamped in UTC when unset.
func (s *SQLiteStorage) InsertTransaction(ctx context.Context, txn *model.Transaction) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransaction(txn); err != nil {
		return 0, err
	}

	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			date, time, category, description,
			incoming_ej, outgoing_ej, incoming_ej_neng, outgoing_ej_neng,
			ej_balance, ej_neng_balance, total, receipt, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.Date,
		txn.Time,
		txn.Category,
		txn.Description,
		txn.IncomingEJ,
		txn.OutgoingEJ,
		txn.IncomingShared,
		txn.OutgoingShared,
		txn.EJBalance,
		txn.SharedBalance,
		txn.Total,
		txn.Receipt,
		txn.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	txn.ID = id
	return id, nil
}

// UpdateTransaction applies a partial update; unset fields are untouched.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, id int64, fields service.TransactionFields) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if fields.Empty() {
		return ErrEmptyUpdate
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if fields.Date != nil {
		if _, err := time.Parse(model.DateLayout, *fields.Date); err != nil {
			return fmt.Errorf("%w: bad date %q", ErrInvalidTransaction, *fields.Date)
		}
		set("date", *fields.Date)
	}
	if fields.Time != nil {
		set("time", *fields.Time)
	}
	if fields.Category != nil {
		set("category", *fields.Category)
	}
	if fields.Description != nil {
		set("description", *fields.Description)
	}
	if fields.Receipt != nil {
		set("receipt", *fields.Receipt)
	}
	if fields.IncomingEJ != nil {
		set("incoming_ej", *fields.IncomingEJ)
	}
	if fields.OutgoingEJ != nil {
		set("outgoing_ej", *fields.OutgoingEJ)
	}
	if fields.IncomingShared != nil {
		set("incoming_ej_neng", *fields.IncomingShared)
	}
	if fields.OutgoingShared != nil {
		set("outgoing_ej_neng", *fields.OutgoingShared)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a row. Ids are never reused; AUTOINCREMENT keeps
// the sequence monotonic across deletes.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// GetTransaction retrieves a single row by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return txn, nil
}

// ListTransactions returns every row ordered by (date ASC, id ASC). Date is
// the primary key of the ordering; id breaks same-date ties in insertion
// order.
func (s *SQLiteStorage) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listTransactionsTx(ctx, s.db)
}

func (s *SQLiteStorage) listTransactionsTx(ctx context.Context, q queryable) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY date ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// CountTransactions returns the number of ledger rows.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// LastBalances returns the running balances of the last row under (date, id)
// ordering, or zeros when the ledger is empty. The last row by primary key
// alone is not sufficient because entries may be authored for past dates.
func (s *SQLiteStorage) LastBalances(ctx context.Context) (float64, float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, 0, err
	}

	var ejBalance, sharedBalance float64
	err := s.db.QueryRowContext(ctx, `
		SELECT ej_balance, ej_neng_balance FROM transactions
		ORDER BY date DESC, id DESC LIMIT 1`).Scan(&ejBalance, &sharedBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get last balances: %w", err)
	}
	return ejBalance, sharedBalance, nil
}

// EntryExists is an exact-match existence probe on (date, description).
func (s *SQLiteStorage) EntryExists(ctx context.Context, date, description string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(date, "date"); err != nil {
		return false, err
	}
	if err := validateString(description, "description"); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM transactions WHERE date = ? AND description = ?
		)`, date, description).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entry existence: %w", err)
	}
	return exists, nil
}

// UpdateBalances writes recomputed running balances as one batch. Only the
// derived columns are touched.
func (s *SQLiteStorage) UpdateBalances(ctx context.Context, updates []service.BalanceUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.updateBalancesTx(ctx, tx, updates); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) updateBalancesTx(ctx context.Context, q queryable, updates []service.BalanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, `
		UPDATE transactions
		SET ej_balance = ?, ej_neng_balance = ?, total = ?
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare balance update: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.EJBalance, u.SharedBalance, u.Total, u.ID); err != nil {
			return fmt.Errorf("failed to update balances for row %d: %w", u.ID, err)
		}
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.Scan(
		&txn.ID,
		&txn.Date,
		&txn.Time,
		&txn.Category,
		&txn.Description,
		&txn.IncomingEJ,
		&txn.OutgoingEJ,
		&txn.IncomingShared,
		&txn.OutgoingShared,
		&txn.EJBalance,
		&txn.SharedBalance,
		&txn.Total,
		&txn.Receipt,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
