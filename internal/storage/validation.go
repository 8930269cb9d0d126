// Package storage provides the data persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ejcasil/dualledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidID          = errors.New("id must be positive")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrEmptyUpdate        = errors.New("update contains no fields")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures a row id is positive.
func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidID, id)
	}
	return nil
}

// validateTransaction validates a single transaction before insert.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date == "" {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if _, err := time.Parse(model.DateLayout, txn.Date); err != nil {
		return fmt.Errorf("%w: bad date %q", ErrInvalidTransaction, txn.Date)
	}
	for _, amount := range []float64{txn.IncomingEJ, txn.OutgoingEJ, txn.IncomingShared, txn.OutgoingShared} {
		if amount < 0 {
			return fmt.Errorf("%w: negative amount", ErrInvalidTransaction)
		}
	}
	return nil
}
