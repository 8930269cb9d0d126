// Package export renders the ledger for download and reads legacy exports
// back in.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ejcasil/dualledger/internal/model"
)

// utf8BOM keeps spreadsheet applications from misreading the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV dumps every transaction, one row each, with a header of display
// names, as UTF-8 with a byte-order mark. Rows are written in the order
// given; callers pass the ledger's (date, id) ordering through unchanged.
func WriteCSV(w io.Writer, rows []model.Transaction) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	fields := model.Fields()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Label()
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(fields))
	for i := range rows {
		for j, f := range fields {
			record[j] = fieldValue(&rows[i], f)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rows[i].ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// fieldValue formats one column of a transaction for export.
func fieldValue(t *model.Transaction, f model.Field) string {
	switch f {
	case model.FieldID:
		return strconv.FormatInt(t.ID, 10)
	case model.FieldDate:
		return t.Date
	case model.FieldTime:
		return t.Time
	case model.FieldCategory:
		return t.Category
	case model.FieldDescription:
		return t.Description
	case model.FieldEJBalance:
		return formatAmount(t.EJBalance)
	case model.FieldSharedBalance:
		return formatAmount(t.SharedBalance)
	case model.FieldIncomingEJ:
		return formatAmount(t.IncomingEJ)
	case model.FieldOutgoingEJ:
		return formatAmount(t.OutgoingEJ)
	case model.FieldIncomingShared:
		return formatAmount(t.IncomingShared)
	case model.FieldOutgoingShared:
		return formatAmount(t.OutgoingShared)
	case model.FieldTotal:
		return formatAmount(t.Total)
	case model.FieldReceipt:
		return t.Receipt
	case model.FieldCreatedAt:
		if t.CreatedAt.IsZero() {
			return ""
		}
		return t.CreatedAt.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
