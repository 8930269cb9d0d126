package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ejcasil/dualledger/internal/model"
)

// ReadLegacyCSV parses a ledger exported by this tool or by the old
// spreadsheet-era tracker. Headers are display names; the pre-rename
// "Shared Balance" era labels are accepted too. Derived balance columns and
// ids are ignored; the recalculation engine owns the former and the store
// assigns the latter. Blank amounts default to 0.
func ReadLegacyCSV(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	}

	columns := make(map[int]model.Field, len(header))
	for i, label := range header {
		field, ok := model.FieldByLabel(strings.TrimSpace(label))
		if !ok {
			continue // unknown columns are skipped, not fatal
		}
		columns[i] = field
	}
	if !hasField(columns, model.FieldDate) {
		return nil, fmt.Errorf("header has no Date column")
	}

	var rows []model.Transaction
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var txn model.Transaction
		for i, value := range record {
			field, ok := columns[i]
			if !ok {
				continue
			}
			if err := setField(&txn, field, strings.TrimSpace(value)); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if txn.Date == "" {
			return nil, fmt.Errorf("line %d: missing date", line)
		}
		if _, err := time.Parse(model.DateLayout, txn.Date); err != nil {
			return nil, fmt.Errorf("line %d: bad date %q", line, txn.Date)
		}
		rows = append(rows, txn)
	}
	return rows, nil
}

func hasField(columns map[int]model.Field, want model.Field) bool {
	for _, f := range columns {
		if f == want {
			return true
		}
	}
	return false
}

func setField(txn *model.Transaction, field model.Field, value string) error {
	switch field {
	case model.FieldDate:
		txn.Date = value
	case model.FieldTime:
		txn.Time = value
	case model.FieldCategory:
		txn.Category = value
	case model.FieldDescription:
		txn.Description = value
	case model.FieldIncomingEJ:
		return setAmount(&txn.IncomingEJ, field, value)
	case model.FieldOutgoingEJ:
		return setAmount(&txn.OutgoingEJ, field, value)
	case model.FieldIncomingShared:
		return setAmount(&txn.IncomingShared, field, value)
	case model.FieldOutgoingShared:
		return setAmount(&txn.OutgoingShared, field, value)
	case model.FieldID, model.FieldEJBalance, model.FieldSharedBalance,
		model.FieldTotal, model.FieldReceipt, model.FieldCreatedAt:
		// Store-assigned or derived; recomputed after import.
	}
	return nil
}

func setAmount(dst *float64, field model.Field, value string) error {
	if value == "" {
		*dst = 0
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("bad amount %q for %s", value, field.Label())
	}
	*dst = v
	return nil
}
