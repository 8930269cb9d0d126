package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ejcasil/dualledger/internal/model"
)

const sheetName = "Ledger"

// WriteXLSX renders the ledger as a single-sheet workbook with the same
// columns and ordering as the CSV export.
func WriteXLSX(w io.Writer, rows []model.Transaction) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	fields := model.Fields()
	for col, field := range fields {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, field.Label()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i := range rows {
		for col, field := range fields {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, xlsxValue(&rows[i], field)); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rows[i].ID, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// xlsxValue keeps numeric columns numeric in the workbook; everything else
// reuses the CSV string formatting.
func xlsxValue(t *model.Transaction, f model.Field) any {
	switch f {
	case model.FieldID:
		return t.ID
	case model.FieldEJBalance:
		return t.EJBalance
	case model.FieldSharedBalance:
		return t.SharedBalance
	case model.FieldIncomingEJ:
		return t.IncomingEJ
	case model.FieldOutgoingEJ:
		return t.OutgoingEJ
	case model.FieldIncomingShared:
		return t.IncomingShared
	case model.FieldOutgoingShared:
		return t.OutgoingShared
	case model.FieldTotal:
		return t.Total
	default:
		return fieldValue(t, f)
	}
}
