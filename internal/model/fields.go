package model

import "fmt"

// Field identifies one transaction column. The explicit mapping below ties
// each field to its storage column and its display label; both directions
// are verified to be bijective at startup so a new field cannot silently
// drop out of exports or displays.
type Field int

// Transaction fields in export order.
const (
	FieldID Field = iota
	FieldDate
	FieldTime
	FieldCategory
	FieldDescription
	FieldEJBalance
	FieldSharedBalance
	FieldIncomingEJ
	FieldOutgoingEJ
	FieldIncomingShared
	FieldOutgoingShared
	FieldTotal
	FieldReceipt
	FieldCreatedAt
)

type fieldInfo struct {
	Column string
	Label  string
}

var fieldTable = map[Field]fieldInfo{
	FieldID:             {Column: "id", Label: "ID"},
	FieldDate:           {Column: "date", Label: "Date"},
	FieldTime:           {Column: "time", Label: "Time"},
	FieldCategory:       {Column: "category", Label: "Category"},
	FieldDescription:    {Column: "description", Label: "Transaction"},
	FieldEJBalance:      {Column: "ej_balance", Label: "EJ Balance"},
	FieldSharedBalance:  {Column: "ej_neng_balance", Label: "EJ & Neng Balance"},
	FieldIncomingEJ:     {Column: "incoming_ej", Label: "Incoming EJ"},
	FieldOutgoingEJ:     {Column: "outgoing_ej", Label: "Outgoing EJ"},
	FieldIncomingShared: {Column: "incoming_ej_neng", Label: "Incoming (EJ & Neng)"},
	FieldOutgoingShared: {Column: "outgoing_ej_neng", Label: "Outgoing (EJ & Neng)"},
	FieldTotal:          {Column: "total", Label: "Total"},
	FieldReceipt:        {Column: "receipt", Label: "Receipt"},
	FieldCreatedAt:      {Column: "created_at", Label: "Created At"},
}

// Fields returns every transaction field in export order.
func Fields() []Field {
	return []Field{
		FieldID, FieldDate, FieldTime, FieldCategory, FieldDescription,
		FieldEJBalance, FieldSharedBalance,
		FieldIncomingEJ, FieldOutgoingEJ, FieldIncomingShared, FieldOutgoingShared,
		FieldTotal, FieldReceipt, FieldCreatedAt,
	}
}

// Column returns the storage column name for a field.
func (f Field) Column() string {
	return fieldTable[f].Column
}

// Label returns the human-readable display name for a field.
func (f Field) Label() string {
	return fieldTable[f].Label
}

// FieldByLabel resolves a display name back to its field. Legacy labels from
// the pre-rename ledger exports are accepted so old CSV files still import.
func FieldByLabel(label string) (Field, bool) {
	switch label {
	case "Shared Balance":
		return FieldSharedBalance, true
	case "Incoming Shared":
		return FieldIncomingShared, true
	case "Outgoing Shared":
		return FieldOutgoingShared, true
	}
	for f, info := range fieldTable {
		if info.Label == label {
			return f, true
		}
	}
	return 0, false
}

// ValidateFieldTable checks that the field mapping is a bijection in both
// directions. Called once at process start.
func ValidateFieldTable() error {
	fields := Fields()
	if len(fields) != len(fieldTable) {
		return fmt.Errorf("field table has %d entries but %d fields are declared", len(fieldTable), len(fields))
	}

	columns := make(map[string]Field, len(fieldTable))
	labels := make(map[string]Field, len(fieldTable))
	for _, f := range fields {
		info, ok := fieldTable[f]
		if !ok {
			return fmt.Errorf("field %d missing from field table", f)
		}
		if info.Column == "" || info.Label == "" {
			return fmt.Errorf("field %d has an empty column or label", f)
		}
		if prev, dup := columns[info.Column]; dup {
			return fmt.Errorf("column %q mapped by both field %d and field %d", info.Column, prev, f)
		}
		if prev, dup := labels[info.Label]; dup {
			return fmt.Errorf("label %q mapped by both field %d and field %d", info.Label, prev, f)
		}
		columns[info.Column] = f
		labels[info.Label] = f
	}
	return nil
}
