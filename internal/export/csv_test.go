package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejcasil/dualledger/internal/model"
)

func sampleRows() []model.Transaction {
	return []model.Transaction{
		{
			ID:          1,
			Date:        "2026-01-10",
			Time:        "09:15:00 AM",
			Category:    "Income",
			Description: "Initial Balance",
			IncomingEJ:  1000,
			EJBalance:   1000,
			Total:       1000,
			CreatedAt:   time.Date(2026, 1, 10, 1, 15, 0, 0, time.UTC),
		},
		{
			ID:             2,
			Date:           "2026-01-12",
			Time:           "07:30:00 PM",
			Category:       "Food",
			Description:    "Dinner, fancy place",
			OutgoingShared: 80.50,
			EJBalance:      1000,
			SharedBalance:  -80.50,
			Total:          919.50,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, utf8BOM), "output must start with a BOM")

	cr := csv.NewReader(bytes.NewReader(out[len(utf8BOM):]))
	records, err := cr.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, "ID", header[0])
	assert.Contains(t, header, "Transaction")
	assert.Contains(t, header, "EJ & Neng Balance")
	assert.Contains(t, header, "Incoming (EJ & Neng)")

	first := records[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "2026-01-10", first[1])
	assert.Equal(t, "Initial Balance", first[4])
	assert.Equal(t, "1000.00", first[5])
	assert.Equal(t, "2026-01-10T01:15:00Z", first[len(first)-1])

	// A description containing a comma survives quoting.
	assert.Equal(t, "Dinner, fancy place", records[2][4])
	assert.Equal(t, "", records[2][len(records[2])-1], "zero CreatedAt renders empty")
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), utf8BOM)))
	records, err := cr.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "header only")
}

func TestReadLegacyCSV(t *testing.T) {
	t.Run("round-trips a current export", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, sampleRows()))

		rows, err := ReadLegacyCSV(&buf)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "2026-01-10", rows[0].Date)
		assert.Equal(t, "Initial Balance", rows[0].Description)
		assert.InDelta(t, 1000, rows[0].IncomingEJ, 0.001)

		// Derived and store-assigned columns come back zeroed.
		assert.Zero(t, rows[0].ID)
		assert.Zero(t, rows[0].EJBalance)
		assert.Zero(t, rows[1].Total)
		assert.InDelta(t, 80.50, rows[1].OutgoingShared, 0.001)
	})

	t.Run("accepts spreadsheet-era headers", func(t *testing.T) {
		input := "Date,Transaction,Incoming Shared,Outgoing Shared,Shared Balance\n" +
			"2024-06-01,Rent,,1200.00,3400.00\n" +
			"2024-06-02,Transfer,500,,3900.00\n"

		rows, err := ReadLegacyCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Rent", rows[0].Description)
		assert.InDelta(t, 1200, rows[0].OutgoingShared, 0.001)
		assert.Zero(t, rows[0].IncomingShared, "blank amount defaults to 0")
		assert.InDelta(t, 500, rows[1].IncomingShared, 0.001)
		assert.Zero(t, rows[0].SharedBalance, "balance columns are ignored")
	})

	t.Run("skips unknown columns", func(t *testing.T) {
		input := "Date,Transaction,Notes\n2024-06-01,Rent,ignore me\n"
		rows, err := ReadLegacyCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Rent", rows[0].Description)
	})

	t.Run("strips a leading BOM", func(t *testing.T) {
		input := string(utf8BOM) + "Date,Transaction\n2024-06-01,Rent\n"
		rows, err := ReadLegacyCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "header without a date column",
			input: "Transaction,Incoming EJ\nRent,100\n",
		},
		{
			name:  "row with a missing date",
			input: "Date,Transaction\n,Rent\n",
		},
		{
			name:  "row with a malformed date",
			input: "Date,Transaction\n01/06/2024,Rent\n",
		},
		{
			name:  "row with a bad amount",
			input: "Date,Incoming EJ\n2024-06-01,lots\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLegacyCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
