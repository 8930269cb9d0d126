package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ejcasil/dualledger/internal/cli"
	"github.com/ejcasil/dualledger/internal/export"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger to CSV or XLSX",
		Long: `Write the full ledger, in (date, id) order, to a file. The format is
chosen by extension: .csv (UTF-8 with BOM) or .xlsx.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			format := filepath.Ext(output)
			if format != ".csv" && format != ".xlsx" {
				return fmt.Errorf("unsupported export format %q (use .csv or .xlsx)", format)
			}

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rows, err := l.GetAllTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to load ledger: %w", err)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer func() { _ = f.Close() }()

			switch format {
			case ".csv":
				err = export.WriteCSV(f, rows)
			case ".xlsx":
				err = export.WriteXLSX(f, rows)
			}
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Exported %d transactions to %s.", len(rows), output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "ledger.csv", "output file (.csv or .xlsx)")

	return cmd
}
