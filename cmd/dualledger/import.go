package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ejcasil/dualledger/internal/cli"
	"github.com/ejcasil/dualledger/internal/export"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a legacy CSV ledger",
		Long: `Read a ledger CSV (current or spreadsheet-era headers) and insert every
row. Balances are recomputed once at the end, not per row.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			rows, err := export.ReadLegacyCSV(f)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("Nothing to import."))
				return nil
			}

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bar := progressbar.NewOptions(len(rows),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Importing transactions..."),
			)

			for i := range rows {
				// Recalculation is deferred to a single pass after the batch.
				if _, err := l.AddEntry(ctx, &rows[i], false); err != nil {
					return fmt.Errorf("failed to import row %d: %w", i+1, err)
				}
				_ = bar.Add(1)
			}
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)

			if _, err := l.Recalculate(ctx); err != nil {
				return fmt.Errorf("failed to recalculate balances: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Imported %d transactions.", len(rows))))
			return nil
		},
	}

	return cmd
}
