package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ejcasil/dualledger/internal/cli"
)

func accrueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accrue",
		Short: "Backfill daily interest entries",
		Long: `Scan the ledger for the last logged interest date and append one entry
per missing day up to today, compounding within the pass. Safe to run
repeatedly; days already logged are never credited twice.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			added, err := l.Accrue(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("accrual stopped after %d entries: %w", added, err)
			}

			if added == 0 {
				fmt.Println(cli.InfoStyle.Render("Interest is already up to date."))
				return nil
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Added %d interest entries.", added)))
			return nil
		},
	}
}
