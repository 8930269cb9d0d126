package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ejcasil/dualledger/internal/cli"
	"github.com/ejcasil/dualledger/internal/common"
)

func initCmd() *cobra.Command {
	var (
		ejStart     float64
		sharedStart float64
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger with starting balances",
		Long: `Seed an empty ledger with an "Initial Balance" row. The starting amounts
are recorded as incoming deltas so recalculation always reproduces them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			id, err := l.InitializeLedger(ctx, ejStart, sharedStart)
			if errors.Is(err, common.ErrAlreadyInitialized) {
				fmt.Println(cli.WarningStyle.Render("Ledger already has transactions; nothing to do."))
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to initialize ledger: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Ledger initialized (row %d): EJ %.2f, EJ & Neng %.2f.", id, ejStart, sharedStart)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&ejStart, "ej", 0, "starting balance for EJ")
	cmd.Flags().Float64Var(&sharedStart, "shared", 0, "starting balance for EJ & Neng")

	return cmd
}
