package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ejcasil/dualledger/internal/cli"
	"github.com/ejcasil/dualledger/internal/model"
)

func addCmd() *cobra.Command {
	var (
		date           string
		category       string
		description    string
		incomingEJ     float64
		outgoingEJ     float64
		incomingShared float64
		outgoingShared float64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Long:  `Record one ledger entry. Omitted amounts default to 0; the date defaults to today.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if date == "" {
				date = model.Today()
			}
			if description == "" {
				description = "No Description"
			}

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entry := &model.Transaction{
				Date:           date,
				Category:       category,
				Description:    description,
				IncomingEJ:     incomingEJ,
				OutgoingEJ:     outgoingEJ,
				IncomingShared: incomingShared,
				OutgoingShared: outgoingShared,
			}

			id, err := l.AddEntry(ctx, entry, true)
			if err != nil {
				return fmt.Errorf("failed to add transaction: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Transaction %d added.", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&category, "category", "", "free-text category")
	cmd.Flags().StringVar(&description, "description", "", "transaction description")
	cmd.Flags().Float64Var(&incomingEJ, "in-ej", 0, "incoming amount for EJ")
	cmd.Flags().Float64Var(&outgoingEJ, "out-ej", 0, "outgoing amount for EJ")
	cmd.Flags().Float64Var(&incomingShared, "in-shared", 0, "incoming amount for EJ & Neng")
	cmd.Flags().Float64Var(&outgoingShared, "out-shared", 0, "outgoing amount for EJ & Neng")

	return cmd
}
