package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ejcasil/dualledger/internal/cli"
)

func listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the ledger history",
		Long:  `Print the ledger in (date, id) order with running balances and the current totals.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rows, err := l.GetAllTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to load ledger: %w", err)
			}
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found. Use 'dualledger init' to set up the ledger."))
				return nil
			}

			if limit > 0 && len(rows) > limit {
				rows = rows[len(rows)-limit:]
			}

			fmt.Println(cli.TitleStyle.Render("Ledger History"))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Date"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Transaction"),
				cli.HeaderStyle.Render("In EJ"),
				cli.HeaderStyle.Render("Out EJ"),
				cli.HeaderStyle.Render("In EJ&N"),
				cli.HeaderStyle.Render("Out EJ&N"),
				cli.HeaderStyle.Render("EJ Bal"),
				cli.HeaderStyle.Render("Total"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4), strings.Repeat("-", 10), strings.Repeat("-", 10),
				strings.Repeat("-", 24), strings.Repeat("-", 8), strings.Repeat("-", 8),
				strings.Repeat("-", 8), strings.Repeat("-", 8), strings.Repeat("-", 10),
				strings.Repeat("-", 10))

			for i := range rows {
				r := &rows[i]
				desc := r.Description
				if len(desc) > 24 {
					desc = desc[:21] + "..."
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Date, r.Category, desc,
					amount(r.IncomingEJ), amount(r.OutgoingEJ),
					amount(r.IncomingShared), amount(r.OutgoingShared),
					fmt.Sprintf("%.2f", r.EJBalance),
					fmt.Sprintf("%.2f", r.Total))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			ejBalance, sharedBalance, err := l.GetLastBalances(ctx)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("EJ: %.2f   EJ & Neng: %.2f   Total: %.2f",
				ejBalance, sharedBalance, ejBalance+sharedBalance)))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show only the last N rows (0 = all)")

	return cmd
}

// amount renders a delta column, leaving zero cells visually empty.
func amount(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}
