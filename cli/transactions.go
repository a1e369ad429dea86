// ABOUTME: Transaction CLI commands
// ABOUTME: Add transactions, move them between stages, and show their history
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction", "transactions"},
		Short:   "Manage transactions",
	}
	cmd.AddCommand(
		newTxAddCmd(a),
		newTxListCmd(a),
		newTxStatusCmd(a),
		newTxHistoryCmd(a),
	)
	return cmd
}

func newTxAddCmd(a *app) *cobra.Command {
	var (
		in              models.Transaction
		price           float64
		lead, closingOn string
	)
	cmd := &cobra.Command{
		Use:   "add <property-address>",
		Short: "Add a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			in.PropertyAddress = args[0]
			in.SalePrice = int64(price * 100)
			if lead != "" {
				id, err := a.resolveLead(cmd.Context(), lead)
				if err != nil {
					return err
				}
				in.LeadID = &id
			}
			if closingOn != "" {
				d, err := parseDate(closingOn, a.svc.Now().Location())
				if err != nil {
					return err
				}
				in.ClosingDate = &d
			}
			tx, err := a.svc.AddTransaction(cmd.Context(), in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Transaction added: %s (ID: %s)\n", tx.PropertyAddress, tx.ID)
			_, _ = fmt.Fprintf(out, "  Client: %s\n", dash(tx.ClientName))
			_, _ = fmt.Fprintf(out, "  Stage: %s\n", engine.StageLabel(tx.Status))
			if tx.SalePrice > 0 {
				_, _ = fmt.Fprintf(out, "  Price: %s\n", money(tx.SalePrice))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.ClientName, "client", "", "Client name (default: the linked lead)")
	f.StringVar(&in.ClientType, "client-type", "", "buyer or seller")
	f.Float64Var(&price, "price", 0, "Sale price in dollars")
	f.Float64Var(&in.CommissionRate, "commission", 0, "Commission rate in percent")
	f.StringVar(&in.Status, "status", "", "Starting stage (default pending)")
	f.StringVar(&in.Notes, "notes", "", "Notes")
	f.StringVar(&lead, "lead", "", "Lead id or id prefix")
	f.StringVar(&closingOn, "closing", "", "Expected closing date YYYY-MM-DD")
	return cmd
}

func newTxListCmd(a *app) *cobra.Command {
	var stage string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			txs, err := a.svc.ListTransactions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ADDRESS\tCLIENT\tSTAGE\tPRICE\tCOMMISSION\tID")
			_, _ = fmt.Fprintln(w, "-------\t------\t-----\t-----\t----------\t--")
			var volume, commission int64
			shown := 0
			for i := range txs {
				tx := &txs[i]
				if stage != "" && tx.Status != stage {
					continue
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.PropertyAddress, dash(tx.ClientName), engine.StageLabel(tx.Status),
					money(tx.SalePrice), money(tx.Commission()), shortID(tx.ID))
				volume += tx.SalePrice
				commission += tx.Commission()
				shown++
			}
			_ = w.Flush()
			_, _ = fmt.Fprintf(out, "\nTotal: %d transaction(s) - %s volume, %s commission\n", shown, money(volume), money(commission))
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Only show transactions in this stage")
	return cmd
}

func newTxStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <transaction-id> <stage>",
		Short: "Move a transaction to a stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			id, err := a.resolveTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tx, err := a.svc.SetTransactionStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", tx.PropertyAddress, engine.StageLabel(tx.Status))
			return nil
		},
	}
}

func newTxHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <transaction-id>",
		Short: "Show a transaction's stage history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			id, err := a.resolveTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tx, err := a.svc.GetTransaction(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s (%s)\n\n", tx.PropertyAddress, engine.StageLabel(tx.Status))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "STAGE\tCHANGED\tAGO")
			for _, c := range tx.StatusHistory {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", engine.StageLabel(c.Status), c.Timestamp.Format("2006-01-02 15:04"),
					humanize.RelTime(c.Timestamp, a.svc.Now(), "ago", "from now"))
			}
			return w.Flush()
		},
	}
}

func (a *app) resolveTransaction(ctx context.Context, arg string) (uuid.UUID, error) {
	txs, err := a.svc.ListTransactions(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	ids := make([]uuid.UUID, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	id, err := resolveID(arg, ids)
	if err != nil {
		return uuid.Nil, fmt.Errorf("transaction: %w", err)
	}
	return id, nil
}

// money formats cents as whole dollars with separators.
func money(cents int64) string {
	return "$" + humanize.Comma(cents/100)
}
