package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mangaalert/internal/app"
	"mangaalert/internal/models"
)

var (
	ledgerAlertType string
	ledgerEmail     string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Alert ledger commands",
}

var ledgerCheckCmd = &cobra.Command{
	Use:   "check [release-id]",
	Short: "Show which alerts were recorded as sent for a release",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		releaseID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid release ID: %w", err)
		}

		var alertType models.AlertType
		if ledgerAlertType != "" {
			if alertType, err = models.ParseAlertType(ledgerAlertType); err != nil {
				return err
			}
		}
		if (alertType == "") != (ledgerEmail == "") {
			return fmt.Errorf("--type and --email must be used together")
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if alertType != "" {
				sent, err := a.Ledger.IsSent(ctx, releaseID, alertType, ledgerEmail)
				if err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "release %d, %s, %s: sent=%t\n", releaseID, alertType, ledgerEmail, sent)
				return nil
			}

			records, err := a.Ledger.ForRelease(ctx, releaseID)
			if err != nil {
				return err
			}
			printLedger(cmd, records)
			return nil
		})
	},
}

func printLedger(cmd *cobra.Command, records []models.AlertRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out(cmd), "No alerts recorded.")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			string(r.AlertType),
			r.EmailAddress,
			strconv.FormatBool(r.AlertSent),
			r.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(out(cmd), renderTable([]string{"Type", "Email", "Sent", "Updated"}, rows, nil))
}

func init() {
	ledgerCheckCmd.Flags().StringVar(&ledgerAlertType, "type", "", "alert type: 1_month, 1_week or 1_day")
	ledgerCheckCmd.Flags().StringVar(&ledgerEmail, "email", "", "recipient address")
	ledgerCmd.AddCommand(ledgerCheckCmd)
	rootCmd.AddCommand(ledgerCmd)
}
