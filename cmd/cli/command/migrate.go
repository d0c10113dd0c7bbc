package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mangaalert/database"
	"mangaalert/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := database.Migrate(a.DB.WithContext(ctx)); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "Schema is up to date.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
