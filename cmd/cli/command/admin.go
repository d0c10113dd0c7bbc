package command

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mangaalert/internal/auth"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin access commands",
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash to put in ADMIN_PASSWORD_HASH",
	Long:  "Hashes the password given as argument, or the first line of stdin when no argument is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fmt.Fprintln(out(cmd), hash)
		return nil
	},
}

func init() {
	adminCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(adminCmd)
}
