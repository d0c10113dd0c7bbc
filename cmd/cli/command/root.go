package command

// root.go defines the root command of the operator CLI and the shared
// database bootstrap used by subcommands that touch the stores.

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mangaalert/internal/app"
	"mangaalert/internal/config"
	"mangaalert/internal/logging"
)

var (
	envFile string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "mangaalert",
	Short: "mangaalert - Manga Alert Italia operator tool",
	Long: `mangaalert inspects and maintains the release alert stores:
- list releases the notifier will alert on
- check what the alert ledger recorded for a release
- hash the admin password for ADMIN_PASSWORD_HASH
- create or update the database schema`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "extra .env file to load before reading the environment")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline for the command")
}

// withApp loads config, opens the stores and runs fn with them.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	// logs go to stderr so command output stays clean
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, "text")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
