package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budgettracker/internal/cli"
	"budgettracker/internal/config"
	"budgettracker/internal/log"
	"budgettracker/internal/shell"
)

// Root flags, each overriding its environment variable when set.
var (
	flagBackend string
	flagDataDir string
	flagDBPath  string
	flagUser    string
)

var rootCmd = &cobra.Command{
	Use:   "budgettracker",
	Short: "Track expenses, incomes and budgets per profile",
	Long: `budgettracker keeps one ledger of expenses, incomes and category budgets
per profile. Every change is saved immediately.

Without a subcommand it starts the interactive menu.

Examples:
  budgettracker --user alice
  budgettracker --backend sqlite --db ./data/ledger.db
  budgettracker summary --user alice`,
	SilenceUsage: true,
	RunE:         runShell,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend (file|sqlite), overrides DATA_BACKEND")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory of per-profile files, overrides DATA_DIR")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path, overrides SQLITE_DB_PATH")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "Profile to open, overrides DEFAULT_USER")
}

func main() {
	cli.LoadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config) {
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagDBPath != "" {
		cfg.SQLiteDBPath = flagDBPath
	}
	if flagUser != "" {
		cfg.DefaultUser = flagUser
	}
}

// openApp loads configuration and wires the ledger service.
func openApp(ctx context.Context) (*cli.App, error) {
	cfg, err := cli.LoadAndValidateConfig(applyFlags)
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg)
	app, err := cli.InitApp(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return app, nil
}

// openUser opens the configured profile, failing when none is configured.
func openUser(ctx context.Context, app *cli.App) error {
	if app.Config.DefaultUser == "" {
		return errors.New("no profile given: use --user or DEFAULT_USER")
	}
	return app.Service.Open(ctx, app.Config.DefaultUser)
}

func runShell(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := cli.SignalContext(log.WithContext(cmd.Context(), app.Logger), app.Logger)
	defer cancel()

	out := cmd.OutOrStdout()
	if user := app.Config.DefaultUser; user != "" {
		if err := app.Service.Open(ctx, user); err != nil {
			// fall back to the username prompt
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	sh := shell.New(app.Service, cmd.InOrStdin(), out)
	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// the menu may be blocked reading input; every change is already saved
		fmt.Fprintln(out)
		return nil
	}
}
