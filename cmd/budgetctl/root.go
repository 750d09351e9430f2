package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"budgetlite/internal/cli"
	"budgetlite/internal/config"
	"budgetlite/internal/core"
	applog "budgetlite/internal/log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagBackend string
	flagDBPath  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:          "budgetctl",
	Short:        "Manage a budgetlite ledger",
	Long:         "Record expenses, organize categories and print monthly breakdowns.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML configuration file (overrides "+config.FileEnv+")")
	rootCmd.PersistentFlags().StringVarP(&flagBackend, "backend", "b", "", "Data backend: memory or sqlite")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")
}

// loadConfig resolves configuration from the environment, the config file
// and the persistent flags, in that order of increasing precedence.
func loadConfig() (*config.Config, error) {
	cli.LoadEnvFile()
	if flagConfig != "" {
		if err := os.Setenv(config.FileEnv, flagConfig); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	if flagDBPath != "" {
		cfg.SQLiteDBPath = flagDBPath
	}
	// Seeding is explicit on the command line.
	cfg.SeedDefaults = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp builds the application for one command invocation. The caller must
// Close it.
func openApp(ctx context.Context) (*cli.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	logger := cli.SetupLogger(level, applog.ComponentCLI)
	return cli.NewApp(ctx, cfg, logger, core.SystemClock{})
}

// withApp runs fn with a freshly opened App and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error) error {
	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

// monthArg parses args[0] as YYYY-MM, defaulting to the current month.
func monthArg(app *cli.App, args []string) (core.Month, error) {
	if len(args) == 0 {
		return app.Calendar.MonthOf(app.Clock.Now()), nil
	}
	return core.ParseMonth(args[0])
}

// resolveCategory accepts a category id or a case-insensitive name.
func resolveCategory(ctx context.Context, app *cli.App, ref string) (core.Category, error) {
	cats, err := app.Ledger.Categories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	if id, err := uuid.Parse(ref); err == nil {
		for _, c := range cats {
			if c.ID == id {
				return c, nil
			}
		}
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %q not found", ref)
}
