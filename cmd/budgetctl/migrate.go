package main

import (
	"errors"
	"fmt"

	"budgetlite/internal/storage"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
}

func sqlitePath() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.DataBackend != "sqlite" && flagDBPath == "" {
		return "", errors.New("migrations apply to the sqlite backend; pass --backend sqlite or --db")
	}
	return cfg.SQLiteDBPath, nil
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		if err := storage.RunMigrations(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration, dropping all data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		if err := storage.RollbackMigrations(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations rolled back.")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := sqlitePath()
		if err != nil {
			return err
		}
		version, dirty, err := storage.MigrationVersion(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
