package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taskxp/internal/app"
	"taskxp/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	Long: `Apply every embedded migration not yet recorded in schema_migrations.

The dialect follows database.url: postgres:// or postgresql:// use
PostgreSQL, sqlite: or file: use the embedded SQLite driver.

Examples:
  taskxp migrate
  DATABASE_URL=postgres://app@localhost/taskxp?sslmode=disable taskxp migrate`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app.SetupLogger(os.Stdout, cfg.Log)

	if err := app.Migrate(cmd.Context(), cfg.Database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("[migrate] schema is up to date")
	return nil
}
