package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakay/genchat/internal/config"
	"github.com/sakay/genchat/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the relational database",
	Long: `Migrate creates the question_templates and user_answers tables in
the database at DATABASE_URL (sqlite or postgres).`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, dialect, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db, dialect); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	fmt.Println("Migrations applied.")
	return nil
}
