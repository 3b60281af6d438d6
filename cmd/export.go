package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakay/genchat/internal/config"
	"github.com/sakay/genchat/internal/database"
	"github.com/sakay/genchat/internal/export"
	"github.com/sakay/genchat/internal/log"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export questionnaire answers to CSV",
	Long: `Export joins user answers against question templates and writes a
UTF-8 CSV (with byte-order mark) with the columns:

  user_id, session_id, question_id, attribute, question_text, answer_text

The source is Firestore when USE_FIREBASE=true, otherwise the relational
database at DATABASE_URL.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "answers_export.csv", "output CSV path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{})
	ctx := cmd.Context()

	var src export.Source
	if cfg.UseFirestore {
		projectID := cfg.FirebaseProjectID
		if projectID == "" {
			// The emulator accepts any demo project id.
			projectID = "demo-project"
		}
		fs, err := export.NewFirestoreSource(ctx, export.FirestoreConfig{
			ProjectID:    projectID,
			CredPath:     cfg.FirebaseCredPath,
			EmulatorHost: cfg.FirestoreEmulatorHost,
			Logger:       logger,
		})
		if err != nil {
			return fmt.Errorf("connecting to firestore: %w", err)
		}
		defer func() {
			if closeErr := fs.Close(); closeErr != nil {
				logger.Warn("closing firestore client", "error", closeErr)
			}
		}()
		src = fs
	} else {
		db, _, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn("closing database", "error", closeErr)
			}
		}()
		src = export.NewSQLSource(db)
	}

	n, err := export.WriteFile(ctx, src, exportOut, logger)
	if err != nil {
		return fmt.Errorf("exporting answers: %w", err)
	}

	fmt.Printf("Exported %d rows to %s\n", n, exportOut)
	return nil
}
