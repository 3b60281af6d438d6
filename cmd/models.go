package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakay/genchat/internal/config"
	"github.com/sakay/genchat/internal/gemini"
	"github.com/sakay/genchat/internal/log"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List Gemini models that support content generation",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	svc, err := gemini.New(cmd.Context(), gemini.Config{
		APIKey: cfg.GeminiAPIKey,
		Logger: log.NewNop(),
	})
	if err != nil {
		return fmt.Errorf("initializing gemini client: %w", err)
	}

	models, err := svc.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}

	for _, m := range models {
		fmt.Printf("%s\n", m.Name)
		if m.DisplayName != "" {
			fmt.Printf("  Display Name: %s\n", m.DisplayName)
		}
		if m.Description != "" {
			fmt.Printf("  Description: %s\n", m.Description)
		}
	}
	fmt.Printf("\n%d models support content generation\n", len(models))
	return nil
}
