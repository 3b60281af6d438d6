// Package cmd implements the genchat command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "genchat",
	Short: "genchat - Gemini-backed chat API server",
	Long: `genchat is a backend service around the Gemini generation API.

It serves an authenticated chat endpoint, keeps per-user conversation
history in memory, and ships tooling to export questionnaire answers
to CSV from Firestore or a relational database.

Running genchat with no arguments starts the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
