package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cartelerahq/cartelera/internal/app"
	"github.com/cartelerahq/cartelera/internal/domain"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full showtime ingestion pass for a scrape source",
	Long: `Run performs a complete ingestion pass for one scrape source:
1. Lists the active theaters registered for the source
2. Scrapes each theater's listing page for movies
3. Resolves every movie against the TMDB catalog
4. Replaces each theater's stored showtimes date by date

A theater that fails is reported and skipped; the rest of the run
continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = string(domain.SourceColombiaCom)
		}

		// Initialize application
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		// Run the ingestion pass
		if err := application.Run(source); err != nil {
			return fmt.Errorf("run failed: %w", err)
		}

		return nil
	},
}

func init() {
	runCmd.Flags().String("source", string(domain.SourceColombiaCom), "Scrape source to ingest, e.g. 'colombia_com'")
	rootCmd.AddCommand(runCmd)
}
