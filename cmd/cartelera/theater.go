package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cartelerahq/cartelera/internal/database"
	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/logger"
)

var theaterCmd = &cobra.Command{
	Use:   "theater",
	Short: "Manage the theaters an ingestion run covers",
}

var theaterAddCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Register or update a theater",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		city, _ := cmd.Flags().GetString("city")
		source, _ := cmd.Flags().GetString("source")
		listingURL, _ := cmd.Flags().GetString("url")

		if name == "" || listingURL == "" {
			return fmt.Errorf("--name and --url are required")
		}

		log := logger.NewLogger()

		db, err := database.NewDB(viper.GetString("data_dir"), log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		theater := &domain.Theater{
			Name:       name,
			Slug:       args[0],
			City:       city,
			Source:     domain.ScrapeSource(source),
			ListingURL: listingURL,
			IsActive:   true,
		}

		repo := database.NewTheaterRepo(log, db)
		if err := repo.Store(cmd.Context(), theater); err != nil {
			return fmt.Errorf("failed to store theater: %w", err)
		}

		fmt.Printf("Stored theater %q (%s)\n", theater.Name, theater.Slug)
		return nil
	},
}

var theaterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active theaters for a scrape source",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")

		log := logger.NewLogger()

		db, err := database.NewDB(viper.GetString("data_dir"), log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		repo := database.NewTheaterRepo(log, db)
		theaters, err := repo.ListBySource(cmd.Context(), domain.ScrapeSource(source))
		if err != nil {
			return fmt.Errorf("failed to list theaters: %w", err)
		}

		if len(theaters) == 0 {
			fmt.Printf("No active theaters registered for %s.\n", source)
			return nil
		}

		for _, t := range theaters {
			fmt.Printf("%-30s %-20s %s\n", t.Name, t.City, t.ListingURL)
		}

		return nil
	},
}

func init() {
	theaterAddCmd.Flags().String("name", "", "theater display name")
	theaterAddCmd.Flags().String("city", "", "city the theater is in")
	theaterAddCmd.Flags().String("source", string(domain.SourceColombiaCom), "scrape source the theater belongs to")
	theaterAddCmd.Flags().String("url", "", "theater listing page URL")

	theaterListCmd.Flags().String("source", string(domain.SourceColombiaCom), "scrape source to list")

	theaterCmd.AddCommand(theaterAddCmd)
	theaterCmd.AddCommand(theaterListCmd)
	rootCmd.AddCommand(theaterCmd)
}
