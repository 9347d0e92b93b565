package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cartelerahq/cartelera/internal/database"
	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/logger"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print daily external API call counts",
	Long: `Stats prints how many external API calls were made per day over the
requested window. Every TMDB request counts, including the per-candidate
credits fetches made during matching.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		service, _ := cmd.Flags().GetString("service")

		log := logger.NewLogger()

		db, err := database.NewDB(viper.GetString("data_dir"), log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		callRepo := database.NewAPICallRepo(log, db)

		end := time.Now()
		start := end.AddDate(0, 0, -(days - 1))

		counts, err := callRepo.DailyCounts(cmd.Context(), service,
			start.Format(domain.DateFormat), end.Format(domain.DateFormat))
		if err != nil {
			return fmt.Errorf("failed to get daily counts: %w", err)
		}

		if len(counts) == 0 {
			fmt.Printf("No %s API calls recorded in the last %d days.\n", service, days)
			return nil
		}

		total := 0
		for _, c := range counts {
			fmt.Printf("%s  %6d\n", c.Date, c.CallCount)
			total += c.CallCount
		}
		fmt.Printf("\nTotal: %d calls over %d days\n", total, days)

		return nil
	},
}

func init() {
	statsCmd.Flags().Int("days", 30, "number of days to report")
	statsCmd.Flags().String("service", "tmdb", "API service name")
	rootCmd.AddCommand(statsCmd)
}
