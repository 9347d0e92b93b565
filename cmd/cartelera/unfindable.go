package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cartelerahq/cartelera/internal/database"
	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/logger"
)

var unfindableCmd = &cobra.Command{
	Use:   "unfindable",
	Short: "Inspect and manage the unfindable URL cache",
	Long: `The unfindable cache records source URLs that could not be matched
to a TMDB movie, so repeated runs skip them instead of querying the
catalog again. Clearing an entry forces a retry on the next run.`,
}

var unfindableListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached unfindable URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openUnfindableRepo()
		if err != nil {
			return err
		}
		defer closeDB()

		records, err := repo.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list unfindable urls: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No unfindable URLs cached.")
			return nil
		}

		for _, rec := range records {
			fmt.Printf("%s\n  title: %s  reason: %s  attempts: %d  last seen: %s\n",
				rec.URL, rec.MovieTitle, rec.Reason, rec.Attempts, rec.LastSeen.Format("2006-01-02 15:04"))
		}
		fmt.Printf("\n%d unfindable URLs cached.\n", len(records))

		return nil
	},
}

var unfindableClearCmd = &cobra.Command{
	Use:   "clear <url>",
	Short: "Remove a URL from the cache, forcing a retry next run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openUnfindableRepo()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := repo.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to clear unfindable url: %w", err)
		}

		fmt.Printf("Cleared %s\n", args[0])
		return nil
	},
}

var unfindableExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached unfindable URLs as YAML for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openUnfindableRepo()
		if err != nil {
			return err
		}
		defer closeDB()

		records, err := repo.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list unfindable urls: %w", err)
		}

		out := make([]unfindableExport, 0, len(records))
		for _, rec := range records {
			out = append(out, unfindableExport{
				URL:        rec.URL,
				MovieTitle: rec.MovieTitle,
				Reason:     string(rec.Reason),
				Attempts:   rec.Attempts,
				FirstSeen:  rec.FirstSeen.Format("2006-01-02 15:04"),
				LastSeen:   rec.LastSeen.Format("2006-01-02 15:04"),
			})
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()

		return enc.Encode(out)
	},
}

type unfindableExport struct {
	URL        string `yaml:"url"`
	MovieTitle string `yaml:"movie_title"`
	Reason     string `yaml:"reason"`
	Attempts   int    `yaml:"attempts"`
	FirstSeen  string `yaml:"first_seen"`
	LastSeen   string `yaml:"last_seen"`
}

func openUnfindableRepo() (domain.UnfindableRepo, func(), error) {
	log := logger.NewLogger()

	db, err := database.NewDB(viper.GetString("data_dir"), log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}

	return database.NewUnfindableRepo(log, db), closeDB, nil
}

func init() {
	unfindableCmd.AddCommand(unfindableListCmd)
	unfindableCmd.AddCommand(unfindableClearCmd)
	unfindableCmd.AddCommand(unfindableExportCmd)
	rootCmd.AddCommand(unfindableCmd)
}
