package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/config"
	"github.com/cartelerahq/cartelera/internal/database"
	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/ingest"
	"github.com/cartelerahq/cartelera/internal/issue"
	"github.com/cartelerahq/cartelera/internal/logger"
	"github.com/cartelerahq/cartelera/internal/match"
	"github.com/cartelerahq/cartelera/internal/notification"
	"github.com/cartelerahq/cartelera/internal/resolver"
	"github.com/cartelerahq/cartelera/internal/source/colombiacom"
	"github.com/cartelerahq/cartelera/internal/tmdb"
)

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	notificationService domain.NotificationService
}

// NewApp creates a new application instance
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLoggerWithLevel(logger.ParseLevel(cfg.LogLevel))

	return &App{
		log:                 log,
		config:              cfg,
		notificationService: notification.NewDiscordService(log, cfg.DiscordWebhookURL),
	}, nil
}

// Run executes one full ingestion pass for a scrape source
func (a *App) Run(sourceName string) (err error) {
	ctx := context.Background()
	source := domain.ScrapeSource(sourceName)

	// Send error notification if run fails
	defer func() {
		if err != nil {
			if notifyErr := a.notificationService.SendError(ctx, source, err); notifyErr != nil {
				a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
			}
		}
	}()

	db, err := database.NewDB(a.config.DataDir, a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	coordinator, err := a.buildCoordinator(db, source)
	if err != nil {
		return err
	}

	report, err := coordinator.Execute(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	a.log.Info().
		Int("total_showtimes", report.TotalShowtimes).
		Int("catalog_calls", report.CatalogCalls).
		Int("new_movies", len(report.NewMovies)).
		Strs("new_movie_titles", report.NewMovies).
		Msg("=== TASK REPORT ===")

	if notifyErr := a.notificationService.SendReport(ctx, source, report); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send report notification")
	}

	return nil
}

// buildCoordinator wires repositories and services for one source
func (a *App) buildCoordinator(db *database.DB, sourceName domain.ScrapeSource) (*ingest.Coordinator, error) {
	movieRepo := database.NewMovieRepo(a.log, db)
	sourceURLRepo := database.NewSourceURLRepo(a.log, db)
	unfindableRepo := database.NewUnfindableRepo(a.log, db)
	theaterRepo := database.NewTheaterRepo(a.log, db)
	showtimeRepo := database.NewShowtimeRepo(a.log, db)
	issueRepo := database.NewIssueRepo(a.log, db)
	callRepo := database.NewAPICallRepo(a.log, db)

	reporter := issue.NewService(a.log, issueRepo)
	catalog := tmdb.NewService(a.log, a.config, callRepo)
	scorer := match.NewScorer(a.log, catalog, reporter)

	var src ingest.Source
	switch sourceName {
	case domain.SourceColombiaCom:
		src = colombiacom.NewSource(a.log, showtimeRepo, reporter)
	default:
		return nil, fmt.Errorf("unsupported scrape source: %s", sourceName)
	}

	resolverSvc := resolver.NewService(a.log, src.Name(), catalog, scorer, movieRepo, sourceURLRepo, unfindableRepo, reporter)

	return ingest.NewCoordinator(a.log, src, resolverSvc, sourceURLRepo, theaterRepo, reporter), nil
}
