package ingest

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/resolver"
)

// Source is the capability interface a scrape integration supplies.
// The coordinator depends only on this interface, never on concrete
// source types.
type Source interface {
	Name() domain.ScrapeSource
	// FindMovies lists the movies currently showing at a theater.
	FindMovies(ctx context.Context, theater domain.Theater) ([]domain.MovieInfo, error)
	// FetchMetadata scrapes the detail page for a listing. Called only
	// for listings not already linked or cached.
	FetchMetadata(ctx context.Context, info domain.MovieInfo) (*domain.MovieMetadata, error)
	// WriteShowtimes persists a theater's showtimes, delegating the
	// actual writes to domain.ShowtimeRepo.ReplaceForDate per date.
	WriteShowtimes(ctx context.Context, theater domain.Theater, movies *ResolvedMovies) (int, error)
}

// Coordinator drives the two-phase ingestion pass for one scrape
// source: Phase 1 resolves and deduplicates every movie referenced
// across the source's theaters, Phase 2 persists showtimes per theater
// per date. A failure in one theater is reported and skipped; the rest
// of the run continues.
type Coordinator struct {
	log         zerolog.Logger
	source      Source
	resolver    resolver.Service
	sourceURLs  domain.SourceURLRepo
	theaterRepo domain.TheaterRepo
	reporter    domain.IssueReporter
}

func NewCoordinator(
	log zerolog.Logger,
	source Source,
	resolverSvc resolver.Service,
	sourceURLs domain.SourceURLRepo,
	theaterRepo domain.TheaterRepo,
	reporter domain.IssueReporter,
) *Coordinator {
	return &Coordinator{
		log:         log.With().Str("module", "ingest").Str("source", string(source.Name())).Logger(),
		source:      source,
		resolver:    resolverSvc,
		sourceURLs:  sourceURLs,
		theaterRepo: theaterRepo,
		reporter:    reporter,
	}
}

// Execute runs one full ingestion pass and returns its report. Only a
// failure to list theaters aborts the pass; everything else is isolated
// at theater granularity.
func (c *Coordinator) Execute(ctx context.Context) (domain.TaskReport, error) {
	theaters, err := c.theaterRepo.ListBySource(ctx, c.source.Name())
	if err != nil {
		return domain.TaskReport{}, errors.Wrap(err, "failed to list theaters")
	}

	report := domain.TaskReport{}
	cache := NewResolvedMovies()
	failed := make(map[int64]bool)

	// Phase 1: movie resolution. No transaction is open here; all
	// network calls happen before any showtime write.
	for _, theater := range theaters {
		if err := c.resolveTheaterMovies(ctx, theater, cache, &report); err != nil {
			failed[theater.ID] = true
			c.reportTheaterError(ctx, theater, "movie resolution", err)
		}
	}

	c.log.Info().Int("theaters", len(theaters)).Int("movies", cache.Len()).Int("catalog_calls", report.CatalogCalls).Msg("Movie resolution phase complete")

	// Phase 2: showtime persistence, per theater per date.
	for _, theater := range theaters {
		if failed[theater.ID] {
			c.log.Warn().Str("theater", theater.Name).Msg("Skipping showtimes for theater that failed resolution")
			continue
		}

		count, err := c.source.WriteShowtimes(ctx, theater, cache)
		if err != nil {
			c.reportTheaterError(ctx, theater, "showtime persistence", err)
			continue
		}

		c.log.Info().Str("theater", theater.Name).Int("showtimes", count).Msg("Saved showtimes")
		report.TotalShowtimes += count
	}

	return report, nil
}

// ExecuteForTheater processes a single theater with a fresh cache.
// Useful for targeted runs.
func (c *Coordinator) ExecuteForTheater(ctx context.Context, theater domain.Theater) (int, error) {
	cache := NewResolvedMovies()
	report := domain.TaskReport{}

	if err := c.resolveTheaterMovies(ctx, theater, cache, &report); err != nil {
		return 0, err
	}

	return c.source.WriteShowtimes(ctx, theater, cache)
}

func (c *Coordinator) resolveTheaterMovies(ctx context.Context, theater domain.Theater, cache *ResolvedMovies, report *domain.TaskReport) error {
	infos, err := c.source.FindMovies(ctx, theater)
	if err != nil {
		return errors.Wrapf(err, "failed to find movies for theater %q", theater.Name)
	}

	for _, info := range infos {
		if _, ok := cache.Lookup(info); ok {
			continue
		}

		// An existing link is authoritative; no metadata fetch and no
		// catalog search needed.
		if info.SourceURL != "" {
			movie, err := c.sourceURLs.GetMovie(ctx, c.source.Name(), info.SourceURL)
			if err == nil {
				cache.Put(info, movie)
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return errors.Wrap(err, "failed to look up source url link")
			}
		}

		meta, err := c.source.FetchMetadata(ctx, info)
		if err != nil {
			// Metadata is best-effort; resolution proceeds name-only.
			c.log.Warn().Err(err).Str("movie", info.Name).Msg("failed to fetch metadata")
			meta = nil
		}

		result, err := c.resolver.Resolve(ctx, info.Name, info.SourceURL, meta)
		if result.CatalogQueried {
			report.CatalogCalls++
		}
		if err != nil {
			return err
		}

		cache.Put(info, result.Movie)
		if result.IsNew && result.Movie != nil {
			report.NewMovies = append(report.NewMovies, result.Movie.Title)
		}
	}

	return nil
}

func (c *Coordinator) reportTheaterError(ctx context.Context, theater domain.Theater, phase string, err error) {
	c.log.Error().Err(err).Str("theater", theater.Name).Str("phase", phase).Msg("Failed to process theater")

	c.reporter.Report(ctx, domain.Issue{
		Name:    string(c.source.Name()) + " Theater Processing Failed",
		Task:    "ingest.Execute",
		Message: err.Error(),
		Context: map[string]any{
			"theater_name": theater.Name,
			"theater_slug": theater.Slug,
			"phase":        phase,
		},
		Severity: domain.SeverityError,
	})
}
