package resolver

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/match"
	"github.com/cartelerahq/cartelera/internal/tmdb"
)

// Result is the outcome of one resolution attempt. Movie is nil when
// the listing could not be matched; CatalogQueried reports whether the
// external catalog was searched.
type Result struct {
	Movie          *domain.Movie
	IsNew          bool
	CatalogQueried bool
}

// Service resolves a scraped movie listing to a canonical movie.
type Service interface {
	Resolve(ctx context.Context, displayName, sourceURL string, meta *domain.MovieMetadata) (Result, error)
}

type service struct {
	log            zerolog.Logger
	source         domain.ScrapeSource
	catalog        domain.CatalogClient
	scorer         *match.Scorer
	movieRepo      domain.MovieRepo
	sourceURLRepo  domain.SourceURLRepo
	unfindableRepo domain.UnfindableRepo
	reporter       domain.IssueReporter
}

func NewService(
	log zerolog.Logger,
	source domain.ScrapeSource,
	catalog domain.CatalogClient,
	scorer *match.Scorer,
	movieRepo domain.MovieRepo,
	sourceURLRepo domain.SourceURLRepo,
	unfindableRepo domain.UnfindableRepo,
	reporter domain.IssueReporter,
) Service {
	return &service{
		log:            log.With().Str("module", "resolver").Str("source", string(source)).Logger(),
		source:         source,
		catalog:        catalog,
		scorer:         scorer,
		movieRepo:      movieRepo,
		sourceURLRepo:  sourceURLRepo,
		unfindableRepo: unfindableRepo,
		reporter:       reporter,
	}
}

// Resolve short-circuits at the first hit: existing source URL link →
// unfindable cache → catalog search and scoring → existing canonical
// movie by TMDB ID → create.
//
// Expected no-match outcomes return a nil movie with a nil error;
// persistence and transport failures propagate so the caller can
// isolate them at theater granularity.
func (s *service) Resolve(ctx context.Context, displayName, sourceURL string, meta *domain.MovieMetadata) (Result, error) {
	if sourceURL != "" {
		movie, err := s.sourceURLRepo.GetMovie(ctx, s.source, sourceURL)
		if err == nil {
			return Result{Movie: movie}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return Result{}, errors.Wrap(err, "failed to look up source url link")
		}

		if _, err := s.unfindableRepo.Get(ctx, sourceURL); err == nil {
			s.log.Debug().Str("url", sourceURL).Msg("Skipping catalog lookup for known unfindable URL")
			if err := s.unfindableRepo.IncrementAttempts(ctx, sourceURL); err != nil {
				return Result{}, errors.Wrap(err, "failed to increment unfindable attempts")
			}
			return Result{}, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return Result{}, errors.Wrap(err, "failed to check unfindable cache")
		}
	}

	searchName := displayName
	if meta != nil && meta.OriginalTitle != "" {
		searchName = meta.OriginalTitle
	}

	s.log.Info().Str("search", searchName).Str("listing", displayName).Msg("Searching catalog")

	candidates, err := s.catalog.SearchMovie(ctx, searchName)
	if err != nil {
		return Result{CatalogQueried: true}, errors.Wrapf(err, "catalog search failed for %q", searchName)
	}

	if len(candidates) == 0 {
		s.log.Warn().Str("search", searchName).Msg("No catalog results")
		s.recordUnfindable(ctx, sourceURL, displayName, meta, domain.ReasonNoResults)
		return Result{CatalogQueried: true}, nil
	}

	best := s.scorer.BestMatch(ctx, candidates, displayName, meta)
	if best == nil {
		s.recordUnfindable(ctx, sourceURL, displayName, meta, domain.ReasonNoMatch)
		return Result{CatalogQueried: true}, nil
	}

	existing, err := s.movieRepo.GetByTmdbID(ctx, best.TmdbID)
	if err == nil {
		if sourceURL != "" {
			if err := s.sourceURLRepo.Link(ctx, existing.ID, s.source, sourceURL); err != nil {
				return Result{CatalogQueried: true}, errors.Wrap(err, "failed to link source url")
			}
		}
		return Result{Movie: existing, CatalogQueried: true}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return Result{CatalogQueried: true}, errors.Wrap(err, "failed to look up movie by tmdb id")
	}

	movie := movieFromCandidate(best, displayName, meta)
	if err := s.movieRepo.CreateWithSourceURL(ctx, movie, s.source, sourceURL); err != nil {
		return Result{CatalogQueried: true}, errors.Wrapf(err, "failed to create movie %q", movie.Title)
	}

	s.log.Info().Str("title", movie.Title).Int("tmdb_id", movie.TmdbID).Msg("Created movie")

	return Result{Movie: movie, IsNew: true, CatalogQueried: true}, nil
}

// movieFromCandidate builds the canonical record. The scraped display
// name overrides the catalog title when the catalog returned no
// localized title of its own.
func movieFromCandidate(candidate *domain.MovieCandidate, displayName string, meta *domain.MovieMetadata) *domain.Movie {
	title := candidate.Title
	if title == "" || (strings.EqualFold(candidate.Title, candidate.OriginalTitle) && !strings.EqualFold(displayName, candidate.Title)) {
		title = displayName
	}

	year := 0
	if len(candidate.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(candidate.ReleaseDate[:4]); err == nil {
			year = y
		}
	}

	classification := ""
	if meta != nil {
		classification = meta.Classification
	}

	return &domain.Movie{
		Title:          title,
		OriginalTitle:  candidate.OriginalTitle,
		TmdbID:         candidate.TmdbID,
		Year:           year,
		Synopsis:       candidate.Overview,
		PosterURL:      tmdb.PosterURL(candidate.PosterPath),
		Rating:         candidate.VoteAverage,
		Classification: classification,
	}
}

func (s *service) recordUnfindable(ctx context.Context, url, displayName string, meta *domain.MovieMetadata, reason domain.UnfindableReason) {
	if url == "" {
		return
	}

	originalTitle := ""
	if meta != nil {
		originalTitle = meta.OriginalTitle
	}

	rec := &domain.UnfindableURL{
		URL:           url,
		MovieTitle:    displayName,
		OriginalTitle: originalTitle,
		Reason:        reason,
	}
	if err := s.unfindableRepo.Record(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("failed to record unfindable url")
		return
	}

	s.reporter.Report(ctx, domain.Issue{
		Name:     "Unfindable Movie URL",
		Task:     "resolver.Resolve (" + string(s.source) + ")",
		Message:  "Could not match movie to catalog: " + displayName,
		Context:  map[string]any{"movie_url": url, "reason": string(reason), "original_title": originalTitle},
		Severity: domain.SeverityWarning,
	})
}
