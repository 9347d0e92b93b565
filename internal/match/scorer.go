package match

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// Score weights for catalog candidate matching.
const (
	scoreSameYear      = 100
	scoreAdjacentYear  = 50
	scoreYearMismatch  = -50
	scoreExactTitle    = 30
	scorePartialTitle  = 15
	scoreExactOriginal = 20
	scorePartialOrig   = 10
	scoreDirector      = 150
	scorePerActor      = 30
	scoreActorCap      = 90

	// Candidates past this index never trigger a credits fetch.
	creditsCandidateLimit = 5
	// Only the top-billed cast members are compared.
	creditsCastLimit = 15
)

// DetailsFetcher is the single extra catalog call the credits boost
// needs. Narrowed from domain.CatalogClient so the boost can be mocked
// independently of the search path.
type DetailsFetcher interface {
	MovieDetails(ctx context.Context, tmdbID int, includeCredits bool) (*domain.MovieDetails, error)
}

// Scorer picks the best catalog candidate for a scraped movie listing.
type Scorer struct {
	log      zerolog.Logger
	details  DetailsFetcher
	reporter domain.IssueReporter
}

// NewScorer creates a new scorer. details may be nil when credits-based
// boosting is unavailable.
func NewScorer(log zerolog.Logger, details DetailsFetcher, reporter domain.IssueReporter) *Scorer {
	return &Scorer{
		log:      log.With().Str("module", "match").Logger(),
		details:  details,
		reporter: reporter,
	}
}

// BestMatch returns the best candidate for a scraped display name, or
// nil when no candidate is acceptable.
//
// An exact release-date match is definitive and returns immediately,
// skipping all further scoring including the credits boost. Without
// metadata the catalog's own relevance ranking is authoritative and the
// first candidate wins. Ties resolve to the earliest-indexed candidate.
func (s *Scorer) BestMatch(ctx context.Context, candidates []domain.MovieCandidate, displayName string, meta *domain.MovieMetadata) *domain.MovieCandidate {
	if len(candidates) == 0 {
		return nil
	}

	if meta == nil {
		s.log.Info().Str("movie", displayName).Msg("No metadata available, using first catalog result")
		s.report(ctx, domain.Issue{
			Name:     "No Source Metadata",
			Task:     "match.BestMatch",
			Message:  "No metadata available for '" + displayName + "', trusting catalog ranking",
			Context:  map[string]any{"movie_name": displayName},
			Severity: domain.SeverityWarning,
		})
		return &candidates[0]
	}

	sourceDate := meta.ReleaseDate
	sourceYear := meta.ReleaseYear

	// A candidate must score above this floor to be acceptable; a lone
	// candidate with a badly mismatched year still counts as no match.
	var best *domain.MovieCandidate
	bestScore := -1
	hasDateMatch := false

	for idx := range candidates {
		candidate := &candidates[idx]
		score := 0

		var candidateDate time.Time
		candidateYear := 0
		if candidate.ReleaseDate != "" {
			if d, err := time.Parse(domain.DateFormat, candidate.ReleaseDate); err == nil {
				candidateDate = d
				candidateYear = d.Year()
			}
		}

		if !sourceDate.IsZero() && !candidateDate.IsZero() && sourceDate.Equal(candidateDate) {
			s.log.Info().
				Str("movie", displayName).
				Str("candidate", candidate.Title).
				Int("tmdb_id", candidate.TmdbID).
				Str("date", candidate.ReleaseDate).
				Msg("Exact release date match")
			return candidate
		}

		if sourceYear != 0 && candidateYear != 0 {
			switch diff := abs(sourceYear - candidateYear); diff {
			case 0:
				score += scoreSameYear
				hasDateMatch = true
			case 1:
				score += scoreAdjacentYear
				hasDateMatch = true
			default:
				score += scoreYearMismatch
			}
		}

		nameLower := strings.ToLower(displayName)
		titleLower := strings.ToLower(candidate.Title)
		originalLower := strings.ToLower(candidate.OriginalTitle)

		if nameLower == titleLower {
			score += scoreExactTitle
		} else if strings.Contains(titleLower, nameLower) || strings.Contains(nameLower, titleLower) {
			score += scorePartialTitle
		}

		if nameLower == originalLower {
			score += scoreExactOriginal
		} else if strings.Contains(originalLower, nameLower) || strings.Contains(nameLower, originalLower) {
			score += scorePartialOrig
		}

		if bonus := 10 - idx; bonus > 0 {
			score += bonus
		}

		score += s.creditsBoost(ctx, candidate, idx, displayName, meta)

		s.log.Debug().
			Str("movie", displayName).
			Str("candidate", candidate.Title).
			Int("index", idx).
			Int("score", score).
			Msg("Scored catalog candidate")

		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	if !hasDateMatch && (sourceYear != 0 || !sourceDate.IsZero()) {
		s.report(ctx, domain.Issue{
			Name:     "No Catalog Date Match",
			Task:     "match.BestMatch",
			Message:  "No catalog result matched the release date for '" + displayName + "'",
			Context:  map[string]any{"movie_name": displayName, "source_year": sourceYear},
			Severity: domain.SeverityWarning,
		})
	}

	if best == nil {
		s.log.Warn().Str("movie", displayName).Msg("No suitable catalog match found")
		return nil
	}

	s.log.Info().
		Str("movie", displayName).
		Str("candidate", best.Title).
		Int("tmdb_id", best.TmdbID).
		Int("score", bestScore).
		Msg("Selected catalog match")

	return best
}

// creditsBoost fetches candidate credits and scores director and actor
// overlap. Runs only for top-ranked candidates when the scrape supplied
// people metadata; a failed fetch is reported and scores zero.
func (s *Scorer) creditsBoost(ctx context.Context, candidate *domain.MovieCandidate, idx int, displayName string, meta *domain.MovieMetadata) int {
	if idx >= creditsCandidateLimit || s.details == nil {
		return 0
	}
	if meta.Director == "" && len(meta.Actors) == 0 {
		return 0
	}

	details, err := s.details.MovieDetails(ctx, candidate.TmdbID, true)
	if err != nil {
		s.log.Warn().Err(err).Int("tmdb_id", candidate.TmdbID).Msg("failed to fetch candidate credits")
		s.report(ctx, domain.Issue{
			Name:     "Catalog Details Fetch Failed",
			Task:     "match.creditsBoost",
			Message:  err.Error(),
			Context:  map[string]any{"movie_name": displayName, "tmdb_id": candidate.TmdbID, "tmdb_title": candidate.Title},
			Severity: domain.SeverityWarning,
		})
		return 0
	}

	boost := 0

	if meta.Director != "" {
		sourceDirector := NormalizeName(meta.Director)
		for _, d := range details.Directors {
			if NormalizeName(d) == sourceDirector {
				boost += scoreDirector
				break
			}
		}
	}

	if len(meta.Actors) > 0 && len(details.Cast) > 0 {
		sourceActors := make(map[string]struct{}, len(meta.Actors))
		for _, a := range meta.Actors {
			sourceActors[NormalizeName(a)] = struct{}{}
		}

		cast := details.Cast
		if len(cast) > creditsCastLimit {
			cast = cast[:creditsCastLimit]
		}

		matched := 0
		for _, c := range cast {
			if _, ok := sourceActors[NormalizeName(c)]; ok {
				matched++
			}
		}

		if matched > 0 {
			actorScore := matched * scorePerActor
			if actorScore > scoreActorCap {
				actorScore = scoreActorCap
			}
			boost += actorScore
		}
	}

	return boost
}

func (s *Scorer) report(ctx context.Context, issue domain.Issue) {
	if s.reporter != nil {
		s.reporter.Report(ctx, issue)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
