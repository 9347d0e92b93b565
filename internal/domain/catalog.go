package domain

import "context"

// MovieCandidate is one search result from the external movie catalog,
// ordered by the catalog's own relevance ranking.
type MovieCandidate struct {
	TmdbID        int
	Title         string
	OriginalTitle string
	Overview      string
	ReleaseDate   string // DateFormat, may be empty
	Popularity    float64
	VoteAverage   float64
	PosterPath    string
}

// MovieDetails is the detail view of a catalog entry, optionally
// including credits.
type MovieDetails struct {
	MovieCandidate
	RuntimeMinutes int
	ImdbID         string
	Directors      []string
	Cast           []string // billing order, top first
}

// CatalogClient queries the external movie-metadata catalog. Calls are
// idempotent and side-effect free; each one counts toward the run's
// catalog-call total.
type CatalogClient interface {
	SearchMovie(ctx context.Context, query string) ([]MovieCandidate, error)
	MovieDetails(ctx context.Context, tmdbID int, includeCredits bool) (*MovieDetails, error)
}

type NotificationService interface {
	SendReport(ctx context.Context, source ScrapeSource, report TaskReport) error
	SendError(ctx context.Context, source ScrapeSource, err error) error
}
