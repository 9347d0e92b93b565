package domain

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by repositories for expected misses. Callers
// must check for it with errors.Is; it is never reported as a failure.
var ErrNotFound = errors.New("not found")

// MovieRepo stores canonical movies.
type MovieRepo interface {
	GetByTmdbID(ctx context.Context, tmdbID int) (*Movie, error)
	// CreateWithSourceURL inserts the movie and, when url is non-empty,
	// its source URL link in a single transaction.
	CreateWithSourceURL(ctx context.Context, movie *Movie, source ScrapeSource, url string) error
}

// SourceURLRepo maps (scrape source, source URL) pairs to canonical movies.
type SourceURLRepo interface {
	GetMovie(ctx context.Context, source ScrapeSource, url string) (*Movie, error)
	Link(ctx context.Context, movieID int64, source ScrapeSource, url string) error
}

// UnfindableRepo is the durable cache of URLs that failed resolution.
type UnfindableRepo interface {
	Get(ctx context.Context, url string) (*UnfindableURL, error)
	// Record upserts by URL. On conflict it increments attempts and
	// refreshes last_seen, keeping the original reason and first_seen.
	Record(ctx context.Context, rec *UnfindableURL) error
	IncrementAttempts(ctx context.Context, url string) error
	Delete(ctx context.Context, url string) error
	List(ctx context.Context) ([]UnfindableURL, error)
}

// TheaterRepo stores theaters.
type TheaterRepo interface {
	ListBySource(ctx context.Context, source ScrapeSource) ([]Theater, error)
	Store(ctx context.Context, theater *Theater) error
}

// ShowtimeRepo persists showtimes. ReplaceForDate deletes and inserts
// within one transaction scoped to exactly one (theater, date) pair.
type ShowtimeRepo interface {
	ReplaceForDate(ctx context.Context, theaterID int64, date string, rows []Showtime) (int, error)
	ListForDate(ctx context.Context, theaterID int64, date string) ([]Showtime, error)
}

// IssueRepo stores operational issues.
type IssueRepo interface {
	Create(ctx context.Context, issue *Issue) error
}

// APICallRepo tracks external API usage per service per day.
type APICallRepo interface {
	Increment(ctx context.Context, service string) (int, error)
	DailyCounts(ctx context.Context, service, startDate, endDate string) ([]APICallCount, error)
}

// IssueReporter is the fire-and-forget sink for operator visibility.
// Implementations must never propagate their own failures.
type IssueReporter interface {
	Report(ctx context.Context, issue Issue)
}
