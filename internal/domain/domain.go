package domain

import (
	"time"
)

// DateFormat is the canonical day format used for showtime dates and
// catalog release dates.
const DateFormat = "2006-01-02"

// ScrapeSource identifies a theater-website integration.
type ScrapeSource string

const (
	SourceColombiaCom     ScrapeSource = "colombia_com"
	SourceCineColombia    ScrapeSource = "cine_colombia"
	SourceCinemark        ScrapeSource = "cinemark"
	SourceCinepolis       ScrapeSource = "cinepolis"
	SourceColomboAmerica  ScrapeSource = "colombo_americano"
	SourceMAMM            ScrapeSource = "mamm"
	SourceProcinal        ScrapeSource = "procinal"
	SourceRoyalFilms      ScrapeSource = "royal_films"
)

// Theater represents a cinema location tied to one scrape source.
type Theater struct {
	ID         int64
	Name       string
	Slug       string
	City       string
	Source     ScrapeSource
	ListingURL string
	IsActive   bool
}

// Movie is the canonical, reconciled movie record keyed by TMDB ID.
// Created once per TMDB ID; later resolutions reuse it.
type Movie struct {
	ID             int64
	Title          string
	OriginalTitle  string
	TmdbID         int
	Year           int
	Synopsis       string
	PosterURL      string
	Rating         float64
	Classification string
	CreatedAt      time.Time
}

// MovieInfo is a movie reference found on a theater's listing page.
// SourceURL is the deduplication key across theaters of a run.
type MovieInfo struct {
	Name      string
	SourceURL string
}

// MovieMetadata is what a source could extract from its movie detail page.
// Scrapers are responsible for parsing their source's date format into
// ReleaseDate/ReleaseYear; a zero ReleaseDate means unknown.
type MovieMetadata struct {
	Genre           string
	DurationMinutes int
	Classification  string
	Director        string
	Actors          []string
	OriginalTitle   string
	ReleaseDate     time.Time
	ReleaseYear     int
}

// Showtime is one showing of a movie at a theater. Rows for a
// (theater, date) pair are fully replaced on every ingestion pass.
type Showtime struct {
	ID        int64
	TheaterID int64
	MovieID   int64
	Date      string // DateFormat
	Time      string // "15:04"
	Format    string // "2D", "3D", "IMAX", ...
	Language  string // "DOBLADA", "SUBTITULADA", "Original", ...
	Screen    string
	SourceURL string
}

// UnfindableReason says why a source URL could not be matched to TMDB.
type UnfindableReason string

const (
	ReasonNoResults          UnfindableReason = "no_tmdb_results"
	ReasonNoMatch            UnfindableReason = "no_match"
	ReasonNoMetadata         UnfindableReason = "no_metadata"
	ReasonMissingReleaseDate UnfindableReason = "missing_release_date"
)

// UnfindableURL records a source URL that previously failed resolution,
// so repeat encounters skip the TMDB lookup entirely. Cleared manually
// by an operator to force a retry.
type UnfindableURL struct {
	URL           string
	MovieTitle    string
	OriginalTitle string
	Reason        UnfindableReason
	Attempts      int
	FirstSeen     time.Time
	LastSeen      time.Time
}

// Severity levels for operational issues.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is an operator-visible problem recorded during a run.
type Issue struct {
	ID        int64
	Name      string
	Task      string
	Message   string
	Context   map[string]any
	Severity  Severity
	CreatedAt time.Time
}

// TaskReport summarizes one ingestion pass of a scrape source.
type TaskReport struct {
	TotalShowtimes int
	CatalogCalls   int
	NewMovies      []string
}

// APICallCount is the number of calls made to an external service on a day.
type APICallCount struct {
	Service   string
	Date      string // DateFormat
	CallCount int
}
