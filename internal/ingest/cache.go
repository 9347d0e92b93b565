package ingest

import (
	"github.com/cartelerahq/cartelera/internal/domain"
)

// ResolvedMovies is the run-local resolution cache, created fresh per
// Execute call and passed by reference through the pipeline. It stores
// nil for listings proven unmatchable so a known-bad URL is not
// re-resolved within the same run. Never share it across runs.
type ResolvedMovies struct {
	byKey map[string]*domain.Movie
}

func NewResolvedMovies() *ResolvedMovies {
	return &ResolvedMovies{byKey: make(map[string]*domain.Movie)}
}

// CacheKey is the deduplication key for a listing: its source URL, or
// the display name for the rare name-only sources.
func CacheKey(info domain.MovieInfo) string {
	if info.SourceURL != "" {
		return info.SourceURL
	}
	return info.Name
}

// Lookup returns the cached movie (possibly nil) and whether the
// listing was already resolved this run.
func (c *ResolvedMovies) Lookup(info domain.MovieInfo) (*domain.Movie, bool) {
	movie, ok := c.byKey[CacheKey(info)]
	return movie, ok
}

// Put records the outcome of a resolution, matched or not.
func (c *ResolvedMovies) Put(info domain.MovieInfo, movie *domain.Movie) {
	c.byKey[CacheKey(info)] = movie
}

// Len returns the number of distinct listings resolved so far.
func (c *ResolvedMovies) Len() int {
	return len(c.byKey)
}
