package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cartelerahq/cartelera/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func storeTestTheater(t *testing.T, db *DB, slug string) *domain.Theater {
	t.Helper()

	theater := &domain.Theater{
		Name:       "Theater " + slug,
		Slug:       slug,
		City:       "Bogota",
		Source:     domain.SourceColombiaCom,
		ListingURL: "https://www.colombia.com/cine/" + slug,
		IsActive:   true,
	}
	require.NoError(t, NewTheaterRepo(zerolog.Nop(), db).Store(context.Background(), theater))
	require.NotZero(t, theater.ID)

	return theater
}

func createTestMovie(t *testing.T, db *DB, tmdbID int, sourceURL string) *domain.Movie {
	t.Helper()

	movie := &domain.Movie{
		Title:         "Movie",
		OriginalTitle: "Movie",
		TmdbID:        tmdbID,
		Year:          2024,
	}
	require.NoError(t, NewMovieRepo(zerolog.Nop(), db).CreateWithSourceURL(
		context.Background(), movie, domain.SourceColombiaCom, sourceURL))
	require.NotZero(t, movie.ID)

	return movie
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	// A second migration pass on an up-to-date schema is a no-op.
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Ping())
}
