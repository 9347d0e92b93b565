package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartelerahq/cartelera/internal/domain"
)

func showtimeRow(theater *domain.Theater, movie *domain.Movie, date, clock string) domain.Showtime {
	return domain.Showtime{
		TheaterID: theater.ID,
		MovieID:   movie.ID,
		Date:      date,
		Time:      clock,
		Format:    "2D",
		Language:  "DOBLADA",
		SourceURL: theater.ListingURL,
	}
}

func TestReplaceForDateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	theater := storeTestTheater(t, db, "cine-tonala")
	movie := createTestMovie(t, db, 402431, "https://www.colombia.com/peliculas/wicked")
	repo := NewShowtimeRepo(zerolog.Nop(), db)

	rows := []domain.Showtime{
		showtimeRow(theater, movie, "2026-01-15", "12:50"),
		showtimeRow(theater, movie, "2026-01-15", "16:30"),
	}

	count, err := repo.ReplaceForDate(ctx, theater.ID, "2026-01-15", rows)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Running the same replace again must not accumulate rows.
	count, err = repo.ReplaceForDate(ctx, theater.ID, "2026-01-15", rows)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored, err := repo.ListForDate(ctx, theater.ID, "2026-01-15")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "12:50", stored[0].Time)
	assert.Equal(t, "16:30", stored[1].Time)
}

func TestReplaceForDateScopedToOneDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	theater := storeTestTheater(t, db, "cine-tonala")
	movie := createTestMovie(t, db, 402431, "https://www.colombia.com/peliculas/wicked")
	repo := NewShowtimeRepo(zerolog.Nop(), db)

	_, err := repo.ReplaceForDate(ctx, theater.ID, "2026-01-15", []domain.Showtime{
		showtimeRow(theater, movie, "2026-01-15", "12:50"),
	})
	require.NoError(t, err)

	_, err = repo.ReplaceForDate(ctx, theater.ID, "2026-01-16", []domain.Showtime{
		showtimeRow(theater, movie, "2026-01-16", "18:00"),
		showtimeRow(theater, movie, "2026-01-16", "20:45"),
	})
	require.NoError(t, err)

	// Rewriting the second date leaves the first untouched.
	_, err = repo.ReplaceForDate(ctx, theater.ID, "2026-01-16", []domain.Showtime{
		showtimeRow(theater, movie, "2026-01-16", "21:00"),
	})
	require.NoError(t, err)

	first, err := repo.ListForDate(ctx, theater.ID, "2026-01-15")
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := repo.ListForDate(ctx, theater.ID, "2026-01-16")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "21:00", second[0].Time)
}

func TestReplaceForDateScopedToOneTheater(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	theaterA := storeTestTheater(t, db, "cine-tonala")
	theaterB := storeTestTheater(t, db, "cinemateca")
	movie := createTestMovie(t, db, 402431, "https://www.colombia.com/peliculas/wicked")
	repo := NewShowtimeRepo(zerolog.Nop(), db)

	_, err := repo.ReplaceForDate(ctx, theaterA.ID, "2026-01-15", []domain.Showtime{
		showtimeRow(theaterA, movie, "2026-01-15", "12:50"),
	})
	require.NoError(t, err)

	_, err = repo.ReplaceForDate(ctx, theaterB.ID, "2026-01-15", nil)
	require.NoError(t, err)

	kept, err := repo.ListForDate(ctx, theaterA.ID, "2026-01-15")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestReplaceForDateFailureRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	theater := storeTestTheater(t, db, "cine-tonala")
	movie := createTestMovie(t, db, 402431, "https://www.colombia.com/peliculas/wicked")
	repo := NewShowtimeRepo(zerolog.Nop(), db)

	_, err := repo.ReplaceForDate(ctx, theater.ID, "2026-01-15", []domain.Showtime{
		showtimeRow(theater, movie, "2026-01-15", "12:50"),
	})
	require.NoError(t, err)

	// A row violating the movie foreign key aborts the whole replace;
	// the previously committed rows survive.
	bad := showtimeRow(theater, movie, "2026-01-15", "16:30")
	bad.MovieID = 99999

	_, err = repo.ReplaceForDate(ctx, theater.ID, "2026-01-15", []domain.Showtime{
		showtimeRow(theater, movie, "2026-01-15", "14:00"),
		bad,
	})
	require.Error(t, err)

	stored, err := repo.ListForDate(ctx, theater.ID, "2026-01-15")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "12:50", stored[0].Time)
}
