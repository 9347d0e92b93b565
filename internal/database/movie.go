package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// MovieRepo implements domain.MovieRepo.
type MovieRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewMovieRepo creates a new movie repository.
func NewMovieRepo(log zerolog.Logger, db *DB) domain.MovieRepo {
	return &MovieRepo{
		log: log.With().Str("repo", "movie").Logger(),
		db:  db,
	}
}

var movieColumns = []string{"id", "title", "original_title", "tmdb_id", "year", "synopsis", "poster_url", "rating", "classification", "created_at"}

// GetByTmdbID returns the canonical movie for a TMDB ID, or
// domain.ErrNotFound.
func (r *MovieRepo) GetByTmdbID(ctx context.Context, tmdbID int) (*domain.Movie, error) {
	queryBuilder := r.db.squirrel.
		Select(movieColumns...).
		From("movies").
		Where("tmdb_id = ?", tmdbID)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("GetByTmdbID")

	row := r.db.handler.QueryRowContext(ctx, query, args...)
	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "error scanning row")
	}

	return movie, nil
}

// CreateWithSourceURL inserts the movie and, when url is non-empty, its
// source URL link. Both writes share one transaction; a unique-constraint
// violation on either rolls back the whole call.
func (r *MovieRepo) CreateWithSourceURL(ctx context.Context, movie *domain.Movie, source domain.ScrapeSource, url string) error {
	now := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	queryBuilder := r.db.squirrel.
		Insert("movies").
		Columns("title", "original_title", "tmdb_id", "year", "synopsis", "poster_url", "rating", "classification", "created_at").
		Values(movie.Title, movie.OriginalTitle, movie.TmdbID, nullableInt(movie.Year), movie.Synopsis, movie.PosterURL, nullableFloat(movie.Rating), movie.Classification, now.Format(time.RFC3339))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("CreateWithSourceURL")

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "error inserting movie tmdb_id=%d", movie.TmdbID)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "error getting movie id")
	}
	movie.ID = id
	movie.CreatedAt = now

	if url != "" {
		queryBuilder := r.db.squirrel.
			Insert("movie_source_urls").
			Columns("movie_id", "source", "url", "created_at").
			Values(id, source, url, now.Format(time.RFC3339))

		query, args, err := queryBuilder.ToSql()
		if err != nil {
			return errors.Wrap(err, "error building query")
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrapf(err, "error linking source url %q", url)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*domain.Movie, error) {
	var (
		movie     domain.Movie
		year      sql.NullInt64
		rating    sql.NullFloat64
		createdAt string
	)

	err := row.Scan(&movie.ID, &movie.Title, &movie.OriginalTitle, &movie.TmdbID, &year, &movie.Synopsis, &movie.PosterURL, &rating, &movie.Classification, &createdAt)
	if err != nil {
		return nil, err
	}

	movie.Year = int(year.Int64)
	movie.Rating = rating.Float64
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		movie.CreatedAt = t
	}

	return &movie, nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}
