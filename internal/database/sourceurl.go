package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// SourceURLRepo implements domain.SourceURLRepo.
type SourceURLRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewSourceURLRepo creates a new source URL repository.
func NewSourceURLRepo(log zerolog.Logger, db *DB) domain.SourceURLRepo {
	return &SourceURLRepo{
		log: log.With().Str("repo", "sourceurl").Logger(),
		db:  db,
	}
}

// GetMovie returns the canonical movie linked to a (source, url) pair,
// or domain.ErrNotFound. An existing link is authoritative and bypasses
// catalog search.
func (r *SourceURLRepo) GetMovie(ctx context.Context, source domain.ScrapeSource, url string) (*domain.Movie, error) {
	queryBuilder := r.db.squirrel.
		Select("m.id", "m.title", "m.original_title", "m.tmdb_id", "m.year", "m.synopsis", "m.poster_url", "m.rating", "m.classification", "m.created_at").
		From("movie_source_urls u").
		Join("movies m ON m.id = u.movie_id").
		Where("u.source = ?", source).
		Where("u.url = ?", url)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("GetMovie")

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

// Link records that a (source, url) pair resolves to the given movie.
// Relinking the same pair to the same movie is a no-op.
func (r *SourceURLRepo) Link(ctx context.Context, movieID int64, source domain.ScrapeSource, url string) error {
	now := time.Now().Format(time.RFC3339)

	queryBuilder := r.db.squirrel.
		Insert("movie_source_urls").
		Columns("movie_id", "source", "url", "created_at").
		Values(movieID, source, url, now).
		Suffix("ON CONFLICT (source, url) DO UPDATE SET movie_id = excluded.movie_id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Link")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}
