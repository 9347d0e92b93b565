package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// TheaterRepo implements domain.TheaterRepo.
type TheaterRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewTheaterRepo creates a new theater repository.
func NewTheaterRepo(log zerolog.Logger, db *DB) domain.TheaterRepo {
	return &TheaterRepo{
		log: log.With().Str("repo", "theater").Logger(),
		db:  db,
	}
}

// ListBySource returns the active theaters belonging to a scrape source.
func (r *TheaterRepo) ListBySource(ctx context.Context, source domain.ScrapeSource) ([]domain.Theater, error) {
	queryBuilder := r.db.squirrel.
		Select("id", "name", "slug", "city", "source", "listing_url", "is_active").
		From("theaters").
		Where("source = ?", source).
		Where("is_active = ?", true).
		OrderBy("name")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListBySource")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var result []domain.Theater
	for rows.Next() {
		var t domain.Theater
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.City, &t.Source, &t.ListingURL, &t.IsActive); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return result, nil
}

// Store upserts a theater keyed by slug.
func (r *TheaterRepo) Store(ctx context.Context, theater *domain.Theater) error {
	queryBuilder := r.db.squirrel.
		Insert("theaters").
		Columns("name", "slug", "city", "source", "listing_url", "is_active").
		Values(theater.Name, theater.Slug, theater.City, theater.Source, theater.ListingURL, theater.IsActive).
		Suffix("ON CONFLICT (slug) DO UPDATE SET name = excluded.name, city = excluded.city, source = excluded.source, listing_url = excluded.listing_url, is_active = excluded.is_active")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Store")

	res, err := r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	if theater.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			theater.ID = id
		}
	}

	return nil
}
