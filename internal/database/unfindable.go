package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// UnfindableRepo implements domain.UnfindableRepo.
type UnfindableRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewUnfindableRepo creates a new unfindable URL repository.
func NewUnfindableRepo(log zerolog.Logger, db *DB) domain.UnfindableRepo {
	return &UnfindableRepo{
		log: log.With().Str("repo", "unfindable").Logger(),
		db:  db,
	}
}

var unfindableColumns = []string{"url", "movie_title", "original_title", "reason", "attempts", "first_seen", "last_seen"}

// Get returns the unfindable record for a URL, or domain.ErrNotFound.
func (r *UnfindableRepo) Get(ctx context.Context, url string) (*domain.UnfindableURL, error) {
	queryBuilder := r.db.squirrel.
		Select(unfindableColumns...).
		From("unfindable_urls").
		Where("url = ?", url)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Get")

	row := r.db.handler.QueryRowContext(ctx, query, args...)
	rec, err := scanUnfindable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "error scanning row")
	}

	return rec, nil
}

// Record upserts an unfindable URL. On conflict the attempt counter is
// incremented and last_seen refreshed; the original reason and
// first_seen stay untouched.
func (r *UnfindableRepo) Record(ctx context.Context, rec *domain.UnfindableURL) error {
	now := time.Now().Format(time.RFC3339)

	queryBuilder := r.db.squirrel.
		Insert("unfindable_urls").
		Columns(unfindableColumns...).
		Values(rec.URL, rec.MovieTitle, rec.OriginalTitle, rec.Reason, 1, now, now).
		Suffix("ON CONFLICT (url) DO UPDATE SET attempts = attempts + 1, last_seen = excluded.last_seen, movie_title = excluded.movie_title")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Record")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// IncrementAttempts bumps the attempt counter for a known unfindable URL.
func (r *UnfindableRepo) IncrementAttempts(ctx context.Context, url string) error {
	now := time.Now().Format(time.RFC3339)

	queryBuilder := r.db.squirrel.
		Update("unfindable_urls").
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_seen", now).
		Where("url = ?", url)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("IncrementAttempts")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// Delete removes an unfindable URL so the next run retries it.
func (r *UnfindableRepo) Delete(ctx context.Context, url string) error {
	queryBuilder := r.db.squirrel.
		Delete("unfindable_urls").
		Where("url = ?", url)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Delete")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// List returns all unfindable URLs, most recently seen first.
func (r *UnfindableRepo) List(ctx context.Context) ([]domain.UnfindableURL, error) {
	queryBuilder := r.db.squirrel.
		Select(unfindableColumns...).
		From("unfindable_urls").
		OrderBy("last_seen DESC")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("List")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var result []domain.UnfindableURL
	for rows.Next() {
		rec, err := scanUnfindable(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return result, nil
}

func scanUnfindable(row rowScanner) (*domain.UnfindableURL, error) {
	var (
		rec       domain.UnfindableURL
		firstSeen string
		lastSeen  string
	)

	err := row.Scan(&rec.URL, &rec.MovieTitle, &rec.OriginalTitle, &rec.Reason, &rec.Attempts, &firstSeen, &lastSeen)
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, firstSeen); err == nil {
		rec.FirstSeen = t
	}
	if t, err := time.Parse(time.RFC3339, lastSeen); err == nil {
		rec.LastSeen = t
	}

	return &rec, nil
}
