package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// APICallRepo implements domain.APICallRepo.
type APICallRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewAPICallRepo creates a new API call counter repository.
func NewAPICallRepo(log zerolog.Logger, db *DB) domain.APICallRepo {
	return &APICallRepo{
		log: log.With().Str("repo", "apicall").Logger(),
		db:  db,
	}
}

// Increment bumps today's call count for a service and returns the new
// count. The upsert keeps concurrent increments safe.
func (r *APICallRepo) Increment(ctx context.Context, service string) (int, error) {
	now := time.Now()
	today := now.Format(domain.DateFormat)

	queryBuilder := r.db.squirrel.
		Insert("api_call_counters").
		Columns("service", "date", "call_count", "last_called_at").
		Values(service, today, 1, now.Format(time.RFC3339)).
		Suffix("ON CONFLICT (service, date) DO UPDATE SET call_count = call_count + 1, last_called_at = excluded.last_called_at RETURNING call_count")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Increment")

	var count int
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "error executing query")
	}

	return count, nil
}

// DailyCounts returns per-day call counts for a service within an
// inclusive date range.
func (r *APICallRepo) DailyCounts(ctx context.Context, service, startDate, endDate string) ([]domain.APICallCount, error) {
	queryBuilder := r.db.squirrel.
		Select("service", "date", "call_count").
		From("api_call_counters").
		Where("service = ?", service).
		Where("date >= ?", startDate).
		Where("date <= ?", endDate).
		OrderBy("date")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("DailyCounts")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var result []domain.APICallCount
	for rows.Next() {
		var c domain.APICallCount
		if err := rows.Scan(&c.Service, &c.Date, &c.CallCount); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return result, nil
}
