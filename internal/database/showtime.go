package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// ShowtimeRepo implements domain.ShowtimeRepo.
type ShowtimeRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewShowtimeRepo creates a new showtime repository.
func NewShowtimeRepo(log zerolog.Logger, db *DB) domain.ShowtimeRepo {
	return &ShowtimeRepo{
		log: log.With().Str("repo", "showtime").Logger(),
		db:  db,
	}
}

// ReplaceForDate atomically replaces all showtimes for one
// (theater, date) pair: delete existing rows, insert the new ones,
// commit. Either both steps land or neither does. The transaction never
// spans more than one date, so a failed date leaves earlier committed
// dates intact.
func (r *ShowtimeRepo) ReplaceForDate(ctx context.Context, theaterID int64, date string, rows []domain.Showtime) (int, error) {
	now := time.Now().Format(time.RFC3339)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	deleteBuilder := r.db.squirrel.
		Delete("showtimes").
		Where("theater_id = ?", theaterID).
		Where("date = ?", date)

	query, args, err := deleteBuilder.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ReplaceForDate delete")

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "error deleting showtimes for theater %d on %s", theaterID, date)
	}

	if deleted, err := res.RowsAffected(); err == nil && deleted > 0 {
		r.log.Debug().Int64("theater_id", theaterID).Str("date", date).Int64("deleted", deleted).Msg("Deleted existing showtimes")
	}

	for _, row := range rows {
		insertBuilder := r.db.squirrel.
			Insert("showtimes").
			Columns("theater_id", "movie_id", "date", "time", "format", "language", "screen", "source_url", "created_at").
			Values(theaterID, row.MovieID, date, row.Time, row.Format, row.Language, row.Screen, row.SourceURL, now)

		query, args, err := insertBuilder.ToSql()
		if err != nil {
			return 0, errors.Wrap(err, "error building query")
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, errors.Wrapf(err, "error inserting showtime for theater %d on %s %s", theaterID, date, row.Time)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "error committing showtimes")
	}

	return len(rows), nil
}

// ListForDate returns the stored showtimes for a (theater, date) pair
// ordered by time.
func (r *ShowtimeRepo) ListForDate(ctx context.Context, theaterID int64, date string) ([]domain.Showtime, error) {
	queryBuilder := r.db.squirrel.
		Select("id", "theater_id", "movie_id", "date", "time", "format", "language", "screen", "source_url").
		From("showtimes").
		Where("theater_id = ?", theaterID).
		Where("date = ?", date).
		OrderBy("time")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListForDate")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var result []domain.Showtime
	for rows.Next() {
		var st domain.Showtime
		if err := rows.Scan(&st.ID, &st.TheaterID, &st.MovieID, &st.Date, &st.Time, &st.Format, &st.Language, &st.Screen, &st.SourceURL); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		result = append(result, st)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return result, nil
}
