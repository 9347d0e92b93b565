package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// IssueRepo implements domain.IssueRepo.
type IssueRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewIssueRepo creates a new operational issue repository.
func NewIssueRepo(log zerolog.Logger, db *DB) domain.IssueRepo {
	return &IssueRepo{
		log: log.With().Str("repo", "issue").Logger(),
		db:  db,
	}
}

// Create stores an operational issue. Context is serialized as JSON.
func (r *IssueRepo) Create(ctx context.Context, issue *domain.Issue) error {
	now := time.Now()

	contextJSON := "{}"
	if len(issue.Context) > 0 {
		b, err := json.Marshal(issue.Context)
		if err != nil {
			return errors.Wrap(err, "error marshaling issue context")
		}
		contextJSON = string(b)
	}

	severity := issue.Severity
	if severity == "" {
		severity = domain.SeverityError
	}

	queryBuilder := r.db.squirrel.
		Insert("operational_issues").
		Columns("name", "task", "message", "context", "severity", "created_at").
		Values(issue.Name, issue.Task, issue.Message, contextJSON, severity, now.Format(time.RFC3339))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Create")

	res, err := r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	if id, err := res.LastInsertId(); err == nil {
		issue.ID = id
	}
	issue.CreatedAt = now

	return nil
}
