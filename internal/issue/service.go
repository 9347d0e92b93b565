package issue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// Service persists operational issues for operator review and mirrors
// them to the log. Reporting is fire-and-forget: a failed write is
// logged and swallowed so it can never abort a pipeline run.
type Service struct {
	log  zerolog.Logger
	repo domain.IssueRepo
}

func NewService(log zerolog.Logger, repo domain.IssueRepo) domain.IssueReporter {
	return &Service{
		log:  log.With().Str("module", "issue").Logger(),
		repo: repo,
	}
}

func (s *Service) Report(ctx context.Context, issue domain.Issue) {
	event := s.log.Warn()
	switch issue.Severity {
	case domain.SeverityError:
		event = s.log.Error()
	case domain.SeverityInfo:
		event = s.log.Info()
	}
	event.
		Str("issue", issue.Name).
		Str("task", issue.Task).
		Interface("context", issue.Context).
		Msg(issue.Message)

	if s.repo == nil {
		return
	}

	if err := s.repo.Create(ctx, &issue); err != nil {
		s.log.Warn().Err(err).Str("issue", issue.Name).Msg("failed to persist operational issue")
	}
}
