package ingest

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/resolver"
)

type fakeSource struct {
	listings   map[int64][]domain.MovieInfo
	findErr    map[int64]error
	writeErr   map[int64]error
	writeCount int
	metaCalls  int
	writes     []int64
}

func (f *fakeSource) Name() domain.ScrapeSource {
	return domain.SourceColombiaCom
}

func (f *fakeSource) FindMovies(_ context.Context, theater domain.Theater) ([]domain.MovieInfo, error) {
	if err := f.findErr[theater.ID]; err != nil {
		return nil, err
	}
	return f.listings[theater.ID], nil
}

func (f *fakeSource) FetchMetadata(_ context.Context, _ domain.MovieInfo) (*domain.MovieMetadata, error) {
	f.metaCalls++
	return nil, nil
}

func (f *fakeSource) WriteShowtimes(_ context.Context, theater domain.Theater, _ *ResolvedMovies) (int, error) {
	if err := f.writeErr[theater.ID]; err != nil {
		return 0, err
	}
	f.writes = append(f.writes, theater.ID)
	return f.writeCount, nil
}

type fakeResolver struct {
	result resolver.Result
	err    error
	calls  int
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ string, _ *domain.MovieMetadata) (resolver.Result, error) {
	f.calls++
	if f.err != nil {
		return resolver.Result{CatalogQueried: true}, f.err
	}
	return f.result, nil
}

type fakeTheaterRepo struct {
	theaters []domain.Theater
	err      error
}

func (f *fakeTheaterRepo) ListBySource(_ context.Context, _ domain.ScrapeSource) ([]domain.Theater, error) {
	return f.theaters, f.err
}

func (f *fakeTheaterRepo) Store(_ context.Context, _ *domain.Theater) error {
	return nil
}

type fakeLinkLookup struct {
	byURL map[string]*domain.Movie
}

func (f *fakeLinkLookup) GetMovie(_ context.Context, _ domain.ScrapeSource, url string) (*domain.Movie, error) {
	if m, ok := f.byURL[url]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLinkLookup) Link(_ context.Context, _ int64, _ domain.ScrapeSource, _ string) error {
	return nil
}

type recordingReporter struct {
	issues []domain.Issue
}

func (r *recordingReporter) Report(_ context.Context, issue domain.Issue) {
	r.issues = append(r.issues, issue)
}

func twoTheaters() []domain.Theater {
	return []domain.Theater{
		{ID: 1, Name: "Cine Tonala", Slug: "cine-tonala", Source: domain.SourceColombiaCom},
		{ID: 2, Name: "Cinemateca", Slug: "cinemateca", Source: domain.SourceColombiaCom},
	}
}

func TestExecuteResolvesSharedURLOnce(t *testing.T) {
	shared := domain.MovieInfo{Name: "Wicked", SourceURL: "https://www.colombia.com/peliculas/wicked"}
	source := &fakeSource{
		listings: map[int64][]domain.MovieInfo{
			1: {shared},
			2: {shared},
		},
		writeCount: 4,
	}
	res := &fakeResolver{result: resolver.Result{
		Movie:          &domain.Movie{ID: 1, Title: "Wicked", TmdbID: 402431},
		IsNew:          true,
		CatalogQueried: true,
	}}
	reporter := &recordingReporter{}

	c := NewCoordinator(zerolog.Nop(), source, res, &fakeLinkLookup{},
		&fakeTheaterRepo{theaters: twoTheaters()}, reporter)

	report, err := c.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.calls)
	assert.Equal(t, 1, report.CatalogCalls)
	assert.Equal(t, []string{"Wicked"}, report.NewMovies)
	assert.Equal(t, 8, report.TotalShowtimes)
	assert.Empty(t, reporter.issues)
}

func TestExecuteExistingLinkSkipsResolution(t *testing.T) {
	info := domain.MovieInfo{Name: "Wicked", SourceURL: "https://www.colombia.com/peliculas/wicked"}
	source := &fakeSource{
		listings:   map[int64][]domain.MovieInfo{1: {info}},
		writeCount: 2,
	}
	res := &fakeResolver{}
	links := &fakeLinkLookup{byURL: map[string]*domain.Movie{
		info.SourceURL: {ID: 5, Title: "Wicked", TmdbID: 402431},
	}}

	c := NewCoordinator(zerolog.Nop(), source, res, links,
		&fakeTheaterRepo{theaters: twoTheaters()[:1]}, &recordingReporter{})

	report, err := c.Execute(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.calls)
	assert.Zero(t, source.metaCalls)
	assert.Zero(t, report.CatalogCalls)
	assert.Equal(t, 2, report.TotalShowtimes)
}

func TestExecuteIsolatesFailedTheater(t *testing.T) {
	source := &fakeSource{
		listings: map[int64][]domain.MovieInfo{
			2: {{Name: "Wicked", SourceURL: "https://www.colombia.com/peliculas/wicked"}},
		},
		findErr:    map[int64]error{1: errors.New("timeout fetching listing")},
		writeCount: 3,
	}
	res := &fakeResolver{result: resolver.Result{
		Movie:          &domain.Movie{ID: 1, Title: "Wicked"},
		CatalogQueried: true,
	}}
	reporter := &recordingReporter{}

	c := NewCoordinator(zerolog.Nop(), source, res, &fakeLinkLookup{},
		&fakeTheaterRepo{theaters: twoTheaters()}, reporter)

	report, err := c.Execute(context.Background())
	require.NoError(t, err)

	// The failed theater never reaches the write phase.
	assert.Equal(t, []int64{2}, source.writes)
	assert.Equal(t, 3, report.TotalShowtimes)

	require.Len(t, reporter.issues, 1)
	assert.Equal(t, domain.SeverityError, reporter.issues[0].Severity)
	assert.Equal(t, "Cine Tonala", reporter.issues[0].Context["theater_name"])
}

func TestExecuteWriteFailureDoesNotAbortRun(t *testing.T) {
	info := domain.MovieInfo{Name: "Wicked", SourceURL: "https://www.colombia.com/peliculas/wicked"}
	source := &fakeSource{
		listings: map[int64][]domain.MovieInfo{
			1: {info},
			2: {info},
		},
		writeErr:   map[int64]error{1: errors.New("database is locked")},
		writeCount: 5,
	}
	res := &fakeResolver{result: resolver.Result{
		Movie:          &domain.Movie{ID: 1, Title: "Wicked"},
		CatalogQueried: true,
	}}
	reporter := &recordingReporter{}

	c := NewCoordinator(zerolog.Nop(), source, res, &fakeLinkLookup{},
		&fakeTheaterRepo{theaters: twoTheaters()}, reporter)

	report, err := c.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, source.writes)
	assert.Equal(t, 5, report.TotalShowtimes)
	require.Len(t, reporter.issues, 1)
	assert.Equal(t, "showtime persistence", reporter.issues[0].Context["phase"])
}

func TestExecuteTheaterListFailureAborts(t *testing.T) {
	c := NewCoordinator(zerolog.Nop(), &fakeSource{}, &fakeResolver{}, &fakeLinkLookup{},
		&fakeTheaterRepo{err: errors.New("database is locked")}, &recordingReporter{})

	_, err := c.Execute(context.Background())
	assert.Error(t, err)
}
