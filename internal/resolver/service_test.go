package resolver

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/match"
)

type fakeCatalog struct {
	results     []domain.MovieCandidate
	searchErr   error
	searchCalls int
	queries     []string
}

func (f *fakeCatalog) SearchMovie(_ context.Context, query string) ([]domain.MovieCandidate, error) {
	f.searchCalls++
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeCatalog) MovieDetails(_ context.Context, _ int, _ bool) (*domain.MovieDetails, error) {
	return &domain.MovieDetails{}, nil
}

type fakeMovieRepo struct {
	byTmdbID map[int]*domain.Movie
	created  []*domain.Movie
	nextID   int64
}

func (f *fakeMovieRepo) GetByTmdbID(_ context.Context, tmdbID int) (*domain.Movie, error) {
	if m, ok := f.byTmdbID[tmdbID]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMovieRepo) CreateWithSourceURL(_ context.Context, movie *domain.Movie, _ domain.ScrapeSource, _ string) error {
	f.nextID++
	movie.ID = f.nextID
	f.created = append(f.created, movie)
	if f.byTmdbID == nil {
		f.byTmdbID = make(map[int]*domain.Movie)
	}
	f.byTmdbID[movie.TmdbID] = movie
	return nil
}

type linkCall struct {
	movieID int64
	url     string
}

type fakeSourceURLRepo struct {
	byURL map[string]*domain.Movie
	links []linkCall
}

func (f *fakeSourceURLRepo) GetMovie(_ context.Context, _ domain.ScrapeSource, url string) (*domain.Movie, error) {
	if m, ok := f.byURL[url]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSourceURLRepo) Link(_ context.Context, movieID int64, _ domain.ScrapeSource, url string) error {
	f.links = append(f.links, linkCall{movieID: movieID, url: url})
	return nil
}

type fakeUnfindableRepo struct {
	records    map[string]*domain.UnfindableURL
	increments int
}

func (f *fakeUnfindableRepo) Get(_ context.Context, url string) (*domain.UnfindableURL, error) {
	if rec, ok := f.records[url]; ok {
		return rec, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUnfindableRepo) Record(_ context.Context, rec *domain.UnfindableURL) error {
	if f.records == nil {
		f.records = make(map[string]*domain.UnfindableURL)
	}
	if existing, ok := f.records[rec.URL]; ok {
		existing.Attempts++
		return nil
	}
	rec.Attempts = 1
	f.records[rec.URL] = rec
	return nil
}

func (f *fakeUnfindableRepo) IncrementAttempts(_ context.Context, url string) error {
	f.increments++
	if rec, ok := f.records[url]; ok {
		rec.Attempts++
	}
	return nil
}

func (f *fakeUnfindableRepo) Delete(_ context.Context, url string) error {
	delete(f.records, url)
	return nil
}

func (f *fakeUnfindableRepo) List(_ context.Context) ([]domain.UnfindableURL, error) {
	var out []domain.UnfindableURL
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, nil
}

type nopReporter struct{}

func (nopReporter) Report(_ context.Context, _ domain.Issue) {}

type resolverFixture struct {
	catalog    *fakeCatalog
	movies     *fakeMovieRepo
	sourceURLs *fakeSourceURLRepo
	unfindable *fakeUnfindableRepo
	svc        Service
}

func newFixture(catalog *fakeCatalog) *resolverFixture {
	f := &resolverFixture{
		catalog:    catalog,
		movies:     &fakeMovieRepo{},
		sourceURLs: &fakeSourceURLRepo{},
		unfindable: &fakeUnfindableRepo{},
	}

	scorer := match.NewScorer(zerolog.Nop(), catalog, nopReporter{})
	f.svc = NewService(zerolog.Nop(), domain.SourceColombiaCom, catalog, scorer,
		f.movies, f.sourceURLs, f.unfindable, nopReporter{})

	return f
}

func TestResolveExistingLinkSkipsCatalog(t *testing.T) {
	f := newFixture(&fakeCatalog{})
	linked := &domain.Movie{ID: 7, Title: "Wicked", TmdbID: 402431}
	f.sourceURLs.byURL = map[string]*domain.Movie{
		"https://www.colombia.com/peliculas/wicked": linked,
	}

	result, err := f.svc.Resolve(context.Background(), "Wicked",
		"https://www.colombia.com/peliculas/wicked", nil)
	require.NoError(t, err)

	assert.Equal(t, linked, result.Movie)
	assert.False(t, result.IsNew)
	assert.False(t, result.CatalogQueried)
	assert.Zero(t, f.catalog.searchCalls)
}

func TestResolveKnownUnfindableIncrementsAttempts(t *testing.T) {
	f := newFixture(&fakeCatalog{})
	url := "https://www.colombia.com/peliculas/rarisima"
	f.unfindable.records = map[string]*domain.UnfindableURL{
		url: {URL: url, Reason: domain.ReasonNoMatch, Attempts: 3},
	}

	result, err := f.svc.Resolve(context.Background(), "Rarisima", url, nil)
	require.NoError(t, err)

	assert.Nil(t, result.Movie)
	assert.False(t, result.IsNew)
	assert.False(t, result.CatalogQueried)
	assert.Zero(t, f.catalog.searchCalls)
	assert.Equal(t, 1, f.unfindable.increments)
	assert.Equal(t, 4, f.unfindable.records[url].Attempts)
}

func TestResolveNoResultsRecordsUnfindable(t *testing.T) {
	f := newFixture(&fakeCatalog{})
	url := "https://www.colombia.com/peliculas/desconocida"

	result, err := f.svc.Resolve(context.Background(), "Desconocida", url, nil)
	require.NoError(t, err)

	assert.Nil(t, result.Movie)
	assert.True(t, result.CatalogQueried)
	require.Contains(t, f.unfindable.records, url)
	assert.Equal(t, domain.ReasonNoResults, f.unfindable.records[url].Reason)
	assert.Equal(t, "Desconocida", f.unfindable.records[url].MovieTitle)
}

func TestResolveNoMatchRecordsUnfindable(t *testing.T) {
	catalog := &fakeCatalog{results: []domain.MovieCandidate{
		{TmdbID: 9, Title: "Totally Different", OriginalTitle: "Totally Different", ReleaseDate: "1980-01-01"},
	}}
	f := newFixture(catalog)
	url := "https://www.colombia.com/peliculas/nueva"
	meta := &domain.MovieMetadata{ReleaseYear: 2026}

	result, err := f.svc.Resolve(context.Background(), "Nueva", url, meta)
	require.NoError(t, err)

	assert.Nil(t, result.Movie)
	assert.True(t, result.CatalogQueried)
	require.Contains(t, f.unfindable.records, url)
	assert.Equal(t, domain.ReasonNoMatch, f.unfindable.records[url].Reason)
}

func TestResolveNameOnlyListingSkipsUnfindableCache(t *testing.T) {
	f := newFixture(&fakeCatalog{})

	result, err := f.svc.Resolve(context.Background(), "Funcion Especial", "", nil)
	require.NoError(t, err)

	assert.Nil(t, result.Movie)
	assert.True(t, result.CatalogQueried)
	assert.Empty(t, f.unfindable.records)
}

func TestResolveExistingMovieByTmdbIDLinksURL(t *testing.T) {
	catalog := &fakeCatalog{results: []domain.MovieCandidate{
		{TmdbID: 402431, Title: "Wicked", ReleaseDate: "2024-11-20"},
	}}
	f := newFixture(catalog)
	existing := &domain.Movie{ID: 12, Title: "Wicked", TmdbID: 402431}
	f.movies.byTmdbID = map[int]*domain.Movie{402431: existing}
	url := "https://www.colombia.com/peliculas/wicked"
	meta := &domain.MovieMetadata{ReleaseYear: 2024}

	result, err := f.svc.Resolve(context.Background(), "Wicked", url, meta)
	require.NoError(t, err)

	assert.Equal(t, existing, result.Movie)
	assert.False(t, result.IsNew)
	assert.True(t, result.CatalogQueried)
	require.Len(t, f.sourceURLs.links, 1)
	assert.Equal(t, linkCall{movieID: 12, url: url}, f.sourceURLs.links[0])
	assert.Empty(t, f.movies.created)
}

func TestResolveCreatesNewMovie(t *testing.T) {
	catalog := &fakeCatalog{results: []domain.MovieCandidate{
		{
			TmdbID:        402431,
			Title:         "Wicked",
			OriginalTitle: "Wicked",
			Overview:      "Elphaba y Glinda en Oz.",
			ReleaseDate:   "2024-11-20",
			VoteAverage:   7.3,
		},
	}}
	f := newFixture(catalog)
	url := "https://www.colombia.com/peliculas/wicked"
	meta := &domain.MovieMetadata{ReleaseYear: 2024, Classification: "PG"}

	result, err := f.svc.Resolve(context.Background(), "Wicked", url, meta)
	require.NoError(t, err)

	require.NotNil(t, result.Movie)
	assert.True(t, result.IsNew)
	assert.True(t, result.CatalogQueried)
	assert.Equal(t, "Wicked", result.Movie.Title)
	assert.Equal(t, 402431, result.Movie.TmdbID)
	assert.Equal(t, 2024, result.Movie.Year)
	assert.Equal(t, "PG", result.Movie.Classification)
	require.Len(t, f.movies.created, 1)
}

func TestResolveSearchesByOriginalTitle(t *testing.T) {
	f := newFixture(&fakeCatalog{})
	meta := &domain.MovieMetadata{OriginalTitle: "The Substance", ReleaseYear: 2024}

	_, err := f.svc.Resolve(context.Background(), "La Sustancia", "", meta)
	require.NoError(t, err)

	require.Len(t, f.catalog.queries, 1)
	assert.Equal(t, "The Substance", f.catalog.queries[0])
}

func TestResolveCatalogErrorPropagates(t *testing.T) {
	f := newFixture(&fakeCatalog{searchErr: errors.New("tmdb api error: unexpected status code 503")})

	result, err := f.svc.Resolve(context.Background(), "Wicked",
		"https://www.colombia.com/peliculas/wicked", nil)
	require.Error(t, err)

	assert.Nil(t, result.Movie)
	assert.True(t, result.CatalogQueried)
	assert.Empty(t, f.unfindable.records)
}
