package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

const apiBaseURL = "https://api.themoviedb.org/3"

// Service implements domain.CatalogClient against the TMDB v3 API.
// Every request increments the api_call_counters table when a counter
// repository is configured.
type Service struct {
	log        zerolog.Logger
	token      string
	language   string
	baseURL    string
	httpClient *http.Client
	callRepo   domain.APICallRepo
}

func NewService(log zerolog.Logger, config *domain.Config, callRepo domain.APICallRepo) *Service {
	return &Service{
		log:      log.With().Str("module", "tmdb").Logger(),
		token:    config.TmdbReadAccessToken,
		language: config.TmdbLanguage,
		baseURL:  apiBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		callRepo: callRepo,
	}
}

type searchResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID            int     `json:"id"`
		Title         string  `json:"title"`
		OriginalTitle string  `json:"original_title"`
		Overview      string  `json:"overview"`
		ReleaseDate   string  `json:"release_date"`
		Popularity    float64 `json:"popularity"`
		VoteAverage   float64 `json:"vote_average"`
		PosterPath    string  `json:"poster_path"`
	} `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

type detailsResponse struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	Popularity    float64 `json:"popularity"`
	VoteAverage   float64 `json:"vote_average"`
	PosterPath    string  `json:"poster_path"`
	Runtime       int     `json:"runtime"`
	ImdbID        string  `json:"imdb_id"`
	Credits       struct {
		Cast []struct {
			Name  string `json:"name"`
			Order int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// SearchMovie searches the catalog by title and returns candidates in
// the catalog's relevance order.
func (s *Service) SearchMovie(ctx context.Context, query string) ([]domain.MovieCandidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("language", s.language)
	params.Set("page", "1")
	params.Set("include_adult", "false")

	s.log.Debug().Str("query", query).Str("language", s.language).Msg("Searching TMDB")

	body, err := s.get(ctx, "/search/movie?"+params.Encode())
	if err != nil {
		return nil, err
	}

	resp := &searchResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal search response")
	}

	results := make([]domain.MovieCandidate, 0, len(resp.Results))
	for _, m := range resp.Results {
		results = append(results, domain.MovieCandidate{
			TmdbID:        m.ID,
			Title:         m.Title,
			OriginalTitle: m.OriginalTitle,
			Overview:      m.Overview,
			ReleaseDate:   m.ReleaseDate,
			Popularity:    m.Popularity,
			VoteAverage:   m.VoteAverage,
			PosterPath:    m.PosterPath,
		})
	}

	return results, nil
}

// MovieDetails fetches the detail view of a catalog entry. With
// includeCredits the cast and crew come back in the same API call.
func (s *Service) MovieDetails(ctx context.Context, tmdbID int, includeCredits bool) (*domain.MovieDetails, error) {
	params := url.Values{}
	params.Set("language", s.language)
	if includeCredits {
		params.Set("append_to_response", "credits")
	}

	s.log.Debug().Int("tmdb_id", tmdbID).Bool("credits", includeCredits).Msg("Fetching TMDB movie details")

	body, err := s.get(ctx, "/movie/"+strconv.Itoa(tmdbID)+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	resp := &detailsResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal details response")
	}

	details := &domain.MovieDetails{
		MovieCandidate: domain.MovieCandidate{
			TmdbID:        resp.ID,
			Title:         resp.Title,
			OriginalTitle: resp.OriginalTitle,
			Overview:      resp.Overview,
			ReleaseDate:   resp.ReleaseDate,
			Popularity:    resp.Popularity,
			VoteAverage:   resp.VoteAverage,
			PosterPath:    resp.PosterPath,
		},
		RuntimeMinutes: resp.Runtime,
		ImdbID:         resp.ImdbID,
	}

	for _, c := range resp.Credits.Crew {
		if c.Job == "Director" {
			details.Directors = append(details.Directors, c.Name)
		}
	}
	for _, c := range resp.Credits.Cast {
		details.Cast = append(details.Cast, c.Name)
	}

	return details, nil
}

func (s *Service) get(ctx context.Context, path string) ([]byte, error) {
	if s.callRepo != nil {
		if _, err := s.callRepo.Increment(ctx, "tmdb"); err != nil {
			s.log.Warn().Err(err).Msg("failed to increment api call counter")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "tmdb request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb api error: unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	return body, nil
}

// PosterURL builds the full image URL for a poster path.
func PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w500" + posterPath
}
