package colombiacom

import (
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
	"github.com/cartelerahq/cartelera/internal/ingest"
)

const (
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	requestTimeout = 30 * time.Second
)

// The site publishes schedules in Bogota local time.
var bogota = func() *time.Location {
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		return time.FixedZone("COT", -5*3600)
	}
	return loc
}()

// Source scrapes movie listings, metadata and showtimes from
// colombia.com theater pages.
type Source struct {
	log       zerolog.Logger
	showtimes domain.ShowtimeRepo
	reporter  domain.IssueReporter
	now       func() time.Time
}

func NewSource(log zerolog.Logger, showtimes domain.ShowtimeRepo, reporter domain.IssueReporter) *Source {
	return &Source{
		log:       log.With().Str("module", "source").Str("source", string(domain.SourceColombiaCom)).Logger(),
		showtimes: showtimes,
		reporter:  reporter,
		now:       time.Now,
	}
}

func (s *Source) Name() domain.ScrapeSource {
	return domain.SourceColombiaCom
}

// FindMovies lists the movies on a theater's listing page.
func (s *Source) FindMovies(ctx context.Context, theater domain.Theater) ([]domain.MovieInfo, error) {
	if theater.ListingURL == "" {
		return nil, errors.Errorf("theater %q has no listing url", theater.Name)
	}

	s.log.Info().Str("theater", theater.Name).Str("url", theater.ListingURL).Msg("Scraping theater listing")

	var infos []domain.MovieInfo
	seen := make(map[string]bool)

	c := s.newCollector()
	c.OnHTML("div.caja-cinema", func(e *colly.HTMLElement) {
		info, ok := movieInfoFromBox(e)
		if !ok {
			return
		}
		key := ingest.CacheKey(info)
		if seen[key] {
			return
		}
		seen[key] = true
		infos = append(infos, info)
	})

	if err := s.visit(ctx, c, theater.ListingURL); err != nil {
		return nil, err
	}

	s.log.Info().Str("theater", theater.Name).Int("movies", len(infos)).Msg("Found movies on listing page")
	return infos, nil
}

// FetchMetadata scrapes a movie's detail page. Returns nil metadata
// without error when the listing has no detail URL or the page carries
// no recognizable movie section.
func (s *Source) FetchMetadata(ctx context.Context, info domain.MovieInfo) (*domain.MovieMetadata, error) {
	if info.SourceURL == "" {
		return nil, nil
	}

	s.log.Debug().Str("movie", info.Name).Str("url", info.SourceURL).Msg("Scraping movie detail page")

	meta := &domain.MovieMetadata{}
	found := false

	c := s.newCollector()
	c.OnHTML("div.pelicula", func(e *colly.HTMLElement) {
		found = true
		e.ForEach("div", func(_ int, d *colly.HTMLElement) {
			text := strings.TrimSpace(d.Text)
			switch {
			case strings.HasPrefix(text, "Género:"):
				meta.Genre = strings.TrimSpace(strings.TrimPrefix(text, "Género:"))
			case strings.HasPrefix(text, "Duración:"):
				meta.DurationMinutes = parseDuration(strings.TrimPrefix(text, "Duración:"))
			case strings.HasPrefix(text, "Clasificación:"):
				meta.Classification = strings.TrimSpace(strings.TrimPrefix(text, "Clasificación:"))
			case strings.HasPrefix(text, "Director:"):
				meta.Director = strings.TrimSpace(strings.TrimPrefix(text, "Director:"))
			case strings.HasPrefix(text, "Actores:"):
				meta.Actors = splitActors(strings.TrimPrefix(text, "Actores:"))
			case strings.HasPrefix(text, "Título original:"):
				meta.OriginalTitle = strings.TrimSpace(strings.TrimPrefix(text, "Título original:"))
			}
		})
	})
	c.OnHTML("div.fecha-estreno", func(e *colly.HTMLElement) {
		text := strings.TrimSpace(e.Text)
		if raw, ok := strings.CutPrefix(text, "Fecha de estreno:"); ok {
			meta.ReleaseDate, meta.ReleaseYear = parseReleaseDate(raw)
		}
	})

	if err := s.visit(ctx, c, info.SourceURL); err != nil {
		return nil, err
	}

	if !found {
		s.log.Warn().Str("movie", info.Name).Msg("No movie section found on detail page")
		return nil, nil
	}

	if meta.ReleaseYear == 0 {
		s.log.Warn().Str("movie", info.Name).Msg("Could not parse release date from detail page")
		s.reporter.Report(ctx, domain.Issue{
			Name:    "Missing Source Release Date",
			Task:    "colombiacom.FetchMetadata",
			Message: "Could not parse release date for '" + info.Name + "'",
			Context: map[string]any{
				"movie_name": info.Name,
				"movie_url":  info.SourceURL,
			},
			Severity: domain.SeverityWarning,
		})
	}

	return meta, nil
}

// WriteShowtimes scrapes every available date for a theater and
// replaces that theater's stored showtimes one date at a time. A write
// failure on one date is reported and does not affect the others.
func (s *Source) WriteShowtimes(ctx context.Context, theater domain.Theater, movies *ingest.ResolvedMovies) (int, error) {
	if theater.ListingURL == "" {
		return 0, errors.Errorf("theater %q has no listing url", theater.Name)
	}

	dates, todayBlocks, err := s.scrapeListing(ctx, theater)
	if err != nil {
		return 0, err
	}

	if len(dates) == 0 {
		s.log.Warn().Str("theater", theater.Name).Msg("No date options found on listing page")
		s.reporter.Report(ctx, domain.Issue{
			Name:    "No Date Options Found",
			Task:    "colombiacom.WriteShowtimes",
			Message: "No date options found in dropdown for theater: " + theater.Name,
			Context: map[string]any{
				"theater_name": theater.Name,
				"url":          theater.ListingURL,
			},
			Severity: domain.SeverityWarning,
		})
		return 0, nil
	}

	today := s.now().In(bogota).Format(domain.DateFormat)
	total := 0

	for _, date := range dates {
		day := date.Format(domain.DateFormat)

		blocks := todayBlocks
		if day != today {
			u, err := dateURL(theater.ListingURL, date)
			if err != nil {
				return total, errors.Wrapf(err, "invalid listing url for theater %q", theater.Name)
			}
			blocks, err = s.scrapeShowtimeBlocks(ctx, u)
			if err != nil {
				return total, err
			}
		}

		if len(blocks) == 0 {
			s.log.Warn().Str("theater", theater.Name).Str("date", day).Msg("No showtimes found")
			continue
		}

		rows := s.showtimeRows(theater, day, blocks, movies)

		count, err := s.showtimes.ReplaceForDate(ctx, theater.ID, day, rows)
		if err != nil {
			s.log.Error().Err(err).Str("theater", theater.Name).Str("date", day).Msg("Failed to save showtimes")
			s.reporter.Report(ctx, domain.Issue{
				Name:    "Showtime Write Failed",
				Task:    "colombiacom.WriteShowtimes",
				Message: err.Error(),
				Context: map[string]any{
					"theater_name": theater.Name,
					"date":         day,
				},
				Severity: domain.SeverityError,
			})
			continue
		}

		s.log.Info().Str("theater", theater.Name).Str("date", day).Int("showtimes", count).Msg("Saved showtimes for date")
		total += count
	}

	return total, nil
}

// showtimeBlock is one movie's showtimes parsed from a listing page.
type showtimeBlock struct {
	info    domain.MovieInfo
	entries []showtimeEntry
}

// showtimeEntry is one format row under a movie, e.g. "2D DOBLADA"
// with its start times.
type showtimeEntry struct {
	format   string
	language string
	times    []string
}

// scrapeListing fetches the default listing page once, returning the
// available dates and the showtime blocks for today.
func (s *Source) scrapeListing(ctx context.Context, theater domain.Theater) ([]time.Time, []showtimeBlock, error) {
	var dates []time.Time
	var blocks []showtimeBlock

	c := s.newCollector()
	c.OnHTML("select[name=fecha] option", func(e *colly.HTMLElement) {
		value := e.Attr("value")
		if value == "" {
			return
		}
		date, err := parseDateOption(value)
		if err != nil {
			s.log.Warn().Str("value", value).Msg("Could not parse date option")
			return
		}
		dates = append(dates, date)
	})
	c.OnHTML("div.caja-cinema", func(e *colly.HTMLElement) {
		if block, ok := showtimeBlockFromBox(e); ok {
			blocks = append(blocks, block)
		}
	})

	if err := s.visit(ctx, c, theater.ListingURL); err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("theater", theater.Name).Int("dates", len(dates)).Msg("Found date options")
	return dates, blocks, nil
}

// scrapeShowtimeBlocks fetches a date-specific listing page.
func (s *Source) scrapeShowtimeBlocks(ctx context.Context, url string) ([]showtimeBlock, error) {
	var blocks []showtimeBlock

	c := s.newCollector()
	c.OnHTML("div.caja-cinema", func(e *colly.HTMLElement) {
		if block, ok := showtimeBlockFromBox(e); ok {
			blocks = append(blocks, block)
		}
	})

	if err := s.visit(ctx, c, url); err != nil {
		return nil, err
	}

	return blocks, nil
}

// showtimeRows maps parsed blocks to rows, skipping movies the
// resolution phase could not match.
func (s *Source) showtimeRows(theater domain.Theater, day string, blocks []showtimeBlock, movies *ingest.ResolvedMovies) []domain.Showtime {
	var rows []domain.Showtime

	for _, block := range blocks {
		movie, ok := movies.Lookup(block.info)
		if !ok || movie == nil {
			continue
		}

		for _, entry := range block.entries {
			for _, t := range entry.times {
				rows = append(rows, domain.Showtime{
					TheaterID: theater.ID,
					MovieID:   movie.ID,
					Date:      day,
					Time:      t,
					Format:    entry.format,
					Language:  entry.language,
					SourceURL: theater.ListingURL,
				})
			}
		}
	}

	return rows
}

// movieInfoFromBox extracts the movie name and detail URL from one
// caja-cinema listing block.
func movieInfoFromBox(e *colly.HTMLElement) (domain.MovieInfo, bool) {
	name := strings.Join(strings.Fields(e.ChildText("div.nombre-pelicula a")), " ")
	if name == "" {
		return domain.MovieInfo{}, false
	}

	sourceURL := ""
	if href := e.ChildAttr("div.nombre-pelicula a", "href"); href != "" {
		sourceURL = e.Request.AbsoluteURL(href)
	}

	return domain.MovieInfo{Name: name, SourceURL: sourceURL}, true
}

func showtimeBlockFromBox(e *colly.HTMLElement) (showtimeBlock, bool) {
	info, ok := movieInfoFromBox(e)
	if !ok {
		return showtimeBlock{}, false
	}

	block := showtimeBlock{info: info}
	e.ForEach("div.info-pelicula", func(_ int, el *colly.HTMLElement) {
		format, language := splitFormatLanguage(strings.TrimSpace(el.ChildText("div.formato-pelicula")))

		var times []string
		el.ForEach("div.horarios-funcion li", func(_ int, li *colly.HTMLElement) {
			if t, ok := parseClockTime(li.Text); ok {
				times = append(times, t)
			}
		})

		if len(times) > 0 {
			block.entries = append(block.entries, showtimeEntry{format: format, language: language, times: times})
		}
	})

	if len(block.entries) == 0 {
		return showtimeBlock{}, false
	}

	return block, true
}

func (s *Source) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(requestTimeout)
	return c
}

func (s *Source) visit(ctx context.Context, c *colly.Collector, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var visitErr error
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(url); err != nil {
		return errors.Wrapf(err, "failed to fetch %s", url)
	}
	if visitErr != nil {
		return errors.Wrapf(visitErr, "failed to fetch %s", url)
	}

	return nil
}
