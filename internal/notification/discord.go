package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendReport sends a run summary for one scrape source
func (s *DiscordService) SendReport(ctx context.Context, source domain.ScrapeSource, report domain.TaskReport) error {
	if s.webhookURL == "" {
		return nil // No webhook configured, skip silently
	}

	fields := []discordField{
		{
			Name:   "Showtimes Saved",
			Value:  fmt.Sprintf("%d", report.TotalShowtimes),
			Inline: true,
		},
		{
			Name:   "Catalog Searches",
			Value:  fmt.Sprintf("%d", report.CatalogCalls),
			Inline: true,
		},
		{
			Name:   "New Movies",
			Value:  fmt.Sprintf("%d", len(report.NewMovies)),
			Inline: true,
		},
	}

	if len(report.NewMovies) > 0 {
		fields = append(fields, discordField{
			Name:   "New Movie Titles",
			Value:  newMovieList(report.NewMovies),
			Inline: false,
		})
	}

	embed := discordEmbed{
		Title:       fmt.Sprintf("Showtime Ingestion Completed: %s", source),
		Description: "Showtime ingestion run completed successfully",
		Color:       0x00ff00, // Green
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}

	payload := discordWebhook{
		Embeds: []discordEmbed{embed},
	}

	return s.sendWebhook(ctx, payload)
}

// SendError sends a failure notification with error details
func (s *DiscordService) SendError(ctx context.Context, source domain.ScrapeSource, err error) error {
	if s.webhookURL == "" {
		return nil // No webhook configured, skip silently
	}

	embed := discordEmbed{
		Title:       fmt.Sprintf("Showtime Ingestion Failed: %s", source),
		Description: fmt.Sprintf("Ingestion run failed with error:\n```%s```", err.Error()),
		Color:       0xff0000, // Red
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	payload := discordWebhook{
		Embeds: []discordEmbed{embed},
	}

	return s.sendWebhook(ctx, payload)
}

// newMovieList renders titles for an embed field, bounded by Discord's
// 1024 character field limit.
func newMovieList(titles []string) string {
	const maxTitles = 20

	if len(titles) > maxTitles {
		extra := len(titles) - maxTitles
		titles = titles[:maxTitles]
		return strings.Join(titles, "\n") + fmt.Sprintf("\n...and %d more", extra)
	}

	return strings.Join(titles, "\n")
}

// sendWebhook sends a webhook payload to Discord
func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

// discordWebhook represents a Discord webhook payload
type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

// discordEmbed represents a Discord embed
type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

// discordField represents a Discord embed field
type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
