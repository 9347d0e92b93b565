package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/cartelerahq/cartelera/internal/domain"
)

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (CARTELERA_*)
func Load() (*domain.Config, error) {
	cfg := &domain.Config{}

	cfg.TmdbReadAccessToken = viper.GetString("tmdb_read_access_token")
	cfg.TmdbLanguage = viper.GetString("tmdb_language")
	cfg.DataDir = viper.GetString("data_dir")
	cfg.DiscordWebhookURL = viper.GetString("discord_webhook_url")
	cfg.LogLevel = viper.GetString("log_level")

	if cfg.TmdbLanguage == "" {
		cfg.TmdbLanguage = "es-ES"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}

	if cfg.TmdbReadAccessToken == "" {
		return nil, fmt.Errorf("tmdb_read_access_token is required (set via config.yaml or CARTELERA_TMDB_READ_ACCESS_TOKEN environment variable)")
	}

	return cfg, nil
}
