package domain

type Config struct {
	TmdbReadAccessToken string `toml:"tmdb_read_access_token" mapstructure:"tmdb_read_access_token"`
	TmdbLanguage        string `toml:"tmdb_language" mapstructure:"tmdb_language"`
	DataDir             string `toml:"data_dir" mapstructure:"data_dir"`
	DiscordWebhookURL   string `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
	LogLevel            string `toml:"log_level" mapstructure:"log_level"`
}
