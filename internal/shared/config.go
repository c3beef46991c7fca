package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Environment variables (env tags) override file values, mirroring the
// .env-driven deployments the bot is usually run under.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Extractor   ExtractorConfig   `toml:"extractor"`
	Downloads   DownloadConfig    `toml:"downloads"`
	Search      SearchConfig      `toml:"search"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// The catalog provider is disabled entirely when either value is empty.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
}

// Enabled reports whether Spotify credentials are configured.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// ExtractorConfig contains settings for the media extractor daemon.
type ExtractorConfig struct {
	BaseURL              string  `toml:"base_url" env:"EXTRACTOR_URL"`
	RateLimit            float64 `toml:"rate_limit"`
	SearchTimeoutSeconds int     `toml:"search_timeout_seconds"`
	FetchTimeoutSeconds  int     `toml:"fetch_timeout_seconds"`
}

// DownloadConfig contains download directory and resource limit settings.
type DownloadConfig struct {
	Path               string `toml:"path" env:"DOWNLOAD_PATH"`
	MaxFileSizeMB      int64  `toml:"max_file_size_mb" env:"MAX_FILE_SIZE_MB"`
	MaxDurationSeconds int    `toml:"max_duration_seconds" env:"MAX_SONG_DURATION"`
	BitrateKbps        int    `toml:"bitrate_kbps"`
	Workers            int    `toml:"workers"`
}

// MaxFileSizeBytes returns the transfer-time size cap in bytes.
func (d DownloadConfig) MaxFileSizeBytes() int64 {
	return d.MaxFileSizeMB * 1024 * 1024
}

// SearchConfig contains search and result cache settings.
type SearchConfig struct {
	ResultLimit     int `toml:"result_limit"`
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains webhook transport server settings.
type ServerConfig struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	Secret string `toml:"secret" env:"WEBHOOK_SECRET"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
//
// Environment overrides are applied on top, so a bare deployment with only
// SPOTIFY_CLIENT_ID/SECRET and EXTRACTOR_URL set still works without a file.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	if err := env.Parse(&config); err != nil {
		panic(fmt.Sprintf("failed to apply environment overrides: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
