// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Provider types accepted in catalog.providers[].type.
const (
	ProviderTypeFile    = "file"
	ProviderTypeSpotify = "spotify"
	ProviderTypeMySQL   = "mysql"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Control  ControlConfig  `yaml:"control"`
	Playback PlaybackConfig `yaml:"playback"`
	Audio    AudioConfig    `yaml:"audio"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Storage  StorageConfig  `yaml:"storage"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	LastFM   LastFMConfig   `yaml:"lastfm"`
	MySQL    MySQLConfig    `yaml:"mysql"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// ControlConfig represents remote control access configuration.
// An empty token leaves the control API open.
type ControlConfig struct {
	Token string `yaml:"token"`
}

// PlaybackConfig represents playback session configuration.
type PlaybackConfig struct {
	SkipCooldownMs     int     `yaml:"skip_cooldown_ms" default:"500" validate:"gte=0,lte=10000"`
	ShuffleCooldownMs  int     `yaml:"shuffle_cooldown_ms" default:"500" validate:"gte=0,lte=10000"`
	RestartThresholdMs int     `yaml:"restart_threshold_ms" default:"5000" validate:"gte=0,lte=60000"`
	InitialVolume      float64 `yaml:"initial_volume" default:"1.0" validate:"gte=0,lte=1"`
	FrameIntervalMs    int     `yaml:"frame_interval_ms" default:"16" validate:"gte=1,lte=1000"`
}

// AudioConfig represents audio output configuration.
type AudioConfig struct {
	Output               string `yaml:"output" default:"speaker" validate:"oneof=speaker null"`
	SampleRate           int    `yaml:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs             int    `yaml:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	TimeUpdateIntervalMs int    `yaml:"time_update_interval_ms" default:"100" validate:"gte=10,lte=5000"`
	HTTPTimeoutSec       int    `yaml:"http_timeout_sec" default:"30" validate:"gte=1,lte=600"`
}

// CatalogConfig represents catalog loading configuration.
type CatalogConfig struct {
	RefreshIntervalSec int                     `yaml:"refresh_interval_sec" default:"300" validate:"gte=0"`
	Providers          []ProviderConfig        `yaml:"providers" validate:"required,min=1,dive"`
	Filters            map[string]FilterConfig `yaml:"filters"`
}

// ProviderConfig represents a single catalog provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=file spotify mysql"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// StorageConfig represents S3-compatible object storage (e.g. Cloudflare R2)
// used to presign audio URLs.
type StorageConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Region        string `yaml:"region" default:"auto"`
	Insecure      bool   `yaml:"insecure"` // Plain HTTP, for local MinIO
	PresignTTLSec int    `yaml:"presign_ttl_sec" default:"3600" validate:"gte=1,lte=604800"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
}

// LastFMConfig represents Last.fm API configuration. An empty key disables
// genre enrichment.
type LastFMConfig struct {
	APIKey string `yaml:"api_key"`
}

// MySQLConfig represents the beat database configuration.
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
	if v := os.Getenv("CONTROL_TOKEN"); v != "" {
		c.Control.Token = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.MySQL.DSN = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// Validate that every provider has its credentials
	if err := c.validateProviderDependencies(); err != nil {
		return err
	}

	return nil
}

// validateProviderDependencies checks that providers have the service
// configuration they need.
func (c *Config) validateProviderDependencies() error {
	for i, p := range c.Catalog.Providers {
		switch p.Type {
		case ProviderTypeSpotify:
			if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
				return errors.Newf("provider %d (%s) requires spotify.client_id and spotify.client_secret", i, p.DisplayName)
			}
		case ProviderTypeMySQL:
			if c.MySQL.DSN == "" {
				return errors.Newf("provider %d (%s) requires mysql.dsn", i, p.DisplayName)
			}
		}
	}
	return nil
}

// HasProvider reports whether a provider of the given type is configured.
func (c *Config) HasProvider(providerType string) bool {
	for _, p := range c.Catalog.Providers {
		if p.Type == providerType {
			return true
		}
	}
	return false
}

// StorageEnabled reports whether object storage presigning is configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != "" && c.Storage.AccessKey != "" && c.Storage.SecretKey != ""
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Catalog.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Catalog.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}

// RefreshInterval returns the catalog refresh interval, 0 when disabled.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Catalog.RefreshIntervalSec) * time.Second
}

// PresignTTL returns the lifetime of presigned audio URLs.
func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.Storage.PresignTTLSec) * time.Second
}
