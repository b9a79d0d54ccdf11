// Package config loads clipd configuration via Viper.
//
// Precedence: defaults < config file (clipd.toml) < environment variables
// with the CLIPD_ prefix (dots become underscores, e.g. CLIPD_SERVER_PORT).
package config

import (
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/viper"

	"github.com/teranos/clipd/errors"
)

// Config represents the clipd configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Ytdlp    YtdlpConfig    `mapstructure:"ytdlp"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig configures the SQLite job ledger
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// VaultConfig configures artifact storage and retention
type VaultConfig struct {
	Dir                  string `mapstructure:"dir"`
	RetentionHours       int    `mapstructure:"retention_hours"`
	SweepIntervalMinutes int    `mapstructure:"sweep_interval_minutes"`
}

// FetchConfig configures the download supervisor and worker pool
type FetchConfig struct {
	Workers             int `mapstructure:"workers"`               // concurrent yt-dlp processes (default: 4)
	QueueDepth          int `mapstructure:"queue_depth"`           // pending submissions before 503 (default: 64)
	MaxRuntimeMinutes   int `mapstructure:"max_runtime_minutes"`   // wall-clock cap per download
	Retries             int `mapstructure:"retries"`               // tool-level retries on transient fragment failures
	ProbeTimeoutSeconds int `mapstructure:"probe_timeout_seconds"` // socket timeout for metadata probes
	ProbeCacheSeconds   int `mapstructure:"probe_cache_seconds"`   // TTL of the read-through metadata cache
	ProbesPerMinute     int `mapstructure:"probes_per_minute"`     // probe rate limit toward the extractor
}

// YtdlpConfig configures the external download tool
type YtdlpConfig struct {
	Binary    string `mapstructure:"binary"`
	ExtraArgs string `mapstructure:"extra_args"` // shell-quoted, appended to every invocation
}

// ExtraArgsList splits the shell-quoted extra_args string into argv form
func (c YtdlpConfig) ExtraArgsList() ([]string, error) {
	if strings.TrimSpace(c.ExtraArgs) == "" {
		return nil, nil
	}
	args, err := shellquote.Split(c.ExtraArgs)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ytdlp.extra_args %q", c.ExtraArgs)
	}
	return args, nil
}

// LogConfig configures logger output
type LogConfig struct {
	JSON bool   `mapstructure:"json"`
	File string `mapstructure:"file"`
}

// Retention returns the artifact retention window as a duration.
func (c VaultConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// SweepInterval returns the purge cadence as a duration.
func (c VaultConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// MaxRuntime returns the per-download wall-clock cap as a duration.
func (c FetchConfig) MaxRuntime() time.Duration {
	return time.Duration(c.MaxRuntimeMinutes) * time.Minute
}

// ProbeTimeout returns the probe socket timeout as a duration.
func (c FetchConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// ProbeCacheTTL returns the metadata cache TTL as a duration.
func (c FetchConfig) ProbeCacheTTL() time.Duration {
	return time.Duration(c.ProbeCacheSeconds) * time.Second
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "clipd.db")

	v.SetDefault("server.port", 5000)

	v.SetDefault("vault.dir", "saved/videos")
	v.SetDefault("vault.retention_hours", 2)
	v.SetDefault("vault.sweep_interval_minutes", 30)

	v.SetDefault("fetch.workers", 4)
	v.SetDefault("fetch.queue_depth", 64)
	v.SetDefault("fetch.max_runtime_minutes", 30)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.probe_timeout_seconds", 15)
	v.SetDefault("fetch.probe_cache_seconds", 60)
	v.SetDefault("fetch.probes_per_minute", 30)

	v.SetDefault("ytdlp.binary", "yt-dlp")
	v.SetDefault("ytdlp.extra_args", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "clipd.log")
}

// Load reads configuration from defaults, an optional clipd.toml in the
// working directory, and CLIPD_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("CLIPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	v.SetConfigName("clipd")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults and env cover everything
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config from %s", path)
	}
	return &cfg, nil
}
