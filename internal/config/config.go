// Package config loads and validates ingester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob, loaded via Viper so the
// ingester can be configured by file, env vars (BOE_ prefix), or flags.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Storage StorageConfig `mapstructure:"storage"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig points at the legislation catalog API.
type CatalogConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
}

// FetchConfig governs politeness and retry behavior for both endpoints.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	MinDelayMs     int    `mapstructure:"min_delay_ms"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffBaseMs  int    `mapstructure:"backoff_base_ms"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// MinDelay returns the inter-request spacing as a duration.
func (f FetchConfig) MinDelay() time.Duration {
	return time.Duration(f.MinDelayMs) * time.Millisecond
}

// BackoffBase returns the initial retry backoff as a duration.
func (f FetchConfig) BackoffBase() time.Duration {
	return time.Duration(f.BackoffBaseMs) * time.Millisecond
}

// Timeout returns the per-request timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// StorageConfig sets the on-disk layout.
type StorageConfig struct {
	WorklistPath string `mapstructure:"worklist_path"`
	SeedDir      string `mapstructure:"seed_dir"`
	RawCacheDir  string `mapstructure:"raw_cache_dir"`
}

// IngestConfig holds orchestrator defaults overridable per run.
type IngestConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", "https://www.boe.es/datosabiertos/api/legislacion-consolidada")
	v.SetDefault("catalog.page_size", 500)
	v.SetDefault("fetch.user_agent", "boe-ingest/1.0 (+https://github.com/iurisdata/boe-ingest)")
	v.SetDefault("fetch.min_delay_ms", 500)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_base_ms", 1000)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("storage.worklist_path", "data/worklist.json")
	v.SetDefault("storage.seed_dir", "data/seeds")
	v.SetDefault("storage.raw_cache_dir", "data/raw")
	v.SetDefault("ingest.batch_size", 25)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url must be set")
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog.page_size must be > 0")
	}
	if c.Fetch.UserAgent == "" {
		return fmt.Errorf("fetch.user_agent must be set")
	}
	if c.Fetch.MinDelayMs <= 0 {
		return fmt.Errorf("fetch.min_delay_ms must be > 0")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Storage.WorklistPath == "" {
		return fmt.Errorf("storage.worklist_path must be set")
	}
	if c.Storage.SeedDir == "" {
		return fmt.Errorf("storage.seed_dir must be set")
	}
	if c.Storage.RawCacheDir == "" {
		return fmt.Errorf("storage.raw_cache_dir must be set")
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be > 0")
	}
	return nil
}
