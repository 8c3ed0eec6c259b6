// Package config loads brokerage client configuration.
//
// Sources by priority:
//  1. explicit path (--config);
//  2. BROKERAGE_CONFIG;
//  3. ./brokerage.yaml;
//  4. environment only.
//
// Environment variables always overlay file values.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/viant/brokerage/client"
	"github.com/viant/brokerage/client/auth/store"
)

const (
	// PathEnv names the variable holding config file location
	PathEnv = "BROKERAGE_CONFIG"
	// LocalFile is looked up in the working directory
	LocalFile = "brokerage.yaml"
)

type Config struct {
	APIBase   string        `yaml:"api_base" env:"BROKERAGE_API_BASE"`
	Timeout   time.Duration `yaml:"timeout" env:"BROKERAGE_TIMEOUT" env-default:"30s"`
	SearchTTL time.Duration `yaml:"search_ttl" env:"BROKERAGE_SEARCH_TTL" env-default:"1m"`
	Store     StoreConfig   `yaml:"store"`
	Log       LogConfig     `yaml:"log"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects where credentials are kept
type StoreConfig struct {
	Kind string `yaml:"kind" env:"BROKERAGE_STORE" env-default:"file"`
	URL  string `yaml:"url" env:"BROKERAGE_STORE_URL"`
	Key  string `yaml:"key" env:"BROKERAGE_STORE_KEY"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"BROKERAGE_LOG_LEVEL" env-default:"warn"`
	Pretty bool   `yaml:"pretty" env:"BROKERAGE_LOG_PRETTY"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"BROKERAGE_METRICS"`
}

// MustLoad panics on load error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, errors.Wrapf(err, "config file %q stat failed", p)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to read config")
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to overlay env")
		}
		return &cfg, nil
	}

	if path != "" {
		return tryRead(path)
	}
	if envPath := os.Getenv(PathEnv); envPath != "" {
		return tryRead(envPath)
	}
	if _, err := os.Stat(LocalFile); err == nil {
		return tryRead(LocalFile)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read env")
	}
	return &cfg, nil
}

// Init fills in derived defaults
func (c *Config) Init() {
	if c.Store.Kind == "" {
		c.Store.Kind = store.KindFile
	}
	if c.Store.URL == "" && c.Store.Kind != store.KindMemory {
		c.Store.URL = DefaultStoreURL(c.Store.Kind)
	}
	if c.Store.Kind == store.KindSecret && c.Store.Key == "" {
		c.Store.Key = store.DefaultSecretKey
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return errors.Wrap(client.ErrMissingBaseURL, "set BROKERAGE_API_BASE or api_base")
	}
	switch c.Store.Kind {
	case store.KindMemory, store.KindFile, store.KindSecret:
	default:
		return errors.Newf("unsupported store kind: %q", c.Store.Kind)
	}
	if c.Timeout < 0 {
		return errors.Newf("invalid timeout: %v", c.Timeout)
	}
	return nil
}

// DefaultStoreURL returns credential location under the user home directory
func DefaultStoreURL(kind string) string {
	name := "credentials.json"
	if kind == store.KindSecret {
		name = "credentials.enc"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".brokerage", name)
}
