// Package config loads runtime settings for the API server and the desk CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Search   SearchConfig   `yaml:"search"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SearchConfig drives the remote search client and query session.
type SearchConfig struct {
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	Debounce   string `yaml:"debounce"`
	PageSize   int    `yaml:"page_size"`
	RecentFile string `yaml:"recent_file"`
}

const (
	minDebounce = 300 * time.Millisecond
	maxDebounce = 400 * time.Millisecond
)

func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Log: LogConfig{Level: "info"},
		Search: SearchConfig{
			BaseURL:    "http://localhost:8080",
			Timeout:    "15s",
			Debounce:   "350ms",
			PageSize:   20,
			RecentFile: defaultRecentFile(),
		},
	}
}

// Load reads defaults, then the YAML file at path (if any), then each env
// file (if present), then process environment overrides.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SEARCH_BASE_URL"); v != "" {
		c.Search.BaseURL = v
	}
	if v := os.Getenv("SEARCH_TIMEOUT"); v != "" {
		c.Search.Timeout = v
	}
	if v := os.Getenv("SEARCH_DEBOUNCE"); v != "" {
		c.Search.Debounce = v
	}
	if v := os.Getenv("SEARCH_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: SEARCH_PAGE_SIZE: %w", err)
		}
		c.Search.PageSize = n
	}
	if v := os.Getenv("RECENT_FILE"); v != "" {
		c.Search.RecentFile = v
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil {
		return fmt.Errorf("config: search debounce: %w", err)
	}
	if d < minDebounce || d > maxDebounce {
		return fmt.Errorf("config: search debounce %s outside %s-%s", d, minDebounce, maxDebounce)
	}
	if t, err := time.ParseDuration(c.Search.Timeout); err != nil || t <= 0 {
		return fmt.Errorf("config: invalid search timeout %q", c.Search.Timeout)
	}
	if c.Search.PageSize < 1 || c.Search.PageSize > 100 {
		return fmt.Errorf("config: search page size %d outside 1-100", c.Search.PageSize)
	}
	return nil
}

func (c *Config) SearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func (c *Config) SearchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil {
		return 350 * time.Millisecond
	}
	return d
}

func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

func defaultRecentFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".buyersdesk/recent.json"
	}
	return dir + "/buyersdesk/recent.json"
}
