package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	// User, when set, takes precedence over the locally logged-in user.
	User    string        `yaml:"user"`
	Storage StorageConfig `yaml:"storage"`
	Feeds   FeedsConfig   `yaml:"feeds"`
	Search  SearchConfig  `yaml:"search"`
	Offline OfflineConfig `yaml:"offline"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig configures the per-user stores.
type StorageConfig struct {
	DataDir      string `yaml:"data_dir"`
	HistoryLimit int    `yaml:"history_limit"`
}

// FeedsConfig lists the RSS/Atom feeds serving each category.
type FeedsConfig struct {
	Timeout           string              `yaml:"timeout"`
	RequestsPerSecond float64             `yaml:"requests_per_second"`
	Categories        map[string][]string `yaml:"categories"`
	HackerNews        HackerNewsConfig    `yaml:"hackernews"`
}

// HackerNewsConfig adds Hacker News top stories to the technology category
// and to search.
type HackerNewsConfig struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"`
}

// ParseTimeout returns the request timeout as time.Duration.
func (f FeedsConfig) ParseTimeout() time.Duration {
	return parseDuration(f.Timeout, 30*time.Second)
}

// ByCategory returns the feed map keyed by known categories. Unknown
// category names are logged and ignored.
func (f FeedsConfig) ByCategory() map[news.Category][]string {
	out := make(map[news.Category][]string, len(f.Categories))
	for name, urls := range f.Categories {
		c, err := news.ParseCategory(name)
		if err != nil {
			slog.Warn("Ignoring feeds of unknown category", "category", name)
			continue
		}
		out[c] = append(out[c], urls...)
	}
	return out
}

// SearchConfig configures the search result cache and input debounce.
type SearchConfig struct {
	CacheTTL  string `yaml:"cache_ttl"`
	CacheSize int    `yaml:"cache_size"`
	Debounce  string `yaml:"debounce"`
}

func (s SearchConfig) ParseCacheTTL() time.Duration {
	return parseDuration(s.CacheTTL, 5*time.Minute)
}

func (s SearchConfig) ParseDebounce() time.Duration {
	return parseDuration(s.Debounce, 500*time.Millisecond)
}

// OfflineConfig configures the periodic offline refresh.
type OfflineConfig struct {
	Category        string `yaml:"category"`
	Limit           int    `yaml:"limit"`
	RefreshInterval string `yaml:"refresh_interval"`
}

func (o OfflineConfig) ParseRefreshInterval() time.Duration {
	return parseDuration(o.RefreshInterval, time.Hour)
}

// ServerConfig configures the HTTP server. Host defaults to loopback.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level name to slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	dataDir := ".newsdesk"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".newsdesk")
	}
	return &Config{
		Storage: StorageConfig{
			DataDir:      dataDir,
			HistoryLimit: 20,
		},
		Feeds: FeedsConfig{
			Timeout:           "30s",
			RequestsPerSecond: 2,
			Categories: map[string][]string{
				"general":       {"https://feeds.bbci.co.uk/news/rss.xml"},
				"business":      {"https://feeds.bbci.co.uk/news/business/rss.xml"},
				"technology":    {"https://feeds.arstechnica.com/arstechnica/technology-lab"},
				"science":       {"https://feeds.bbci.co.uk/news/science_and_environment/rss.xml"},
				"health":        {"https://feeds.bbci.co.uk/news/health/rss.xml"},
				"sports":        {"https://feeds.bbci.co.uk/sport/rss.xml"},
				"entertainment": {"https://feeds.bbci.co.uk/news/entertainment_and_arts/rss.xml"},
			},
			HackerNews: HackerNewsConfig{Enabled: true, Limit: 30},
		},
		Search: SearchConfig{
			CacheTTL:  "5m",
			CacheSize: 64,
			Debounce:  "500ms",
		},
		Offline: OfflineConfig{
			Category:        "general",
			Limit:           20,
			RefreshInterval: "1h",
		},
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEWSDESK_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("NEWSDESK_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("NEWSDESK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NEWSDESK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("NEWSDESK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("NEWSDESK_OFFLINE_CATEGORY"); v != "" {
		cfg.Offline.Category = v
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
