package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Storage.HistoryLimit)
	assert.Equal(t, 5*time.Minute, cfg.Search.ParseCacheTTL())
	assert.Equal(t, 500*time.Millisecond, cfg.Search.ParseDebounce())
	assert.Equal(t, time.Hour, cfg.Offline.ParseRefreshInterval())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Len(t, cfg.Feeds.ByCategory(), len(news.Categories()))
	assert.True(t, cfg.Feeds.HackerNews.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  data_dir: /tmp/from-file
  history_limit: 5
feeds:
  timeout: 10s
  categories:
    sports: ["https://example.com/sports.xml"]
    weather: ["https://example.com/weather.xml"]
search:
  cache_ttl: nonsense
offline:
  category: sports
  limit: 7
server:
  host: 0.0.0.0
log:
  level: debug
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NEWSDESK_SERVER_PORT=9191\n"), 0o600))
	t.Setenv("NEWSDESK_DATA_DIR", "/tmp/from-env")
	t.Setenv("NEWSDESK_USER", "alice")
	t.Setenv("NEWSDESK_SERVER_HOST", "192.168.1.10")
	t.Setenv("NEWSDESK_SERVER_PORT", "")
	os.Unsetenv("NEWSDESK_SERVER_PORT")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", cfg.Storage.DataDir)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, 5, cfg.Storage.HistoryLimit)
	assert.Equal(t, 10*time.Second, cfg.Feeds.ParseTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Search.ParseCacheTTL())
	assert.Equal(t, 7, cfg.Offline.Limit)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "192.168.1.10", cfg.Server.Host)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())

	feeds := cfg.Feeds.ByCategory()
	assert.Equal(t, []string{"https://example.com/sports.xml"}, feeds[news.CategorySports])
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml")

	assert.Error(t, err)
}
