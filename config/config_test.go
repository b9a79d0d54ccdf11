package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "clipd.db", cfg.Database.Path)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Fetch.Workers)
	assert.Equal(t, 64, cfg.Fetch.QueueDepth)
	assert.Equal(t, "yt-dlp", cfg.Ytdlp.Binary)
	assert.Equal(t, 2*time.Hour, cfg.Vault.Retention())
	assert.Equal(t, 30*time.Minute, cfg.Fetch.MaxRuntime())
	assert.Equal(t, 15*time.Second, cfg.Fetch.ProbeTimeout())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clipd.toml")
	content := `
[server]
port = 8080

[fetch]
workers = 2
queue_depth = 8

[vault]
dir = "/tmp/artifacts"
retention_hours = 24
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Fetch.Workers)
	assert.Equal(t, 8, cfg.Fetch.QueueDepth)
	assert.Equal(t, "/tmp/artifacts", cfg.Vault.Dir)
	assert.Equal(t, 24*time.Hour, cfg.Vault.Retention())

	// Unset keys keep their defaults
	assert.Equal(t, 3, cfg.Fetch.Retries)
	assert.Equal(t, "yt-dlp", cfg.Ytdlp.Binary)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestExtraArgsList(t *testing.T) {
	cfg := YtdlpConfig{ExtraArgs: `--proxy http://localhost:8118 --user-agent "clipd fetcher"`}
	args, err := cfg.ExtraArgsList()
	require.NoError(t, err)
	assert.Equal(t, []string{"--proxy", "http://localhost:8118", "--user-agent", "clipd fetcher"}, args)

	empty, err := YtdlpConfig{}.ExtraArgsList()
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = YtdlpConfig{ExtraArgs: `--broken "unterminated`}.ExtraArgsList()
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLIPD_SERVER_PORT", "9191")
	t.Setenv("CLIPD_YTDLP_BINARY", "/usr/local/bin/yt-dlp")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.Ytdlp.Binary)
}
