package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no meydan.yaml or .env
// from the repository leaks in.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "ar-EG", cfg.Feed.DateLocale)
	assert.False(t, cfg.Messaging.AutoReply)
	assert.Equal(t, 3*time.Second, cfg.Messaging.AutoReplyDelay)
	assert.Equal(t, 5*time.Minute, cfg.Confirm.TTL)
	assert.Empty(t, cfg.Enhance.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.Enhance.Model)
	assert.Equal(t, "http://localhost:8080", cfg.Share.BaseURL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("MEYDAN_SERVER_PORT", "9090")
	t.Setenv("MEYDAN_STORE_DRIVER", "sqlite")
	t.Setenv("MEYDAN_MESSAGING_AUTO_REPLY", "true")
	t.Setenv("MEYDAN_MESSAGING_AUTO_REPLY_DELAY", "250ms")
	t.Setenv("MEYDAN_ENHANCE_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.True(t, cfg.Messaging.AutoReply)
	assert.Equal(t, 250*time.Millisecond, cfg.Messaging.AutoReplyDelay)
	assert.Equal(t, "secret", cfg.Enhance.APIKey)
}

func TestLoad_File(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  format: json
  level: debug
feed:
  date_locale: en-US
  timezone: UTC
seed:
  fake_users: 5
  fake_seed: 42
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "en-US", cfg.Feed.DateLocale)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 5, cfg.Seed.FakeUsers)
	assert.Equal(t, uint64(42), cfg.Seed.FakeSeed)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MEYDAN_LOG_LEVEL=warn\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MEYDAN_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	inTempDir(t)

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Port: 8080},
			Log:    LogConfig{Level: "info", Format: "text"},
			Store:  StoreConfig{Driver: DriverMemory},
			Feed:   FeedConfig{DateLocale: "ar-EG", Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "driver", mutate: func(c *Config) { c.Store.Driver = "postgres" }, wantErr: "store.driver"},
		{name: "locale", mutate: func(c *Config) { c.Feed.DateLocale = "fr-FR" }, wantErr: "feed.date_locale"},
		{name: "timezone", mutate: func(c *Config) { c.Feed.Timezone = "Mars/Olympus" }, wantErr: "feed.timezone"},
		{name: "negative fakes", mutate: func(c *Config) { c.Seed.FakeUsers = -1 }, wantErr: "seed.fake_users"},
		{name: "negative ttl", mutate: func(c *Config) { c.Confirm.TTL = -time.Second }, wantErr: "confirm.ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
