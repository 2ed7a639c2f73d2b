package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Empty(t, cfg.SharePath)
	assert.Empty(t, cfg.Source())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)
	contents := []byte("share_path: /mnt/vosslabhpc\nserver:\n  port: 9090\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/vosslabhpc", cfg.SharePath)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, path, cfg.Source())

	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(path, []byte("share_path: /mnt/from-file\nserver:\n  port: 9090\n"), 0o644))

	t.Setenv("ACTIVITY_SHARE_PATH", "/mnt/from-env")
	t.Setenv("ACTIVITY_SERVER_PORT", "7070")
	t.Setenv("ACTIVITY_DATABASE_CONN_MAX_LIFETIME", "90s")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/from-env", cfg.SharePath)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Database.ConnMaxLifetime)
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Source())
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(path, []byte("share_path: [unclosed\n"), 0o644))

	_, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestRequireSharePath(t *testing.T) {
	t.Run("no configuration at all", func(t *testing.T) {
		cfg, err := loadConfig("")
		require.NoError(t, err)

		_, err = cfg.RequireSharePath()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No configuration found")
	})

	t.Run("file present but share path blank", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, configFileName)
		require.NoError(t, os.WriteFile(path, []byte("share_path: \"\"\n"), 0o644))

		cfg, err := loadConfig(path)
		require.NoError(t, err)

		_, err = cfg.RequireSharePath()
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
		assert.Contains(t, err.Error(), "Re-run")
	})

	t.Run("configured", func(t *testing.T) {
		dir := t.TempDir()
		path, err := writeSharePath(dir, "/mnt/vosslabhpc")
		require.NoError(t, err)

		cfg, err := loadConfig(path)
		require.NoError(t, err)

		share, err := cfg.RequireSharePath()
		require.NoError(t, err)
		assert.Equal(t, "/mnt/vosslabhpc", share)
	})

	t.Run("environment only", func(t *testing.T) {
		t.Setenv("ACTIVITY_SHARE_PATH", "/mnt/from-env")

		cfg, err := loadConfig("")
		require.NoError(t, err)

		share, err := cfg.RequireSharePath()
		require.NoError(t, err)
		assert.Equal(t, "/mnt/from-env", share)
	})
}

func TestWriteSharePath_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report-builder")

	path, err := writeSharePath(dir, `\\vosslabhpc`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, configFileName), path)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, `\\vosslabhpc`, cfg.SharePath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad server port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "bad database port",
			mutate:  func(c *Config) { c.Database.Port = 70000 },
			wantErr: "invalid database port",
		},
		{
			name:    "zero max open conns",
			mutate:  func(c *Config) { c.Database.MaxOpenConns = 0 },
			wantErr: "max open connections",
		},
		{
			name:    "negative idle conns",
			mutate:  func(c *Config) { c.Database.MaxIdleConns = -1 },
			wantErr: "max idle connections",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = -time.Second },
			wantErr: "timeouts must be positive",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "unknown log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
