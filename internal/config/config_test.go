package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvPath(t *testing.T) {
	assert.Equal(t, "/etc/hero.env", EnvPath([]string{"--migrate", "--env=/etc/hero.env"}))
	assert.Equal(t, "", EnvPath([]string{"--migrate"}))
	assert.Equal(t, "", EnvPath(nil))
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "APP_BASE_URL=https://heroes.example\n" +
		"LEADERBOARD_CACHE_TTL=2s\n" +
		"UID_GENERATION_ATTEMPTS=7\n" +
		"POSTGRES_WRITE_HOST=db-write\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Cleanup(func() {
		for _, k := range []string{"APP_BASE_URL", "LEADERBOARD_CACHE_TTL", "UID_GENERATION_ATTEMPTS", "POSTGRES_WRITE_HOST"} {
			os.Unsetenv(k)
		}
	})

	require.NoError(t, Load(path))
	c := Get()
	assert.Equal(t, "https://heroes.example", c.AppBaseUrl)
	assert.Equal(t, 2*time.Second, c.LeaderboardCacheTTL)
	assert.Equal(t, 7, c.UIDGenerationAttempts)
	assert.Equal(t, "db-write", c.PostgresWrite().Host)
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := &Config{UIDGenerationAttempts: 0}
	assert.Error(t, c.validate())

	c = &Config{UIDGenerationAttempts: 100, AdminPasswordHash: "$2a$10$x"}
	assert.Error(t, c.validate())

	c.AdminSessionKey = "secret"
	assert.NoError(t, c.validate())
}

func TestHTTPServer_KeepsDefaultsForUnsetBodySize(t *testing.T) {
	c := &Config{HttpReadTimeout: time.Second}
	cfg := c.HTTPServer()
	assert.Equal(t, time.Second, cfg.ReadTimeout)
	assert.Equal(t, 1<<20, cfg.MaxRequestBodySize)
}
