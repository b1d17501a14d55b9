package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://coach.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Market.Timeout)
	assert.Equal(t, 5, cfg.Market.RateLimit)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_URI", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestDatabaseURIAlias(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_URI", "  postgres://coach:pw@db:5432/coach  ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://coach:pw@db:5432/coach", cfg.DatabaseURL)
}

func TestYAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coach.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
database_url: sqlite://from-file.db
llm:
  enabled: true
  provider: gemini
  timeout: 5s
market:
  rate_limit: 2
`), 0o600))

	t.Setenv("COACH_CONFIG", path)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_URI", "")
	t.Setenv("PORT", "9100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:8501, https://coach.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "sqlite://from-file.db", cfg.DatabaseURL)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.Market.RateLimit)
	assert.Equal(t, []string{"http://localhost:8501", "https://coach.example.com"}, cfg.CORSAllowedOrigins)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://coach.db")
	t.Setenv("LLM_PROVIDER", "anthropic")

	_, err := Load()
	assert.ErrorContains(t, err, "LLM_PROVIDER")
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "45")
	assert.Equal(t, 45*time.Second, getEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "1m30s")
	assert.Equal(t, 90*time.Second, getEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("X_TIMEOUT", time.Second))
}
