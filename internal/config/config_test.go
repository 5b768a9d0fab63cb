package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/relocation/internal/config"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "PORT", "REDIS_URL", "LOG_LEVEL", "ALLOWED_ORIGINS", "TOOLS_TOKEN",
		"UNSPLASH_ACCESS_KEY", "HUME_API_KEY", "HUME_SECRET_KEY", "HUME_CONFIG_ID",
		"NEXT_PUBLIC_HUME_CONFIG_ID", "GEMINI_API_KEY", "GEMINI_MODEL", "NEON_AUTH_BASE_URL",
		"NEXT_PUBLIC_NEON_AUTH_URL", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/relo")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/relo", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.AuthBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://db/relo")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("NEXT_PUBLIC_NEON_AUTH_URL", "https://auth.example/neondb")
	t.Setenv("HUME_CONFIG_ID", "cfg-1")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, "https://auth.example/neondb", cfg.AuthBaseURL)
	assert.Equal(t, "cfg-1", cfg.HumeConfigID)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	clearEnv(t)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_BadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://db/relo")

	t.Setenv("LOG_LEVEL", "chatty")
	_, err := config.Load()
	require.Error(t, err)

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-1")
	_, err = config.Load()
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := config.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(local, []byte("DATABASE_URL=postgres://from-file/relo\nPORT=7000\n"), 0o600))
	t.Setenv("PORT", "8081")
	// Unset so godotenv may fill it; t.Setenv restores it afterwards.
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	require.NoError(t, config.LoadEnvFiles(local, filepath.Join(dir, ".env")))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-file/relo", cfg.DatabaseURL)
	assert.Equal(t, "8081", cfg.Port, "process environment wins over the file")
}
