package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment.
type Config struct {
	DatabaseURL string
	Port        string
	RedisURL    string
	LogLevel    slog.Level

	AllowedOrigins     []string
	RateLimitPerMinute int
	ToolsToken         string

	UnsplashAccessKey string
	HumeAPIKey        string
	HumeSecretKey     string
	HumeConfigID      string
	GeminiAPIKey      string
	GeminiModel       string
	AuthBaseURL       string
}

// DefaultEnvFiles are loaded, when present, before reading the environment.
var DefaultEnvFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads each file that exists. Variables already set in the
// process environment take precedence.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Port:              getEnv("PORT", "8080"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ToolsToken:        os.Getenv("TOOLS_TOKEN"),
		UnsplashAccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
		HumeAPIKey:        os.Getenv("HUME_API_KEY"),
		HumeSecretKey:     os.Getenv("HUME_SECRET_KEY"),
		HumeConfigID:      getEnv("HUME_CONFIG_ID", os.Getenv("NEXT_PUBLIC_HUME_CONFIG_ID")),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       os.Getenv("GEMINI_MODEL"),
		AuthBaseURL:       getEnv("NEON_AUTH_BASE_URL", os.Getenv("NEXT_PUBLIC_NEON_AUTH_URL")),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("required environment variable DATABASE_URL not set")
	}

	level, err := ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	rate, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "60"))
	if err != nil || rate <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be a positive integer, got %q", os.Getenv("RATE_LIMIT_PER_MINUTE"))
	}
	cfg.RateLimitPerMinute = rate

	return cfg, nil
}

// ParseLevel parses debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	return l, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
