package config

import (
	"fmt"
	"os"
	"strconv"

	"hirez-stats/internal/constants"
	"hirez-stats/pkg/hirez"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DevID      string
	AuthKey    string
	Endpoint   hirez.Endpoint
	Language   hirez.Language
	Quotas     hirez.Quotas
	ServerPort string
	LogLevel   string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DevID:      getEnv("HIREZ_DEV_ID", ""),
		AuthKey:    getEnv("HIREZ_AUTH_KEY", ""),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}

	if cfg.DevID == "" {
		return nil, fmt.Errorf("HIREZ_DEV_ID is required")
	}
	if cfg.AuthKey == "" {
		return nil, fmt.Errorf("HIREZ_AUTH_KEY is required")
	}

	var err error
	if cfg.Endpoint, err = hirez.ParseEndpoint(getEnv("HIREZ_ENDPOINT", "smitepc")); err != nil {
		return nil, fmt.Errorf("failed to parse HIREZ_ENDPOINT: %w", err)
	}
	if cfg.Language, err = hirez.ParseLanguage(getEnv("HIREZ_LANGUAGE", "english")); err != nil {
		return nil, fmt.Errorf("failed to parse HIREZ_LANGUAGE: %w", err)
	}
	if cfg.Quotas.DailyRequests, err = getEnvInt("HIREZ_DAILY_REQUEST_LIMIT", constants.DailyRequestLimit); err != nil {
		return nil, err
	}
	if cfg.Quotas.DailySessions, err = getEnvInt("HIREZ_DAILY_SESSION_LIMIT", constants.DailySessionLimit); err != nil {
		return nil, err
	}
	if cfg.Quotas.ConcurrentSessions, err = getEnvInt("HIREZ_CONCURRENT_SESSION_LIMIT", constants.ConcurrentSessionLimit); err != nil {
		return nil, err
	}

	logger.Info().
		Str("endpoint", cfg.Endpoint.String()).
		Str("language", cfg.Language.String()).
		Int("daily_requests", cfg.Quotas.DailyRequests).
		Int("daily_sessions", cfg.Quotas.DailySessions).
		Int("concurrent_sessions", cfg.Quotas.ConcurrentSessions).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

// ClientConfig builds the library configuration for these settings.
func (c *Config) ClientConfig(logger zerolog.Logger) hirez.Config {
	quotas := c.Quotas
	return hirez.Config{
		DevID:    c.DevID,
		AuthKey:  c.AuthKey,
		Endpoint: c.Endpoint,
		Language: c.Language,
		Quotas:   &quotas,
		Logger:   logger,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

var Module = fx.Provide(Load)
