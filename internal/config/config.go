package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"rot-leaderboard/internal/constants"
)

type BatchMode string

const (
	// BatchModePost sends POST /players/batch with a JSON body.
	BatchModePost BatchMode = "post"
	// BatchModeGet sends GET /players?usernames=a,b,c.
	BatchModeGet BatchMode = "get"
)

type Config struct {
	StatsAPIURL       string
	BatchSize         int
	BatchMode         BatchMode
	DirectoryListFlag bool
	FetchConcurrency  int
	MaxRetries        int
	RetryBackoff      time.Duration
	ScoreWeighting    string
	DBPath            string
	ServerPort        string
	LogLevel          string
	BoardTTL          time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("stats_api_url", cfg.StatsAPIURL).
		Int("batch_size", cfg.BatchSize).
		Str("batch_mode", string(cfg.BatchMode)).
		Int("fetch_concurrency", cfg.FetchConcurrency).
		Str("score_weighting", cfg.ScoreWeighting).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("board_ttl", cfg.BoardTTL).
		Msg("configuration loaded")

	return cfg, nil
}

// FromEnv builds a Config from the process environment without touching .env.
func FromEnv() (*Config, error) {
	batchSize, err := getEnvInt("BATCH_SIZE", constants.DefaultBatchSize)
	if err != nil {
		return nil, err
	}
	concurrency, err := getEnvInt("FETCH_CONCURRENCY", 1)
	if err != nil {
		return nil, err
	}
	retries, err := getEnvInt("API_MAX_RETRIES", constants.DefaultMaxRetries)
	if err != nil {
		return nil, err
	}
	ttl, err := getEnvDuration("BOARD_TTL", constants.BoardTTL)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StatsAPIURL:       strings.TrimRight(getEnv("STATS_API_URL", constants.DefaultStatsAPIURL), "/"),
		BatchSize:         batchSize,
		BatchMode:         BatchMode(strings.ToLower(getEnv("BATCH_MODE", string(BatchModePost)))),
		DirectoryListFlag: getEnv("DIRECTORY_LIST_FLAG", "false") == "true",
		FetchConcurrency:  concurrency,
		MaxRetries:        retries,
		RetryBackoff:      constants.RetryBaseBackoff,
		ScoreWeighting:    getEnv("SCORE_WEIGHTING", "weighted"),
		DBPath:            getEnv("DB_PATH", "rotboard.db"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		BoardTTL:          ttl,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.StatsAPIURL == "" {
		return fmt.Errorf("STATS_API_URL is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.BatchMode != BatchModePost && c.BatchMode != BatchModeGet {
		return fmt.Errorf("BATCH_MODE must be %q or %q, got %q", BatchModePost, BatchModeGet, c.BatchMode)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("API_MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	return nil
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
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

var Module = fx.Provide(Load)
