package constants

import "time"

const (
	BoardTTL         = 5 * time.Minute
	RetryBaseBackoff = 250 * time.Millisecond
	RetryMaxBackoff  = 5 * time.Second
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 60 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultStatsAPIURL  = "https://api.rottenchess.com"
	DefaultBatchSize    = 50
	DefaultMaxRetries   = 2
	RefreshHistoryLimit = 20
)
