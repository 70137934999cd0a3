package engine

import (
	"net/http"
	"time"
)

// Config holds engine-wide infrastructure configuration, built in main from env.
// It carries no vendor credentials: those live in settings and are passed per call.
type Config struct {
	RequestTimeout       time.Duration // bound passed to the vendor HTTP client
	RequestsPerSecond    float64       // outbound limiter for the vendor API; <=0 disables
	RequestBurst         int
	Retry                RetryConfig
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	RedisURL             string // empty = L1 only
	DatabaseURL          string // postgres settings store; empty = SQLite
	SQLitePath           string
	SettingsFile         string // optional YAML seed
	HTTPClient           *http.Client
}

// DefaultConfig returns the values used when env provides nothing.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:       20 * time.Second,
		RequestsPerSecond:    5,
		RequestBurst:         2,
		Retry:                DefaultRetryConfig,
		CacheTTL:             5 * time.Minute,
		CacheMaxEntries:      500,
		CacheCleanupInterval: 5 * time.Minute,
	}
}

// Client returns cfg.HTTPClient, or a fresh client bounded by RequestTimeout.
func (c Config) Client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{
		Timeout: c.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
		},
	}
}
