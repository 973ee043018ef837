package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Dataset sources
	DataDir             string
	ReadingsDir         string
	ReadingsPDFFallback bool

	// Upstream chat completions
	UpstreamURL            string
	UpstreamAPIKey         string
	UpstreamModel          string
	UpstreamMaxTokens      int
	UpstreamTemperature    float64
	UpstreamTopK           int
	UpstreamIdleTimeout    time.Duration
	UpstreamConnectTimeout time.Duration
	UpstreamRetries        int

	// Ask limits
	MaxConcurrentAsks int
	MaxQuestionBytes  int64

	// Auth for /ask; empty disables the check.
	APIKey string

	StatsWindow time.Duration
}

const maxUpstreamRetries = 5

func Load() Config {
	dataDir := envOr("DATA_DIR", "data")
	cfg := Config{
		Port: envOr("PORT", "5000"),

		DataDir:             dataDir,
		ReadingsDir:         envOr("READINGS_DIR", filepath.Join(dataDir, "readings")),
		ReadingsPDFFallback: envBool("READINGS_PDF_FALLBACK", true),

		UpstreamURL:            envOr("UPSTREAM_URL", "https://spark-api-open.xf-yun.com/v1/chat/completions"),
		UpstreamAPIKey:         os.Getenv("UPSTREAM_API_KEY"),
		UpstreamModel:          envOr("UPSTREAM_MODEL", "generalv3.5"),
		UpstreamMaxTokens:      envInt("UPSTREAM_MAX_TOKENS", 2048),
		UpstreamTemperature:    envFloat("UPSTREAM_TEMPERATURE", 0.5),
		UpstreamTopK:           envInt("UPSTREAM_TOP_K", 4),
		UpstreamIdleTimeout:    envDuration("UPSTREAM_IDLE_TIMEOUT", 60*time.Second),
		UpstreamConnectTimeout: envDuration("UPSTREAM_CONNECT_TIMEOUT", 15*time.Second),
		UpstreamRetries:        envInt("UPSTREAM_RETRIES", 2),

		MaxConcurrentAsks: envInt("MAX_CONCURRENT_ASKS", 16),
		MaxQuestionBytes:  envInt64("MAX_QUESTION_BYTES", 4096),

		APIKey: os.Getenv("API_KEY"),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.UpstreamMaxTokens <= 0 {
		cfg.UpstreamMaxTokens = 2048
	}
	if cfg.UpstreamTopK <= 0 {
		cfg.UpstreamTopK = 4
	}
	if cfg.UpstreamTemperature < 0 {
		cfg.UpstreamTemperature = 0.5
	}
	if cfg.UpstreamIdleTimeout <= 0 {
		cfg.UpstreamIdleTimeout = 60 * time.Second
	}
	if cfg.UpstreamConnectTimeout <= 0 {
		cfg.UpstreamConnectTimeout = 15 * time.Second
	}
	if cfg.UpstreamRetries < 0 {
		cfg.UpstreamRetries = 0
	}
	if cfg.UpstreamRetries > maxUpstreamRetries {
		cfg.UpstreamRetries = maxUpstreamRetries
	}
	// 0 means unlimited.
	if cfg.MaxConcurrentAsks < 0 {
		cfg.MaxConcurrentAsks = 16
	}
	if cfg.MaxQuestionBytes <= 0 {
		cfg.MaxQuestionBytes = 4096
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings required to serve chat requests.
func (c Config) Validate() error {
	if c.UpstreamAPIKey == "" {
		return fmt.Errorf("UPSTREAM_API_KEY is required")
	}
	if c.UpstreamURL == "" {
		return fmt.Errorf("UPSTREAM_URL is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
