package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/docsink/internal/diag"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL          time.Duration
	CleanupInterval time.Duration

	// Conversion profile (TOML). Empty uses the built-in defaults.
	ProfilePath string

	// Fail policy applied to requests that set none.
	FailSeverity string
	FailText     string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCSINK_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:          envDuration("JOB_TTL", 1*time.Hour),
		CleanupInterval: envDuration("JOB_CLEANUP_INTERVAL", 5*time.Minute),

		ProfilePath: os.Getenv("DOCSINK_PROFILE"),

		FailSeverity: os.Getenv("DOCSINK_FAIL_SEVERITY"),
		FailText:     os.Getenv("DOCSINK_FAIL_TEXT"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCSINK_API_KEY is required")
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy returns the default fail policy. An unknown severity name is an
// error.
func (c Config) Policy() (diag.Policy, error) {
	sev, err := diag.ParseSeverity(c.FailSeverity)
	if err != nil {
		return diag.Policy{}, fmt.Errorf("DOCSINK_FAIL_SEVERITY: %w", err)
	}
	return diag.Policy{Severity: sev, ContainsText: c.FailText}, nil
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
