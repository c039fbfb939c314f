package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Service defaults. The CLI only reads LogLevel and the rules location.
const (
	DefaultPort           = "8090"
	DefaultWorkerCount    = 4
	DefaultMaxQueueSize   = 100
	DefaultMaxUploadBytes = 100 << 20
	DefaultJobTTL         = time.Hour
)

// Config holds the HTTP service settings, read from the environment.
type Config struct {
	Port   string
	APIKey string // TFLEXTRACT_API_KEY, sent as a bearer token

	// Documents extracted concurrently and uploads allowed to wait for a worker.
	WorkerCount  int
	MaxQueueSize int

	MaxUploadBytes int64

	// Finished jobs and their reports are dropped after JobTTL.
	JobTTL time.Duration

	// Use the pdftotext CLI for PDFs the Go reader rejects.
	PDFFallbackPdftotext bool

	// RulesFile overrides the rules search; empty searches the default locations.
	RulesFile string

	LogLevel slog.Level
}

// Load reads the environment. Unset, unparsable or non-positive numeric
// values fall back to the defaults.
func Load() Config {
	return Config{
		Port:                 envOr("PORT", DefaultPort),
		APIKey:               os.Getenv("TFLEXTRACT_API_KEY"),
		WorkerCount:          positive(envInt("WORKER_COUNT", DefaultWorkerCount), DefaultWorkerCount),
		MaxQueueSize:         positive(envInt("MAX_QUEUE_SIZE", DefaultMaxQueueSize), DefaultMaxQueueSize),
		MaxUploadBytes:       positive(envInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes), DefaultMaxUploadBytes),
		JobTTL:               positive(envDuration("JOB_TTL", DefaultJobTTL), DefaultJobTTL),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		RulesFile:            os.Getenv("RULES_FILE"),
		LogLevel:             envLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Validate checks the settings the HTTP service cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("TFLEXTRACT_API_KEY is required"))
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %q is not a valid port", c.Port))
	}
	return errors.Join(errs...)
}

func positive[T int | int64 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
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

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(v))); err == nil {
			return l
		}
	}
	return fallback
}
