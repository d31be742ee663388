// Package config loads client settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL       = "http://127.0.0.1:8000/api"
	defaultHTTPTimeout  = 12 * time.Second
	defaultMaxAttempts  = 3
	defaultPaymentDelay = 2 * time.Second
	defaultLogFile      = "cinema-debug.log"
	defaultFakeSecret   = "dev-secret-change-me"
	defaultFakeAddr     = "127.0.0.1:8000"
)

type Config struct {
	APIURL        string
	HTTPTimeout   time.Duration
	MaxAttempts   int
	PaymentDelay  time.Duration
	Debug         bool
	LogFile       string
	FakeJWTSecret string
	FakeAddr      string

	// Warnings lists values that were present but invalid and replaced by defaults.
	Warnings []string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadFile reads the given env file before the process environment. Variables
// already set in the environment win.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil {
		return Config{}, fmt.Errorf("load env file %s: %w", path, err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	cfg := Config{
		APIURL:        strings.TrimRight(getenv("CINEMA_API_URL", defaultAPIURL), "/"),
		LogFile:       getenv("CINEMA_LOG_FILE", defaultLogFile),
		FakeJWTSecret: getenv("CINEMA_FAKE_JWT_SECRET", defaultFakeSecret),
		FakeAddr:      getenv("CINEMA_FAKE_ADDR", defaultFakeAddr),
		Debug:         truthy(os.Getenv("CINEMA_DEBUG")),
	}
	cfg.HTTPTimeout = cfg.duration("CINEMA_HTTP_TIMEOUT", defaultHTTPTimeout)
	cfg.PaymentDelay = cfg.duration("CINEMA_PAYMENT_DELAY", defaultPaymentDelay)
	cfg.MaxAttempts = cfg.positiveInt("CINEMA_MAX_ATTEMPTS", defaultMaxAttempts)
	return cfg
}

func (c *Config) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid duration for %s: %q, using %s", key, raw, def))
		return def
	}
	return d
}

func (c *Config) positiveInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid int for %s: %q, using %d", key, raw, def))
		return def
	}
	return n
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
