// ABOUTME: Configuration loader for the blogpanel CLI and dashboard
// ABOUTME: Loads settings from a .env file and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is the backend address used when nothing else is configured
const DefaultAPIURL = "http://localhost:8000"

// EnvFileVar names the variable that points at an alternate .env file
const EnvFileVar = "BLOGPANEL_ENV_FILE"

type Config struct {
	// Backend
	APIURL         string
	Timeout        time.Duration
	RateLimit      float64 // requests per second, 0 disables
	RateBurst      int
	MaxUploadBytes int64

	// Local state
	ConfigDir string // empty means the XDG default
	Username  string // pre-fills the login form

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the optional .env file, then the environment. Real environment
// variables take precedence over the file.
func Load() (*Config, error) {
	envFile := getEnv(EnvFileVar, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	cfg := &Config{
		APIURL:         EnsureScheme(getEnv("BLOGPANEL_API_URL", DefaultAPIURL)),
		Timeout:        getEnvDuration("BLOGPANEL_TIMEOUT", 30*time.Second),
		RateLimit:      getEnvFloat("BLOGPANEL_RATE_LIMIT", 0),
		RateBurst:      getEnvInt("BLOGPANEL_RATE_BURST", 1),
		MaxUploadBytes: int64(getEnvInt("BLOGPANEL_MAX_UPLOAD_BYTES", 10<<20)),

		ConfigDir: os.Getenv("BLOGPANEL_CONFIG_DIR"),
		Username:  os.Getenv("BLOGPANEL_USERNAME"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later with a worse message
func (c *Config) Validate() error {
	if err := ValidateAPIURL(c.APIURL); err != nil {
		return fmt.Errorf("BLOGPANEL_API_URL: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("BLOGPANEL_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("BLOGPANEL_RATE_LIMIT must not be negative, got %g", c.RateLimit)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("BLOGPANEL_RATE_BURST must be at least 1, got %d", c.RateBurst)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("BLOGPANEL_MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// ValidateAPIURL requires an absolute http or https URL
func ValidateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or bare seconds ("45")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// EnsureScheme adds a scheme if the URL has none: http for local hosts, https otherwise
func EnsureScheme(raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	host := raw
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "http://" + raw
	}
	return "https://" + raw
}
