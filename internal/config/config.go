package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSettingsFile = "push.yaml"
	DefaultTimeout      = 300 * time.Second

	// MaxTimeout is the longest timeout a time.Duration can hold.
	MaxTimeout = time.Duration(math.MaxInt64)
)

// Seconds converts a timeout in seconds to a Duration. Values too large for
// a Duration become MaxTimeout rather than wrapping around.
func Seconds(seconds int64) time.Duration {
	if seconds > int64(MaxTimeout/time.Second) {
		return MaxTimeout
	}
	return time.Duration(seconds) * time.Second
}

// Config holds application configuration.
// Everything is optional; command-line flags override it.
type Config struct {
	SettingsFile  string
	DefaultSource string
	SymbolSource  string
	Timeout       time.Duration
	LogLevel      slog.Level

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
}

type ErrMissingRequiredEnvVar struct {
	Name string
}

func (e *ErrMissingRequiredEnvVar) Error() string {
	return fmt.Sprintf("required environment variable %q is not set", e.Name)
}

type ErrInvalidEnvVar struct {
	Name  string
	Value string
}

func (e *ErrInvalidEnvVar) Error() string {
	return fmt.Sprintf("environment variable %q has invalid value %q", e.Name, e.Value)
}

// Load reads configuration from environment variables.
// Returns an error if a value is malformed, or if the object store is only
// partly configured.
func Load() (*Config, error) {
	config := Config{
		SettingsFile:  getEnv("PUSH_SETTINGS_FILE", DefaultSettingsFile),
		DefaultSource: os.Getenv("PUSH_DEFAULT_SOURCE"),
		SymbolSource:  os.Getenv("PUSH_SYMBOL_SOURCE"),
		Timeout:       DefaultTimeout,
		LogLevel:      slog.LevelWarn,
	}

	if v := os.Getenv("PUSH_TIMEOUT"); v != "" {
		seconds, err := strconv.ParseInt(v, 10, 64)
		if err != nil || seconds <= 0 {
			return nil, &ErrInvalidEnvVar{Name: "PUSH_TIMEOUT", Value: v}
		}
		config.Timeout = Seconds(seconds)
	}

	if v := os.Getenv("PUSH_LOG_LEVEL"); v != "" {
		if err := config.LogLevel.UnmarshalText([]byte(strings.ToLower(v))); err != nil {
			return nil, &ErrInvalidEnvVar{Name: "PUSH_LOG_LEVEL", Value: v}
		}
	}

	config.S3Endpoint = os.Getenv("PUSH_S3_ENDPOINT")
	if config.S3Endpoint != "" {
		config.S3AccessKey = os.Getenv("PUSH_S3_ACCESS_KEY")
		if config.S3AccessKey == "" {
			return nil, &ErrMissingRequiredEnvVar{Name: "PUSH_S3_ACCESS_KEY"}
		}
		config.S3SecretKey = os.Getenv("PUSH_S3_SECRET_KEY")
		if config.S3SecretKey == "" {
			return nil, &ErrMissingRequiredEnvVar{Name: "PUSH_S3_SECRET_KEY"}
		}
		if v := os.Getenv("PUSH_S3_USE_SSL"); v != "" {
			useSSL, err := strconv.ParseBool(v)
			if err != nil {
				return nil, &ErrInvalidEnvVar{Name: "PUSH_S3_USE_SSL", Value: v}
			}
			config.S3UseSSL = useSSL
		}
	}

	return &config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
