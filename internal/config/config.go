// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the CLI and the HTTP server.
type Config struct {
	Port        string
	BodyLimitMB int
	StaticDir   string

	LogLevel  string
	LogFormat string

	RowPolicy       string
	HeaderLookahead int
	UsePdftotext    bool

	ResultTTL             time.Duration
	ResultCleanupInterval time.Duration

	ReportCurrency string
}

// Load reads .env files (a missing file is not an error) and then the
// environment. Invalid values are reported rather than silently defaulted.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var errs []error
	cfg := &Config{
		Port:           getEnv("SERVER_PORT", "8080"),
		StaticDir:      getEnv("STATIC_DIR", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "json")),
		RowPolicy:      strings.ToLower(getEnv("PARSER_ROW_POLICY", "strict")),
		ReportCurrency: strings.ToUpper(getEnv("REPORT_CURRENCY", "INR")),
	}

	var err error
	if cfg.BodyLimitMB, err = getEnvAsInt("SERVER_BODY_LIMIT_MB", 32); err != nil {
		errs = append(errs, err)
	}
	if cfg.HeaderLookahead, err = getEnvAsInt("PARSER_HEADER_LOOKAHEAD", 30); err != nil {
		errs = append(errs, err)
	}
	if cfg.UsePdftotext, err = getEnvAsBool("EXTRACTOR_PDFTOTEXT", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.ResultTTL, err = getEnvAsDuration("RESULT_TTL", 30*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.ResultCleanupInterval, err = getEnvAsDuration("RESULT_CLEANUP_INTERVAL", 10*time.Minute); err != nil {
		errs = append(errs, err)
	}

	if cfg.RowPolicy != "strict" && cfg.RowPolicy != "permissive" {
		errs = append(errs, fmt.Errorf("PARSER_ROW_POLICY must be strict or permissive, got %q", cfg.RowPolicy))
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat))
	}
	if cfg.BodyLimitMB <= 0 {
		errs = append(errs, fmt.Errorf("SERVER_BODY_LIMIT_MB must be positive, got %d", cfg.BodyLimitMB))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// BodyLimit returns the maximum request body size in bytes.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
