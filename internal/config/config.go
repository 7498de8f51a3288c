// Package config loads the settings of the gordl command.
//
// Settings come from an optional YAML file and are then overridden by
// GORDL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gordl/pkg/diag"
)

type Config struct {
	// HTTP service
	Port            string        `yaml:"port"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Compilation
	FailSeverity       int `yaml:"fail_severity"`
	ExpressionSeverity int `yaml:"expression_severity"`
	CacheSize          int `yaml:"cache_size"`
	MaxDepth           int `yaml:"max_depth"`
	// Extensions registers the ext function packs.
	Extensions bool `yaml:"extensions"`

	// Output
	LogLevel string `yaml:"log_level"`
	Format   string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:               "8095",
		MaxBodyBytes:       4 << 20,
		ShutdownTimeout:    10 * time.Second,
		FailSeverity:       int(diag.Degraded),
		ExpressionSeverity: int(diag.Recoverable),
		CacheSize:          256,
		MaxDepth:           100,
		LogLevel:           "info",
		Format:             "text",
	}
}

// Load reads the YAML file at path, if path is not empty, and applies the
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("GORDL_PORT", cfg.Port)
	cfg.MaxBodyBytes = envInt64("GORDL_MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.ShutdownTimeout = envDuration("GORDL_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.FailSeverity = envInt("GORDL_FAIL_SEVERITY", cfg.FailSeverity)
	cfg.ExpressionSeverity = envInt("GORDL_EXPRESSION_SEVERITY", cfg.ExpressionSeverity)
	cfg.CacheSize = envInt("GORDL_CACHE_SIZE", cfg.CacheSize)
	cfg.MaxDepth = envInt("GORDL_MAX_DEPTH", cfg.MaxDepth)
	cfg.Extensions = envBool("GORDL_EXTENSIONS", cfg.Extensions)
	cfg.LogLevel = envOr("GORDL_LOG_LEVEL", cfg.LogLevel)
	cfg.Format = envOr("GORDL_FORMAT", cfg.Format)

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 100
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes))
	}
	if c.FailSeverity < 0 || c.FailSeverity > int(diag.Fatal) {
		errs = append(errs, fmt.Errorf("fail_severity must be between 0 and %d, got %d", diag.Fatal, c.FailSeverity))
	}
	if c.ExpressionSeverity < int(diag.Ignorable) || c.ExpressionSeverity >= int(diag.Fatal) {
		errs = append(errs, fmt.Errorf("expression_severity must be between %d and %d, got %d", diag.Ignorable, diag.Fatal-1, c.ExpressionSeverity))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("format must be text or json, got %q", c.Format))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", c.LogLevel)
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
