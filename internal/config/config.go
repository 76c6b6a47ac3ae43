// Package config loads server and engine settings from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/xray-tools-mcp/internal/detection"
	"github.com/ironsheep/xray-tools-mcp/internal/engine"
)

// Environment variable names.
const (
	EnvHost           = "XRAY_HOST"
	EnvPort           = "XRAY_PORT"
	EnvRequestTimeout = "XRAY_REQUEST_TIMEOUT"
	EnvMaxBodyBytes   = "XRAY_MAX_BODY_BYTES"
	EnvMaxDimension   = "XRAY_MAX_DIMENSION"
	EnvAzureAccount   = "XRAY_AZURE_ACCOUNT"
	EnvAzureKey       = "XRAY_AZURE_KEY"
	EnvLogLevel       = "XRAY_LOG_LEVEL"
	EnvCacheSize      = "XRAY_CACHE_SIZE"
	EnvCacheTTL       = "XRAY_CACHE_TTL"

	EnvStrategy       = "XRAY_STRATEGY"
	EnvContrastLevel  = "XRAY_CONTRAST_LEVEL"
	EnvMarginFraction = "XRAY_MARGIN_FRACTION"
	EnvCoarseStep     = "XRAY_COARSE_STEP"
	EnvFineStep       = "XRAY_FINE_STEP"
	EnvWorkers        = "XRAY_WORKERS"
	EnvTopK           = "XRAY_TOP_K"
)

// Config holds everything the surfaces need to run.
type Config struct {
	Host           string
	Port           string
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	// MaxDimension bounds the longer side of a decoded capture. Larger
	// images are downsized before analysis. 0 disables resizing.
	MaxDimension int

	AzureAccount string
	AzureKey     string

	LogLevel string

	// CacheSize bounds the number of decoded captures kept in memory and
	// CacheTTL how long each stays. 0 disables caching.
	CacheSize int
	CacheTTL  time.Duration

	Engine engine.Config
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           "8080",
		RequestTimeout: 30 * time.Second,
		MaxBodyBytes:   10 * 1024 * 1024, // 10MB
		MaxDimension:   2048,
		LogLevel:       "info",
		CacheSize:      32,
		CacheTTL:       10 * time.Minute,
		Engine:         engine.DefaultConfig(),
	}
}

// ServerAddress returns host:port for the HTTP listener.
func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials are configured.
func (c *Config) AzureEnabled() bool {
	return c.AzureAccount != "" && c.AzureKey != ""
}

// LoadFromEnv reads the configuration from XRAY_* variables.
//
// XRAY_STRATEGY selects the engine preset; the remaining engine variables
// override individual preset values. Malformed values are errors.
func LoadFromEnv() (*Config, error) {
	def := Default()
	cfg := &Config{
		Host:         getEnvOrDefault(EnvHost, def.Host),
		Port:         getEnvOrDefault(EnvPort, def.Port),
		AzureAccount: os.Getenv(EnvAzureAccount),
		AzureKey:     os.Getenv(EnvAzureKey),
		LogLevel:     getEnvOrDefault(EnvLogLevel, def.LogLevel),
	}

	var err error
	if cfg.RequestTimeout, err = parseDurationOrDefault(EnvRequestTimeout, def.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDurationOrDefault(EnvCacheTTL, def.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.MaxBodyBytes, err = parseIntOrDefault(EnvMaxBodyBytes, def.MaxBodyBytes); err != nil {
		return nil, err
	}
	maxDim, err := parseIntOrDefault(EnvMaxDimension, int64(def.MaxDimension))
	if err != nil {
		return nil, err
	}
	cfg.MaxDimension = int(maxDim)
	cacheSize, err := parseIntOrDefault(EnvCacheSize, int64(def.CacheSize))
	if err != nil {
		return nil, err
	}
	cfg.CacheSize = int(cacheSize)

	strategy, err := detection.ParseStrategy(strings.TrimSpace(os.Getenv(EnvStrategy)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvStrategy, err)
	}
	cfg.Engine = engine.PresetFor(strategy)
	if err := overlayEngine(&cfg.Engine); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks server settings and the engine configuration.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid %s: %q", EnvPort, c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%s must be > 0 (got %d)", EnvMaxBodyBytes, c.MaxBodyBytes)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be > 0 (got %s)", EnvRequestTimeout, c.RequestTimeout)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("%s must be >= 0 (got %d)", EnvMaxDimension, c.MaxDimension)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%s must be >= 0 (got %d)", EnvCacheSize, c.CacheSize)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%s must be >= 0 (got %s)", EnvCacheTTL, c.CacheTTL)
	}
	if (c.AzureAccount == "") != (c.AzureKey == "") {
		return fmt.Errorf("%s and %s must be set together", EnvAzureAccount, EnvAzureKey)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

func overlayEngine(e *engine.Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvContrastLevel, &e.ContrastLevel},
		{EnvCoarseStep, &e.CoarseStep},
		{EnvFineStep, &e.FineStep},
		{EnvWorkers, &e.Workers},
		{EnvTopK, &e.TopK},
	}
	for _, v := range ints {
		raw := strings.TrimSpace(os.Getenv(v.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", v.key, raw)
		}
		*v.dst = n
	}

	if raw := strings.TrimSpace(os.Getenv(EnvMarginFraction)); raw != "" {
		m, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvMarginFraction, raw)
		}
		e.MarginFraction = m
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return duration, nil
}

func parseIntOrDefault(key string, defaultValue int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return intValue, nil
}
