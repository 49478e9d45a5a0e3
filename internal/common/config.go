// Package common provides shared utilities for Commodex
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Commodex
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Cache       CacheConfig   `toml:"cache"`
	Market      MarketConfig  `toml:"market"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CacheConfig holds cache TTL and sweep configuration.
type CacheConfig struct {
	TTL           string `toml:"ttl"`            // default entry lifetime, duration string
	SweepInterval string `toml:"sweep_interval"` // expired-entry sweep cadence
}

// GetTTL parses and returns the default cache TTL.
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetSweepInterval parses and returns the sweep interval.
func (c *CacheConfig) GetSweepInterval() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return time.Minute
	}
	return d
}

// MarketConfig holds aggregation behavior configuration.
type MarketConfig struct {
	DataDelay    string `toml:"data_delay"`    // "realtime" or "15min"
	SingleFlight bool   `toml:"single_flight"` // coalesce concurrent identical fetches
	BatchSize    int    `toml:"batch_size"`    // bulk gap-fill batch size
	BatchDelay   string `toml:"batch_delay"`   // pause between bulk batches
}

// GetBatchSize returns the bulk fetch batch size.
func (c *MarketConfig) GetBatchSize() int {
	if c.BatchSize <= 0 {
		return 10
	}
	return c.BatchSize
}

// GetBatchDelay parses and returns the inter-batch delay.
func (c *MarketConfig) GetBatchDelay() time.Duration {
	d, err := time.ParseDuration(c.BatchDelay)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	FMP            VendorConfig `toml:"fmp"`
	Yahoo          VendorConfig `toml:"yahoo"`
	AlphaVantage   VendorConfig `toml:"alphavantage"`
	CommodityPrice VendorConfig `toml:"commodityprice"`
	Marketaux      VendorConfig `toml:"marketaux"`
	Gemini         GeminiConfig `toml:"gemini"`
}

// VendorConfig holds configuration for one upstream market-data vendor.
type VendorConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the HTTP timeout for this vendor.
func (c *VendorConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetRateLimit returns the requests-per-second limit for this vendor.
func (c *VendorConfig) GetRateLimit() int {
	if c.RateLimit <= 0 {
		return 5
	}
	return c.RateLimit
}

// HasKey reports whether a usable API key is configured. Placeholder keys
// ("demo" or empty) disable the client so requests short-circuit to the
// fallback tier instead of making doomed network calls.
func (c *VendorConfig) HasKey() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && !strings.EqualFold(key, "demo")
}

// GeminiConfig holds Gemini API configuration for news intelligence.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// HasKey reports whether a usable Gemini API key is configured.
func (c *GeminiConfig) HasKey() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && !strings.EqualFold(key, "demo")
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// IsProduction returns true when the environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production") || strings.EqualFold(c.Environment, "prod")
}

// DefaultConfig returns a config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Cache: CacheConfig{
			TTL:           "5m",
			SweepInterval: "1m",
		},
		Market: MarketConfig{
			DataDelay:  "realtime",
			BatchSize:  10,
			BatchDelay: "100ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a TOML file and applies environment
// variable overrides. A missing file is not an error; defaults are used.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// API keys in particular come from the process environment in serverless
// deployments rather than from a checked-in file.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("COMMODEX_ENV"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("COMMODEX_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("COMMODEX_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("COMMODEX_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		config.Clients.FMP.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		config.Clients.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("COMMODITYPRICE_API_KEY"); v != "" {
		config.Clients.CommodityPrice.APIKey = v
	}
	if v := os.Getenv("MARKETAUX_API_TOKEN"); v != "" {
		config.Clients.Marketaux.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Clients.Gemini.APIKey = v
	}
}
