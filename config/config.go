// Package config loads the salesdesk configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"salesdesk/api"
	"salesdesk/sale"
)

// Environment variables that override file settings.
const (
	EnvAPIURL          = "SALESDESK_API_URL"
	EnvDefaultCategory = "SALESDESK_DEFAULT_CATEGORY"
	EnvPaymentMethod   = "SALESDESK_PAYMENT_METHOD"
	EnvSessionFile     = "SALESDESK_SESSION_FILE"
	EnvLogLevel        = "SALESDESK_LOG_LEVEL"
)

// Config is the full salesdesk configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Catalog CatalogConfig `yaml:"catalog"`
	Sale    SaleConfig    `yaml:"sale"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// CatalogConfig controls the product picker.
type CatalogConfig struct {
	// DefaultCategoryID filters the picker on load. Zero shows every product.
	DefaultCategoryID int64 `yaml:"default_category_id"`
}

// SaleConfig holds sale form defaults.
type SaleConfig struct {
	DefaultPaymentMethod string `yaml:"default_payment_method"`
}

// SessionConfig locates the stored login.
type SessionConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig sets the log level: debug, info, warn or error.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		API:     APIConfig{BaseURL: api.DefaultBaseURL},
		Catalog: CatalogConfig{DefaultCategoryID: 1},
		Sale:    SaleConfig{DefaultPaymentMethod: string(sale.DefaultPaymentMethod)},
		Session: SessionConfig{Path: filepath.Join(homeDir(), ".salesdesk", "session.json")},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultPath is where the config file lives when --config is not given.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".salesdesk", "config.yaml")
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// Load reads path over the defaults and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvDefaultCategory); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDefaultCategory, v, err)
		}
		c.Catalog.DefaultCategoryID = id
	}
	if v := os.Getenv(EnvPaymentMethod); v != "" {
		c.Sale.DefaultPaymentMethod = v
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		c.Session.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q", c.API.BaseURL)
	}
	if c.Catalog.DefaultCategoryID < 0 {
		return fmt.Errorf("catalog.default_category_id must not be negative")
	}
	if _, err := sale.ParsePaymentMethod(c.Sale.DefaultPaymentMethod); err != nil {
		return fmt.Errorf("invalid sale.default_payment_method: %w", err)
	}
	if c.Session.Path == "" {
		return fmt.Errorf("session.path is required")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	return nil
}

// PaymentMethod is the parsed default payment method.
func (c *Config) PaymentMethod() sale.PaymentMethod {
	m, err := sale.ParsePaymentMethod(c.Sale.DefaultPaymentMethod)
	if err != nil {
		return sale.DefaultPaymentMethod
	}
	return m
}

// LogLevel is the parsed log level, info when unset or invalid.
func (c *Config) LogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
