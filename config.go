package goConsole

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/internal/logging"
	"github.com/MrEthical07/goConsole/pipeline"
	"github.com/MrEthical07/goConsole/validation"
)

// Config is the full Engine configuration. Use [DefaultConfig] as the base
// and override individual fields; Build validates the result.
type Config struct {
	API        APIConfig         `mapstructure:"api" yaml:"api"`
	JWT        JWTConfig         `mapstructure:"jwt" yaml:"jwt"`
	Store      StoreConfig       `mapstructure:"store" yaml:"store"`
	Breaker    BreakerConfig     `mapstructure:"breaker" yaml:"breaker"`
	Validation validation.Limits `mapstructure:"validation" yaml:"validation"`
	Logging    LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Audit      AuditConfig       `mapstructure:"audit" yaml:"audit"`
	Metrics    MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the admin API and bounds each call.
type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls how the access token is stored, sent and aged.
type JWTConfig struct {
	StorageKey   string `mapstructure:"storage_key" yaml:"storage_key"`
	HeaderPrefix string `mapstructure:"header_prefix" yaml:"header_prefix"`
	// ExpiryHours is the assumed token lifetime when a token carries no iat.
	ExpiryHours      int           `mapstructure:"expiry_hours" yaml:"expiry_hours"`
	RefreshThreshold time.Duration `mapstructure:"refresh_threshold" yaml:"refresh_threshold"`
}

/*
====================================
STORE CONFIG
====================================
*/

// Token store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// StoreConfig selects the durable token backend.
type StoreConfig struct {
	Backend     string        `mapstructure:"backend" yaml:"backend"`
	RedisAddr   string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string        `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	RedisTTL    time.Duration `mapstructure:"redis_ttl" yaml:"redis_ttl"`
	FilePath    string        `mapstructure:"file_path" yaml:"file_path"`
}

/*
====================================
BREAKER CONFIG
====================================
*/

// BreakerConfig configures the transport circuit breaker.
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests" yaml:"max_requests"`
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests" yaml:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio" yaml:"failure_ratio"`
}

/*
====================================
LOGGING / AUDIT / METRICS
====================================
*/

// LoggingConfig selects the logrus level, format and destination.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	BufferSize int  `mapstructure:"buffer_size" yaml:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full" yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters and histograms.
type MetricsConfig struct {
	Enabled                 bool `mapstructure:"enabled" yaml:"enabled"`
	EnableLatencyHistograms bool `mapstructure:"enable_latency_histograms" yaml:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:       "https://priceofjuice.com",
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    1 * time.Second,
			UserAgent:     "goconsole",
		},
		JWT: JWTConfig{
			StorageKey:       "adminToken",
			HeaderPrefix:     "Bearer ",
			ExpiryHours:      24,
			RefreshThreshold: 1 * time.Hour,
		},
		Store: StoreConfig{
			Backend:     StoreMemory,
			RedisPrefix: "goconsole",
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  1,
			Interval:     60 * time.Second,
			Timeout:      30 * time.Second,
			MinRequests:  3,
			FailureRatio: 0.6,
		},
		Validation: validation.DefaultLimits(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// API
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("API BaseURL must be an absolute http(s) URL")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}
	if c.API.RetryAttempts < 0 {
		return errors.New("API RetryAttempts must be >= 0")
	}
	if c.API.RetryDelay < 0 {
		return errors.New("API RetryDelay must be >= 0")
	}

	// JWT
	if strings.TrimSpace(c.JWT.StorageKey) == "" {
		return errors.New("JWT StorageKey must not be empty")
	}
	if c.JWT.HeaderPrefix == "" {
		return errors.New("JWT HeaderPrefix must not be empty")
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("JWT ExpiryHours must be > 0")
	}
	if c.JWT.RefreshThreshold < 0 {
		return errors.New("JWT RefreshThreshold must be >= 0")
	}

	// Store
	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Store.RedisPrefix == "" {
			return errors.New("Store RedisPrefix must not be empty")
		}
		if c.Store.RedisTTL < 0 {
			return errors.New("Store RedisTTL must be >= 0")
		}
	case StoreFile:
		if strings.TrimSpace(c.Store.FilePath) == "" {
			return errors.New("Store FilePath is required for the file backend")
		}
	default:
		return errors.New("Store Backend must be memory, redis or file")
	}

	// Breaker
	if c.Breaker.Enabled {
		if c.Breaker.Timeout <= 0 {
			return errors.New("Breaker Timeout must be > 0")
		}
		if c.Breaker.Interval < 0 {
			return errors.New("Breaker Interval must be >= 0")
		}
		if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
			return errors.New("Breaker FailureRatio must be in (0, 1]")
		}
	}

	if err := c.Validation.Validate(); err != nil {
		return err
	}

	// Logging
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return errors.New("Logging Format must be text or json")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func (c Config) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		BaseURL:       c.API.BaseURL,
		Timeout:       c.API.Timeout,
		RetryAttempts: c.API.RetryAttempts,
		RetryDelay:    c.API.RetryDelay,
		UserAgent:     c.API.UserAgent,
		HeaderPrefix:  c.JWT.HeaderPrefix,
		Breaker: pipeline.BreakerConfig{
			Enabled:      c.Breaker.Enabled,
			MaxRequests:  c.Breaker.MaxRequests,
			Interval:     c.Breaker.Interval,
			Timeout:      c.Breaker.Timeout,
			MinRequests:  c.Breaker.MinRequests,
			FailureRatio: c.Breaker.FailureRatio,
		},
	}
}

func (c Config) loggingConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

func (c Config) auditConfig() audit.Config {
	return audit.Config{
		Enabled:    c.Audit.Enabled,
		BufferSize: c.Audit.BufferSize,
		DropIfFull: c.Audit.DropIfFull,
	}
}
