package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Bus       BusConfig       `mapstructure:"bus"`
	Workers   WorkersConfig   `mapstructure:"workers"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// StoreConfig represents entity store configuration
type StoreConfig struct {
	Backend string `mapstructure:"backend"`  // Store backend: memory (default), badger
	DataDir string `mapstructure:"data_dir"` // Data directory for the badger backend
}

// BusConfig represents event bus configuration
type BusConfig struct {
	Type     string `mapstructure:"type"`     // Bus type: memory (default), nats, redis, kafka
	URL      string `mapstructure:"url"`      // Server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream prefix (default: "nodeplane")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// WorkersConfig groups the two background worker configurations
type WorkersConfig struct {
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LifecycleConfig represents lifecycle scheduler configuration
type LifecycleConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`    // Cycle cadence (default: 2s)
	BackoffInterval time.Duration `mapstructure:"backoff_interval"` // Sleep after a cycle-level error (default: 5s)
}

// TelemetryConfig represents telemetry generator configuration
type TelemetryConfig struct {
	CollectInterval time.Duration `mapstructure:"collect_interval"` // Cycle cadence (default: 5s)
	BackoffInterval time.Duration `mapstructure:"backoff_interval"` // Sleep after a cycle-level error (default: 5s)
}

// AnalyticsConfig represents bottleneck detection defaults
type AnalyticsConfig struct {
	WindowMinutes      int     `mapstructure:"window_minutes"`      // Default trailing analysis window (default: 10)
	DeviationThreshold float64 `mapstructure:"deviation_threshold"` // Standard deviations from mean (default: 2.0)
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json or console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be between 1 and 65535, got %d", c.Server.HTTPPort)
	}

	switch c.Store.Backend {
	case "memory":
	case "badger":
		if c.Store.DataDir == "" {
			return fmt.Errorf("store.data_dir is required for the badger backend")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s (supported: memory, badger)", c.Store.Backend)
	}

	switch c.Bus.Type {
	case "", "memory", "nats", "redis", "kafka":
	default:
		return fmt.Errorf("unsupported bus type: %s (supported: memory, nats, redis, kafka)", c.Bus.Type)
	}

	if c.Workers.Lifecycle.PollInterval <= 0 {
		return fmt.Errorf("workers.lifecycle.poll_interval must be positive")
	}
	if c.Workers.Telemetry.CollectInterval <= 0 {
		return fmt.Errorf("workers.telemetry.collect_interval must be positive")
	}

	if c.Analytics.WindowMinutes <= 0 {
		return fmt.Errorf("analytics.window_minutes must be positive")
	}
	if c.Analytics.DeviationThreshold <= 0 {
		return fmt.Errorf("analytics.deviation_threshold must be positive")
	}

	return nil
}
