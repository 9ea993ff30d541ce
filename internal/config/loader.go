package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/nodeplane")
	}

	setDefaults(v)

	v.SetEnvPrefix("NODEPLANE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// Default returns the default configuration without reading any file
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := parseConfig(v)
	return cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)

	// Store defaults
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.data_dir", "./data")

	// Bus defaults
	v.SetDefault("bus.type", "memory")
	v.SetDefault("bus.url", "nats://localhost:4222")
	v.SetDefault("bus.redis_stream", "nodeplane")

	// Worker defaults
	v.SetDefault("workers.lifecycle.poll_interval", "2s")
	v.SetDefault("workers.lifecycle.backoff_interval", "5s")
	v.SetDefault("workers.telemetry.collect_interval", "5s")
	v.SetDefault("workers.telemetry.backoff_interval", "5s")

	// Analytics defaults
	v.SetDefault("analytics.window_minutes", 10)
	v.SetDefault("analytics.deviation_threshold", 2.0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
