package config

import (
	"fmt"
	"time"

	"github.com/carebridge/synckit/conflict"
	"github.com/carebridge/synckit/logger"
	"github.com/carebridge/synckit/offline"
	"github.com/carebridge/synckit/retry"
	"github.com/carebridge/synckit/telemetry"
)

// RetrySettings is the serializable subset of retry configuration.
// The runtime retry.Config carries function hooks that cannot come
// from a config file; ToRetryConfig builds it from these values.
type RetrySettings struct {
	MaxAttempts   int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay     time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
}

// ApplyDefaults applies default retry settings.
func (s *RetrySettings) ApplyDefaults() {
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = 3
	}
	if s.BaseDelay <= 0 {
		s.BaseDelay = time.Second
	}
	if s.MaxDelay <= 0 {
		s.MaxDelay = 10 * time.Second
	}
	if s.BackoffFactor <= 0 {
		s.BackoffFactor = 2.0
	}
}

// Validate validates retry settings.
func (s *RetrySettings) Validate() error {
	if s.MaxDelay < s.BaseDelay {
		return fmt.Errorf("retry.max_delay must be >= retry.base_delay")
	}
	if s.BackoffFactor < 1 {
		return fmt.Errorf("retry.backoff_factor must be >= 1 (got: %g)", s.BackoffFactor)
	}
	return nil
}

// ToRetryConfig builds a runtime retry configuration from the settings.
func (s *RetrySettings) ToRetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = s.MaxAttempts
	cfg.BaseDelay = s.BaseDelay
	cfg.MaxDelay = s.MaxDelay
	cfg.BackoffFactor = s.BackoffFactor
	return cfg
}

// Config is the top-level configuration for an application embedding the
// sync layer. Projects extend it by embedding it in their own structs.
type Config struct {
	Name        string           `yaml:"name" mapstructure:"name"`
	Environment string           `yaml:"environment" mapstructure:"environment"`
	Logging     logger.Config    `yaml:"logging" mapstructure:"logging"`
	Retry       RetrySettings    `yaml:"retry" mapstructure:"retry"`
	Offline     offline.Config   `yaml:"offline" mapstructure:"offline"`
	Conflict    conflict.Config  `yaml:"conflict" mapstructure:"conflict"`
	Telemetry   telemetry.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults applies default values to the whole configuration tree.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	c.Retry.ApplyDefaults()
	c.Offline.ApplyDefaults()
	c.Conflict.ApplyDefaults()
	if c.Telemetry.ServiceName == "" && c.Name != "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate validates the configuration tree.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("config.retry: %w", err)
	}
	if err := c.Offline.Validate(); err != nil {
		return fmt.Errorf("config.offline: %w", err)
	}
	return nil
}
