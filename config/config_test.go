package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
	})

	t.Run("retry defaults", func(t *testing.T) {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		if cfg.Retry.MaxAttempts != 3 {
			t.Errorf("expected 3 attempts, got %d", cfg.Retry.MaxAttempts)
		}
		if cfg.Retry.BaseDelay != time.Second {
			t.Errorf("expected 1s base delay, got %v", cfg.Retry.BaseDelay)
		}
		if cfg.Retry.MaxDelay != 10*time.Second {
			t.Errorf("expected 10s max delay, got %v", cfg.Retry.MaxDelay)
		}
		if cfg.Retry.BackoffFactor != 2.0 {
			t.Errorf("expected factor 2.0, got %g", cfg.Retry.BackoffFactor)
		}
	})

	t.Run("offline defaults", func(t *testing.T) {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		if cfg.Offline.MaxReplayAttempts != 5 {
			t.Errorf("expected 5 replay attempts, got %d", cfg.Offline.MaxReplayAttempts)
		}
	})

	t.Run("telemetry inherits name and environment", func(t *testing.T) {
		cfg := Config{Name: "app", Environment: "staging"}
		cfg.ApplyDefaults()
		if cfg.Telemetry.ServiceName != "app" {
			t.Errorf("expected service name 'app', got %q", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.Environment != "staging" {
			t.Errorf("expected environment 'staging', got %q", cfg.Telemetry.Environment)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{Name: "app"}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing name", func(c *Config) { c.Name = "" }, "config.name is required"},
		{"invalid environment", func(c *Config) { c.Environment = "qa" }, "config.environment must be one of"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "config.logging"},
		{"max delay below base", func(c *Config) { c.Retry.MaxDelay = c.Retry.BaseDelay / 2 }, "retry.max_delay"},
		{"backoff factor below one", func(c *Config) { c.Retry.BackoffFactor = 0.5 }, "retry.backoff_factor"},
		{"negative prune interval", func(c *Config) { c.Offline.PruneInterval = -time.Second }, "offline.prune_interval"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestRetrySettingsToRetryConfig(t *testing.T) {
	s := RetrySettings{MaxAttempts: 4, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second, BackoffFactor: 3}
	cfg := s.ToRetryConfig()
	if cfg.MaxAttempts != 4 {
		t.Errorf("expected 4 attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms base delay, got %v", cfg.BaseDelay)
	}
	if cfg.RetryIf == nil {
		t.Error("expected RetryIf to carry the default classifier")
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: carebridge
environment: staging
retry:
  max_attempts: 5
offline:
  max_replay_attempts: 7
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := Load("carebridge", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "carebridge" {
		t.Errorf("expected name 'carebridge', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Offline.MaxReplayAttempts != 7 {
		t.Errorf("expected 7 replay attempts, got %d", cfg.Offline.MaxReplayAttempts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg Config
	// With no config file found, Load should still succeed (just empty config)
	if err := Load("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected Load to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/carebridge/config.yml": true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("carebridge", LoaderConfig{})
	if files.ConfigFile != "./cmd/carebridge/config.yml" {
		t.Errorf("expected config file at ./cmd/carebridge/config.yml, got %q", files.ConfigFile)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}
