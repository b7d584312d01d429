// Package config provides configuration loading and validation for
// applications embedding the sync layer.
//
// It uses Viper to load configuration from YAML files and environment
// variables, with .env support through godotenv. The top-level Config
// collects the per-package settings (logging, retry, offline, conflict,
// telemetry); applications extend it by embedding it in their own structs.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("carebridge", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
