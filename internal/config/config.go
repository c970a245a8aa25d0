// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppConfig holds all application configuration.
// It is instantiated by NewConfig() and passed to components that need it.
type AppConfig struct {
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Log          LogConfig          `mapstructure:"log"`
	Server       ServerConfig       `mapstructure:"server"`
	Pagination   PaginationConfig   `mapstructure:"pagination"`
	BulkCancel   BulkCancelConfig   `mapstructure:"bulk_cancel"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	Provision    ProvisionConfig    `mapstructure:"provision"`
}

// OrchestratorConfig holds the remote orchestration service connection settings.
type OrchestratorConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  []LogOutputConfig `mapstructure:"output"`
	Levels  map[string]string `mapstructure:"levels"`
	Context LogContextConfig  `mapstructure:"context"`
}

// LogOutputConfig defines where logs are written.
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file" or "console"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`   // For file output
	Rotate  LogRotateConfig `mapstructure:"rotate"` // For file output
}

// LogRotateConfig defines log rotation settings.
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs.
type LogContextConfig struct {
	IncludeCaller    bool `mapstructure:"include_caller"`
	IncludeTimestamp bool `mapstructure:"include_timestamp"`
}

// ServerConfig holds the MCP server host settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// PaginationConfig holds listing defaults. The page size applies only to
// fresh requests; a replayed cursor carries its own page size.
type PaginationConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
}

// BulkCancelConfig bounds the bulk-cancel convergence loop. The loop
// re-queries after every batch; MaxSweeps caps how many times it will do
// so before reporting partial completion.
type BulkCancelConfig struct {
	MaxSweeps int  `mapstructure:"max_sweeps"`
	Notify    bool `mapstructure:"notify"`
}

// NotifyConfig holds the notification webhook settings.
type NotifyConfig struct {
	URL     string        `mapstructure:"url"`
	Topic   string        `mapstructure:"topic"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// ProvisionConfig points at the block provisioning manifest.
type ProvisionConfig struct {
	ManifestPath string `mapstructure:"manifest_path"`
}

// NewConfig creates a new AppConfig by reading from a file, environment
// variables, and applying defaults.
func NewConfig(configPath string) (*AppConfig, error) {
	cfg := defaultConfig()

	v := viper.New()

	// Set config file if provided, otherwise search in standard locations
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/flowgate/")
		v.AddConfigPath("$HOME/.flowgate")
	}

	v.SetEnvPrefix("FLOWGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file. It's okay if it doesn't exist.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// defaultConfig returns an AppConfig with default values.
// This is more type-safe than using viper.SetDefault().
func defaultConfig() AppConfig {
	return AppConfig{
		Orchestrator: OrchestratorConfig{
			APIURL:  "http://localhost:4200/api",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "console",
			Output: []LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    "./logs/flowgate.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  100,
						MaxBackups: 7,
						MaxAgeDays: 30,
						Compress:   true,
					},
				},
				{
					Type:    "console",
					Enabled: true,
				},
			},
			Levels: map[string]string{
				"server":       "INFO",
				"orchestrator": "INFO",
				"lifecycle":    "INFO",
				"notify":       "INFO",
				"provision":    "INFO",
			},
			Context: LogContextConfig{
				IncludeCaller:    true,
				IncludeTimestamp: true,
			},
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Pagination: PaginationConfig{
			DefaultPageSize: 20,
		},
		BulkCancel: BulkCancelConfig{
			MaxSweeps: 10,
			Notify:    false,
		},
		Notify: NotifyConfig{
			URL:     "https://ntfy.sh",
			Topic:   "",
			Timeout: 10 * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "flowgate",
		},
		Provision: ProvisionConfig{
			ManifestPath: "./blocks.yaml",
		},
	}
}

// expandPaths expands ~ and environment variables in path configuration values.
func (c *AppConfig) expandPaths() {
	if c.Provision.ManifestPath != "" {
		c.Provision.ManifestPath = expandPath(c.Provision.ManifestPath)
	}
	for i := range c.Log.Output {
		if c.Log.Output[i].Path != "" {
			c.Log.Output[i].Path = expandPath(c.Log.Output[i].Path)
		}
	}
}

// expandPath expands ~ to home directory and environment variables.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}

// validate checks if the configuration is valid.
func (c *AppConfig) validate() error {
	if c.Orchestrator.APIURL == "" {
		return errors.New("orchestrator api_url is required")
	}

	validLogLevels := map[string]bool{
		"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Pagination.DefaultPageSize <= 0 {
		return fmt.Errorf("pagination default_page_size must be positive, got: %d", c.Pagination.DefaultPageSize)
	}

	if c.BulkCancel.MaxSweeps <= 0 {
		return fmt.Errorf("bulk_cancel max_sweeps must be positive, got: %d", c.BulkCancel.MaxSweeps)
	}

	if c.BulkCancel.Notify && c.Notify.Topic == "" {
		return errors.New("notify topic is required when bulk_cancel notify is enabled")
	}

	return nil
}
