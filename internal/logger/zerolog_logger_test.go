// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/flowgate/flowgate/internal/config"
)

func testConfig(outputs []config.LogOutputConfig) *config.LogConfig {
	return &config.LogConfig{
		Level:  "info",
		Format: "json",
		Output: outputs,
		Context: config.LogContextConfig{
			IncludeTimestamp: true,
		},
	}
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.LogConfig
		expectError bool
		errorMsg    string
	}{
		{
			name: "minimal_console_config",
			config: testConfig([]config.LogOutputConfig{
				{Type: "console", Enabled: true},
			}),
			expectError: false,
		},
		{
			name: "file_output_config",
			config: testConfig([]config.LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    filepath.Join(t.TempDir(), "test.log"),
				},
			}),
			expectError: false,
		},
		{
			name: "rotating_file_config",
			config: testConfig([]config.LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    filepath.Join(t.TempDir(), "rotating.log"),
					Rotate: config.LogRotateConfig{
						MaxSizeMB:  1,
						MaxBackups: 3,
						MaxAgeDays: 7,
						Compress:   true,
					},
				},
			}),
			expectError: false,
		},
		{
			name: "invalid_output_type",
			config: testConfig([]config.LogOutputConfig{
				{Type: "invalid", Enabled: true},
			}),
			expectError: true,
			errorMsg:    "unsupported output type: invalid",
		},
		{
			name:        "no_outputs_falls_back_to_stderr",
			config:      testConfig(nil),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer m.Close()

			l := m.GetLogger("test")
			l.Info().Msg("manager smoke test")
		})
	}
}

func TestManager_GetLogger(t *testing.T) {
	cfg := testConfig([]config.LogOutputConfig{
		{Type: "console", Enabled: true},
	})
	cfg.Levels = map[string]string{
		"lifecycle": "debug",
		"server":    "error",
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	// Component-specific level overrides the global level.
	lifecycle := m.GetLogger("lifecycle")
	if lifecycle.GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level for lifecycle, got %v", lifecycle.GetLevel())
	}

	server := m.GetLogger("server")
	if server.GetLevel() != zerolog.ErrorLevel {
		t.Errorf("expected error level for server, got %v", server.GetLevel())
	}

	// Unlisted components inherit the global level.
	other := m.GetLogger("other")
	if other.GetLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level for unlisted component, got %v", other.GetLevel())
	}

	// Repeated calls return the cached logger.
	again := m.GetLogger("lifecycle")
	if again.GetLevel() != lifecycle.GetLevel() {
		t.Error("expected cached logger with same level")
	}
}

func TestManager_SetComponentLevel(t *testing.T) {
	m, err := NewManager(testConfig([]config.LogOutputConfig{
		{Type: "console", Enabled: true},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	l := m.GetLogger("orchestrator")
	if l.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level initially, got %v", l.GetLevel())
	}

	m.SetComponentLevel("orchestrator", "debug")

	updated := m.GetLogger("orchestrator")
	if updated.GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level after change, got %v", updated.GetLevel())
	}
}

func TestManager_ThreadSafety(t *testing.T) {
	m, err := NewManager(testConfig([]config.LogOutputConfig{
		{Type: "console", Enabled: true},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	components := []string{"server", "orchestrator", "lifecycle", "notify", "provision"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			component := components[i%len(components)]
			l := m.GetLogger(component)
			l.Info().Int("goroutine", i).Msg("concurrent access")
			m.SetComponentLevel(component, "debug")
		}(i)
	}
	wg.Wait()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"FATAL", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestManager_RotationWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotate.log")
	m, err := NewManager(testConfig([]config.LogOutputConfig{
		{
			Type:    "file",
			Enabled: true,
			Path:    path,
			Rotate: config.LogRotateConfig{
				MaxSizeMB:  1,
				MaxBackups: 2,
				MaxAgeDays: 1,
			},
		},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	if len(m.writers) != 1 {
		t.Fatalf("expected 1 writer, got %d", len(m.writers))
	}
	lj, ok := m.writers[0].(*lumberjack.Logger)
	if !ok {
		t.Fatalf("expected lumberjack writer, got %T", m.writers[0])
	}
	if lj.MaxSize != 1 || lj.MaxBackups != 2 || lj.MaxAge != 1 {
		t.Errorf("rotation settings not applied: %+v", lj)
	}
}

func TestManager_DisabledOutputs(t *testing.T) {
	m, err := NewManager(testConfig([]config.LogOutputConfig{
		{Type: "console", Enabled: false},
		{Type: "file", Enabled: false, Path: "/nonexistent/should-not-be-created.log"},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Close()

	// Disabled outputs contribute no writers; logging still works via the
	// stderr fallback.
	if len(m.writers) != 0 {
		t.Errorf("expected no writers for disabled outputs, got %d", len(m.writers))
	}
	fallbackLogger := m.GetLogger("test")
	fallbackLogger.Info().Msg("fallback logging")
}

func TestManager_Close(t *testing.T) {
	m, err := NewManager(testConfig([]config.LogOutputConfig{
		{
			Type:    "file",
			Enabled: true,
			Path:    filepath.Join(t.TempDir(), "close.log"),
		},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closeLogger := m.GetLogger("test")
	closeLogger.Info().Msg("before close")

	if err := m.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
