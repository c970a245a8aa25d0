// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to config.yaml log.levels
// These ensure consistent logger names across the codebase

// GetServerLogger returns a logger for the MCP server surface
func GetServerLogger() zerolog.Logger {
	return GetLogger("server")
}

// GetOrchestratorLogger returns a logger for orchestrator client operations
func GetOrchestratorLogger() zerolog.Logger {
	return GetLogger("orchestrator")
}

// GetLifecycleLogger returns a logger for execution lifecycle operations
func GetLifecycleLogger() zerolog.Logger {
	return GetLogger("lifecycle")
}

// GetNotifyLogger returns a logger for notification delivery
func GetNotifyLogger() zerolog.Logger {
	return GetLogger("notify")
}

// GetProvisionLogger returns a logger for block provisioning
func GetProvisionLogger() zerolog.Logger {
	return GetLogger("provision")
}
