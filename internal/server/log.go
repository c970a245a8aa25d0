// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/flowgate/flowgate/internal/logger"
)

var (
	serverLog     *zerolog.Logger
	serverLogOnce sync.Once
)

func getLog() *zerolog.Logger {
	serverLogOnce.Do(func() {
		l := logger.GetServerLogger().With().Str("component", "http").Logger()
		serverLog = &l
	})
	return serverLog
}
