// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/lifecycle"
	"github.com/flowgate/flowgate/internal/logger"
	"github.com/flowgate/flowgate/internal/notify"
	"github.com/flowgate/flowgate/internal/orchestrator"
	"github.com/flowgate/flowgate/internal/server"
	"github.com/flowgate/flowgate/internal/tracing"
)

func main() {
	cfg, err := config.NewConfig("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseGlobal()

	mainLog := logger.GetLogger("main")
	mainLog.Info().Msg("Starting flowgate MCP server")

	if cfg.Tracing.Enabled {
		shutdownTracer, err := tracing.Init(cfg.Tracing.ServiceName)
		if err != nil {
			mainLog.Error().Err(err).Msg("Error initializing tracer")
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				mainLog.Error().Err(err).Msg("Error shutting down tracer")
			}
		}()
	}

	client := orchestrator.NewAPIClient(cfg.Orchestrator.APIURL, cfg.Orchestrator.APIKey, cfg.Orchestrator.Timeout)

	opts := lifecycle.Options{MaxSweeps: cfg.BulkCancel.MaxSweeps}
	if cfg.BulkCancel.Notify {
		opts.Notifier = notify.NewSender(cfg.Notify)
	}
	controller := lifecycle.NewController(client, opts)

	srv := server.New(cfg, client, controller)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Run(context.Background())
	}()

	// Wait for signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		mainLog.Info().Msgf("Received signal %v, shutting down...", sig)
	case err := <-serverErrChan:
		if err != nil {
			mainLog.Error().Err(err).Msg("Server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error shutting down server")
	}

	mainLog.Info().Msg("MCP server shut down")
}
