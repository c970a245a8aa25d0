// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command provision applies a block manifest against the orchestrator:
// blocks that do not exist yet are created, existing ones are left as
// they are. Safe to run on every deploy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/logger"
	"github.com/flowgate/flowgate/internal/orchestrator"
	"github.com/flowgate/flowgate/internal/provision"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	manifestPath := flag.String("manifest", "", "path to the block manifest (defaults to provision.manifest_path)")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
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

	path := *manifestPath
	if path == "" {
		path = cfg.Provision.ManifestPath
	}

	manifest, err := provision.LoadManifest(path)
	if err != nil {
		mainLog.Error().Err(err).Str("path", path).Msg("Error loading manifest")
		os.Exit(1)
	}

	client := orchestrator.NewAPIClient(cfg.Orchestrator.APIURL, cfg.Orchestrator.APIKey, cfg.Orchestrator.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := provision.NewProvisioner(client).Apply(ctx, manifest)
	if err != nil {
		mainLog.Error().Err(err).Msg("Provisioning failed")
		os.Exit(1)
	}

	mainLog.Info().Int("created", report.Created).Int("existing", report.Existing).Msg("Provisioning complete")
}
