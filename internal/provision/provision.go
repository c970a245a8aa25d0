// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provision creates the named configuration objects (block
// documents) flowgate's deployments expect upstream. Provisioning is
// idempotent: blocks that already exist are left untouched, never
// overwritten.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/flowgate/flowgate/internal/fault"
	"github.com/flowgate/flowgate/internal/logger"
	"github.com/flowgate/flowgate/internal/orchestrator"
)

var (
	provisionLog     *zerolog.Logger
	provisionLogOnce sync.Once
)

func getProvisionLog() *zerolog.Logger {
	provisionLogOnce.Do(func() {
		l := logger.GetProvisionLogger().With().Str("component", "provisioner").Logger()
		provisionLog = &l
	})
	return provisionLog
}

// Manifest declares the blocks to provision.
type Manifest struct {
	Blocks []BlockSpec `yaml:"blocks"`
}

// BlockSpec is one declared block: a type slug, a name unique within
// that type, and an opaque data payload.
type BlockSpec struct {
	Name string         `yaml:"name" validate:"required"`
	Type string         `yaml:"type" validate:"required"`
	Data map[string]any `yaml:"data"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	v := validator.New()
	for i, b := range m.Blocks {
		if err := v.Struct(b); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return nil, fault.Validationf("block %d: missing %s", i, strings.ToLower(verrs[0].Field()))
			}
			return nil, fault.Validationf("block %d: %v", i, err)
		}
	}
	return &m, nil
}

// Report summarizes one provisioning pass.
type Report struct {
	Created  int
	Existing int
}

// Provisioner applies manifests against the orchestrator.
type Provisioner struct {
	client orchestrator.Client
}

// NewProvisioner creates a provisioner over the given client.
func NewProvisioner(client orchestrator.Client) *Provisioner {
	return &Provisioner{client: client}
}

// Apply provisions every block in the manifest. A block that already
// exists counts as Existing and is not modified; any failure other than
// "does not exist yet" aborts the pass.
func (p *Provisioner) Apply(ctx context.Context, m *Manifest) (Report, error) {
	log := getProvisionLog()

	var report Report
	for _, spec := range m.Blocks {
		existing, err := p.client.ReadBlockDocumentByName(ctx, spec.Type, spec.Name)
		switch {
		case err == nil:
			log.Debug().Str("name", spec.Name).Str("type", spec.Type).Str("id", existing.ID.String()).Msg("Block already exists")
			report.Existing++
			continue
		case !fault.IsNotFound(err):
			return report, fmt.Errorf("failed to look up block %q: %w", spec.Name, err)
		}

		saved, err := p.client.SaveBlockDocument(ctx, orchestrator.BlockDocument{
			Name:      spec.Name,
			BlockType: spec.Type,
			Data:      spec.Data,
		})
		if err != nil {
			return report, fmt.Errorf("failed to create block %q: %w", spec.Name, err)
		}
		log.Info().Str("name", saved.Name).Str("type", saved.BlockType).Msg("Block created")
		report.Created++
	}
	return report, nil
}
