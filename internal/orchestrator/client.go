// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Client is the remote orchestration service as seen by flowgate.
// Implementations must translate upstream "does not exist" responses into
// fault.NotFound errors so callers can distinguish them from transport
// failures. The interface exists so the core stays testable with a
// substitutable client instead of a process-wide session.
type Client interface {
	ReadFlows(ctx context.Context, filter *FlowFilter, limit, offset int) ([]Flow, error)
	ReadFlow(ctx context.Context, id uuid.UUID) (*Flow, error)

	ReadDeployments(ctx context.Context, filter *DeploymentFilter, limit, offset int) ([]Deployment, error)
	ReadDeployment(ctx context.Context, id uuid.UUID) (*Deployment, error)
	ReadDeploymentByName(ctx context.Context, flowName, deploymentName string) (*Deployment, error)

	ReadFlowRuns(ctx context.Context, filter *FlowRunFilter, limit, offset int) ([]FlowRun, error)
	ReadFlowRun(ctx context.Context, id uuid.UUID) (*FlowRun, error)

	// SetFlowRunState requests a state transition. Whether the transition is
	// legal for the run's current state is decided upstream; force bypasses
	// the upstream orchestration rules. The returned string is the upstream
	// transition outcome (e.g. "ACCEPT", "ABORT").
	SetFlowRunState(ctx context.Context, id uuid.UUID, state State, force bool) (string, error)

	// CreateFlowRun submits a new run for the deployment. A non-nil
	// ScheduledTime defers the run; nil means run as soon as possible.
	CreateFlowRun(ctx context.Context, deploymentID uuid.UUID, opts CreateFlowRunOptions) (*FlowRun, error)

	// Block documents are named configuration objects owned upstream.
	// Flowgate only saves and loads them; their schema is opaque here.
	ReadBlockDocumentByName(ctx context.Context, blockType, name string) (*BlockDocument, error)
	SaveBlockDocument(ctx context.Context, doc BlockDocument) (*BlockDocument, error)
}

// CreateFlowRunOptions carries the optional inputs of a run submission.
type CreateFlowRunOptions struct {
	Parameters    map[string]any
	Name          string
	ScheduledTime *time.Time
}

// BlockDocument is a named configuration object stored by the orchestrator.
type BlockDocument struct {
	ID        uuid.UUID      `json:"id,omitempty"`
	Name      string         `json:"name"`
	BlockType string         `json:"block_type_slug"`
	Data      map[string]any `json:"data"`
}
