// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flowgate/flowgate/internal/fault"
	"github.com/flowgate/flowgate/internal/lifecycle"
)

// Tool error presentation is split by operation class: the list/get
// query tools raise, so the host surfaces them as tool failures;
// get_deployment_parameters and the lifecycle tools answer with an
// {"error": ...} envelope so a partial outcome is still a readable
// result.

// GetByIDInput identifies one entity.
type GetByIDInput struct {
	ID string `json:"id,omitempty"`
}

// DeploymentParametersInput identifies a deployment by id or composite
// "flow_name/deployment_name".
type DeploymentParametersInput struct {
	DeploymentID string `json:"deployment_id,omitempty"`
	Name         string `json:"name,omitempty"`
}

// CancelFlowRunInput identifies the run to cancel.
type CancelFlowRunInput struct {
	FlowRunID string `json:"flow_run_id,omitempty"`
}

// BulkCancelInput takes no arguments.
type BulkCancelInput struct{}

// CreateFlowRunInput submits a run for a deployment.
type CreateFlowRunInput struct {
	DeploymentID string         `json:"deployment_id,omitempty"`
	Name         string         `json:"name,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	FlowRunName  string         `json:"flow_run_name,omitempty"`
	ScheduledFor string         `json:"scheduled_for,omitempty"`
	Timeout      float64        `json:"timeout,omitempty"` // seconds; 0 = do not wait
}

func (a *api) registerTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_flows",
		Description: "List flows with optional name substring, exact name, or tag filters. Paginated via cursor.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in ListFlowsInput) (*mcp.CallToolResult, map[string]any, error) {
		out, err := a.listFlows(ctx, in)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_flow_by_id",
		Description: "Get a single flow by id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in GetByIDInput) (*mcp.CallToolResult, map[string]any, error) {
		out, err := a.getFlow(ctx, in.ID)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_deployments",
		Description: "List deployments with optional name substring, parent flow, status, or tag filters. Paginated via cursor.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in ListDeploymentsInput) (*mcp.CallToolResult, map[string]any, error) {
		out, err := a.listDeployments(ctx, in)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_deployment_by_id",
		Description: "Get a single deployment by id, including its parent flow name.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in GetByIDInput) (*mcp.CallToolResult, map[string]any, error) {
		out, err := a.getDeployment(ctx, in.ID)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_flow_runs",
		Description: "List flow runs with optional name, flow, deployment, state type, or state name filters. Paginated via cursor.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in ListFlowRunsInput) (*mcp.CallToolResult, map[string]any, error) {
		out, err := a.listFlowRuns(ctx, in)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_flow_run_by_id",
		Description: "Get a single flow run by id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in GetByIDInput) (*mcp.CallToolResult, map[string]any, error) {
		out, err := a.getFlowRun(ctx, in.ID)
		return nil, out, err
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_deployment_parameters",
		Description: "Flatten a deployment's parameter schema and defaults into per-parameter descriptors. Accepts deployment_id or name as 'flow_name/deployment_name'.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in DeploymentParametersInput) (*mcp.CallToolResult, map[string]any, error) {
		out, err := a.deploymentParameters(ctx, in.DeploymentID, in.Name)
		if err != nil {
			return nil, errEnvelope("Failed to get deployment parameters", err), nil
		}
		return nil, out, nil
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "cancel_flow_run",
		Description: "Request a CANCELLED state transition for one flow run.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in CancelFlowRunInput) (*mcp.CallToolResult, map[string]any, error) {
		status, err := a.controller.CancelFlowRun(ctx, in.FlowRunID)
		if err != nil {
			return nil, errEnvelope("Failed to cancel flow run", err), nil
		}
		return nil, map[string]any{"success": true, "result": status}, nil
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "bulk_cancel_flow_runs",
		Description: "Repeatedly cancel every flow run in a cancellable state until none remain or the sweep budget runs out.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in BulkCancelInput) (*mcp.CallToolResult, map[string]any, error) {
		report, err := a.controller.BulkCancel(ctx)
		if err != nil {
			return nil, errEnvelope("Failed to bulk cancel flow runs", err), nil
		}
		return nil, map[string]any{
			"success":   report.Drained,
			"sweeps":    report.Sweeps,
			"cancelled": report.Cancelled,
			"failed":    report.Failed,
			"remaining": report.Remaining,
		}, nil
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "create_flow_run_from_deployment",
		Description: "Submit a flow run for a deployment (by deployment_id or name as 'flow_name/deployment_name'), with optional parameters, run name, natural-language scheduled time, and wait timeout in seconds.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in CreateFlowRunInput) (*mcp.CallToolResult, map[string]any, error) {
		result, err := a.controller.CreateFlowRun(ctx, lifecycle.CreateParams{
			DeploymentID: in.DeploymentID,
			Name:         in.Name,
			Parameters:   in.Parameters,
			RunName:      in.FlowRunName,
			ScheduledFor: in.ScheduledFor,
			Timeout:      time.Duration(in.Timeout * float64(time.Second)),
		})
		if err != nil {
			return nil, errEnvelope("Failed to create flow run", err), nil
		}

		out := map[string]any{
			"flow_run_id": result.FlowRunID.String(),
			"name":        result.Name,
		}
		if result.State != nil {
			out["state"] = map[string]any{
				"type": string(result.State.Type),
				"name": result.State.Name,
			}
		}
		if result.TimedOut {
			out["timed_out"] = true
		}
		return nil, out, nil
	})
}

// errEnvelope renders a lifecycle failure as data. Caller mistakes keep
// their own message; remote failures get the operation prefix with the
// underlying cause, not the internal wrapping.
func errEnvelope(prefix string, err error) map[string]any {
	if fault.IsValidation(err) || fault.IsNotFound(err) {
		return map[string]any{"error": err.Error()}
	}
	var fe *fault.Error
	if errors.As(err, &fe) && fe.Err != nil {
		return map[string]any{"error": fmt.Sprintf("%s: %v", prefix, fe.Err)}
	}
	return map[string]any{"error": fmt.Sprintf("%s: %v", prefix, err)}
}
