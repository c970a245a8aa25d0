// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/flowgate/flowgate/internal/fault"
	"github.com/flowgate/flowgate/internal/lifecycle"
	"github.com/flowgate/flowgate/internal/orchestrator"
	"github.com/flowgate/flowgate/internal/paginate"
	"github.com/flowgate/flowgate/internal/safeop"
)

// api implements every exposed operation once; the resource and tool
// bindings only translate between wire forms and these methods.
type api struct {
	client     orchestrator.Client
	controller *lifecycle.Controller
	pageSize   int
}

func newAPI(client orchestrator.Client, controller *lifecycle.Controller, pageSize int) *api {
	return &api{
		client:     client,
		controller: controller,
		pageSize:   pageSize,
	}
}

// ListFlowsInput filters the flow listing. Query is a substring match,
// Name an exact match, Tags all-of.
type ListFlowsInput struct {
	Query  string   `json:"query,omitempty"`
	Name   string   `json:"name,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Cursor string   `json:"cursor,omitempty"`
}

func (a *api) listFlows(ctx context.Context, in ListFlowsInput) (map[string]any, error) {
	params := orchestrator.FlowListParams{Query: in.Query, Name: in.Name, Tags: in.Tags}
	filter := params.Filter()

	page, err := safeop.Do(ctx, *getLog(), "list_flows", func(ctx context.Context) (paginate.Page[orchestrator.Flow], error) {
		return paginate.Fetch(ctx, in.Cursor, a.pageSize, func(ctx context.Context, limit, offset int) ([]orchestrator.Flow, error) {
			return a.client.ReadFlows(ctx, filter, limit, offset)
		})
	})
	if err != nil {
		return nil, err
	}

	filters := map[string]any{}
	setIfNotEmpty(filters, "query", in.Query)
	setIfNotEmpty(filters, "name", in.Name)
	if len(in.Tags) > 0 {
		filters["tags"] = in.Tags
	}
	return listEnvelope("flows", page, filters), nil
}

func (a *api) getFlow(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, fault.Validationf("Missing required parameter: id")
	}
	flowID, err := uuid.Parse(id)
	if err != nil {
		return nil, fault.Validationf("invalid flow id: %q", id)
	}

	flow, err := safeop.Do(ctx, *getLog(), "get_flow_by_id", func(ctx context.Context) (*orchestrator.Flow, error) {
		return a.client.ReadFlow(ctx, flowID)
	})
	if err != nil {
		return nil, err
	}
	return renderFlow(flow), nil
}

// ListDeploymentsInput filters the deployment listing. Tags are any-of.
type ListDeploymentsInput struct {
	Query  string   `json:"query,omitempty"`
	FlowID string   `json:"flow_id,omitempty"`
	Status string   `json:"status,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Cursor string   `json:"cursor,omitempty"`
}

func (a *api) listDeployments(ctx context.Context, in ListDeploymentsInput) (map[string]any, error) {
	params := orchestrator.DeploymentListParams{Query: in.Query, Tags: in.Tags, Status: in.Status}
	if in.FlowID != "" {
		id, err := uuid.Parse(in.FlowID)
		if err != nil {
			return nil, fault.Validationf("invalid flow id: %q", in.FlowID)
		}
		params.FlowID = &id
	}
	filter := params.Filter()

	page, err := safeop.Do(ctx, *getLog(), "list_deployments", func(ctx context.Context) (paginate.Page[orchestrator.Deployment], error) {
		return paginate.Fetch(ctx, in.Cursor, a.pageSize, func(ctx context.Context, limit, offset int) ([]orchestrator.Deployment, error) {
			return a.client.ReadDeployments(ctx, filter, limit, offset)
		})
	})
	if err != nil {
		return nil, err
	}

	filters := map[string]any{}
	setIfNotEmpty(filters, "query", in.Query)
	setIfNotEmpty(filters, "flow_id", in.FlowID)
	setIfNotEmpty(filters, "status", in.Status)
	if len(in.Tags) > 0 {
		filters["tags"] = in.Tags
	}
	return listEnvelope("deployments", page, filters), nil
}

func (a *api) getDeployment(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, fault.Validationf("Missing required parameter: id")
	}
	deploymentID, err := uuid.Parse(id)
	if err != nil {
		return nil, fault.Validationf("invalid deployment id: %q", id)
	}

	deployment, err := safeop.Do(ctx, *getLog(), "get_deployment_by_id", func(ctx context.Context) (*orchestrator.Deployment, error) {
		return a.client.ReadDeployment(ctx, deploymentID)
	})
	if err != nil {
		return nil, err
	}
	return renderDeployment(deployment, a.flowName(ctx, deployment.FlowID)), nil
}

// ListFlowRunsInput filters the flow run listing.
type ListFlowRunsInput struct {
	Name         string `json:"name,omitempty"`
	FlowID       string `json:"flow_id,omitempty"`
	DeploymentID string `json:"deployment_id,omitempty"`
	StateType    string `json:"state_type,omitempty"`
	StateName    string `json:"state_name,omitempty"`
	Cursor       string `json:"cursor,omitempty"`
}

func (a *api) listFlowRuns(ctx context.Context, in ListFlowRunsInput) (map[string]any, error) {
	params := orchestrator.FlowRunListParams{Name: in.Name, StateName: in.StateName}
	if in.FlowID != "" {
		id, err := uuid.Parse(in.FlowID)
		if err != nil {
			return nil, fault.Validationf("invalid flow id: %q", in.FlowID)
		}
		params.FlowID = &id
	}
	if in.DeploymentID != "" {
		id, err := uuid.Parse(in.DeploymentID)
		if err != nil {
			return nil, fault.Validationf("invalid deployment id: %q", in.DeploymentID)
		}
		params.DeploymentID = &id
	}
	if in.StateType != "" {
		st, err := orchestrator.ParseStateType(in.StateType)
		if err != nil {
			return nil, err
		}
		params.StateType = st
	}
	filter := params.Filter()

	page, err := safeop.Do(ctx, *getLog(), "list_flow_runs", func(ctx context.Context) (paginate.Page[orchestrator.FlowRun], error) {
		return paginate.Fetch(ctx, in.Cursor, a.pageSize, func(ctx context.Context, limit, offset int) ([]orchestrator.FlowRun, error) {
			return a.client.ReadFlowRuns(ctx, filter, limit, offset)
		})
	})
	if err != nil {
		return nil, err
	}

	filters := map[string]any{}
	setIfNotEmpty(filters, "name", in.Name)
	setIfNotEmpty(filters, "flow_id", in.FlowID)
	setIfNotEmpty(filters, "deployment_id", in.DeploymentID)
	if params.StateType != "" {
		filters["state_type"] = string(params.StateType)
	}
	setIfNotEmpty(filters, "state_name", in.StateName)
	return listEnvelope("flow_runs", page, filters), nil
}

func (a *api) getFlowRun(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, fault.Validationf("Missing required parameter: id")
	}
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, fault.Validationf("invalid flow run id: %q", id)
	}

	run, err := safeop.Do(ctx, *getLog(), "get_flow_run_by_id", func(ctx context.Context) (*orchestrator.FlowRun, error) {
		return a.client.ReadFlowRun(ctx, runID)
	})
	if err != nil {
		return nil, err
	}
	return renderFlowRun(run), nil
}

// deploymentParameters resolves a deployment by id or composite name and
// flattens its parameter schema.
func (a *api) deploymentParameters(ctx context.Context, deploymentID, name string) (map[string]any, error) {
	deployment, err := a.resolveDeployment(ctx, deploymentID, name)
	if err != nil {
		return nil, err
	}
	return renderDeploymentParameters(deployment, a.flowName(ctx, deployment.FlowID)), nil
}

func (a *api) resolveDeployment(ctx context.Context, deploymentID, name string) (*orchestrator.Deployment, error) {
	switch {
	case deploymentID != "":
		id, err := uuid.Parse(deploymentID)
		if err != nil {
			return nil, fault.Validationf("invalid deployment id: %q", deploymentID)
		}
		return safeop.Do(ctx, *getLog(), "get_deployment_parameters", func(ctx context.Context) (*orchestrator.Deployment, error) {
			return a.client.ReadDeployment(ctx, id)
		})
	case name != "":
		flowName, deploymentName, ok := strings.Cut(name, "/")
		if !ok || flowName == "" || deploymentName == "" {
			return nil, fault.Validationf("Name must be in format 'flow_name/deployment_name'")
		}
		return safeop.Do(ctx, *getLog(), "get_deployment_parameters", func(ctx context.Context) (*orchestrator.Deployment, error) {
			return a.client.ReadDeploymentByName(ctx, flowName, deploymentName)
		})
	default:
		return nil, fault.Validationf("Must provide either deployment_id or name parameter")
	}
}

// flowName resolves the parent flow's name for display. This is
// decorative enrichment: any failure degrades to the placeholder
// instead of propagating.
func (a *api) flowName(ctx context.Context, flowID uuid.UUID) string {
	flow, err := a.client.ReadFlow(ctx, flowID)
	if err != nil {
		getLog().Debug().Err(err).Str("flow_id", flowID.String()).Msg("Could not resolve flow name")
		return unknownFlowName
	}
	return flow.Name
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
