// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flowgate/flowgate/internal/fault"
)

// Resource URIs use the flowgate scheme: the host selects the entity
// type, an optional path segment selects one entity, and listing
// constraints travel as query parameters. Read failures are raised as
// typed errors, never folded into the payload.

func (a *api) registerResources(s *mcp.Server) {
	templates := []*mcp.ResourceTemplate{
		{
			URITemplate: "flowgate://flows{?query,name,tags,cursor}",
			Name:        "flows",
			Description: "List flows, filterable by name substring, exact name, or tags (all must match).",
			MIMEType:    "application/json",
		},
		{
			URITemplate: "flowgate://flows/{id}",
			Name:        "flow",
			Description: "A single flow by id.",
			MIMEType:    "application/json",
		},
		{
			URITemplate: "flowgate://deployments{?query,flow_id,status,tags,cursor}",
			Name:        "deployments",
			Description: "List deployments, filterable by name substring, parent flow, status, or tags (any may match).",
			MIMEType:    "application/json",
		},
		{
			URITemplate: "flowgate://deployments/{id}",
			Name:        "deployment",
			Description: "A single deployment by id, with its parent flow name.",
			MIMEType:    "application/json",
		},
		{
			URITemplate: "flowgate://flow-runs{?name,flow_id,deployment_id,state_type,state_name,cursor}",
			Name:        "flow-runs",
			Description: "List flow runs, filterable by name, parent flow, deployment, state type, or state name.",
			MIMEType:    "application/json",
		},
		{
			URITemplate: "flowgate://flow-runs/{id}",
			Name:        "flow-run",
			Description: "A single flow run by id.",
			MIMEType:    "application/json",
		},
	}
	for _, t := range templates {
		s.AddResourceTemplate(t, a.handleResource)
	}
}

// handleResource routes every flowgate:// read.
func (a *api) handleResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	u, err := url.Parse(req.Params.URI)
	if err != nil {
		return nil, fault.Validationf("invalid resource uri: %q", req.Params.URI)
	}
	id := strings.TrimPrefix(u.Path, "/")
	q := u.Query()

	var payload map[string]any
	switch u.Host {
	case "flows":
		if id == "" {
			payload, err = a.listFlows(ctx, ListFlowsInput{
				Query:  q.Get("query"),
				Name:   q.Get("name"),
				Tags:   splitTags(q["tags"]),
				Cursor: q.Get("cursor"),
			})
		} else {
			payload, err = a.getFlow(ctx, id)
		}
	case "deployments":
		if id == "" {
			payload, err = a.listDeployments(ctx, ListDeploymentsInput{
				Query:  q.Get("query"),
				FlowID: q.Get("flow_id"),
				Status: q.Get("status"),
				Tags:   splitTags(q["tags"]),
				Cursor: q.Get("cursor"),
			})
		} else {
			payload, err = a.getDeployment(ctx, id)
		}
	case "flow-runs":
		if id == "" {
			payload, err = a.listFlowRuns(ctx, ListFlowRunsInput{
				Name:         q.Get("name"),
				FlowID:       q.Get("flow_id"),
				DeploymentID: q.Get("deployment_id"),
				StateType:    q.Get("state_type"),
				StateName:    q.Get("state_name"),
				Cursor:       q.Get("cursor"),
			})
		} else {
			payload, err = a.getFlowRun(ctx, id)
		}
	default:
		return nil, fault.NotFoundf("unknown resource: %q", req.Params.URI)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource payload: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

// splitTags accepts both repeated tags parameters and comma-separated
// values.
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
