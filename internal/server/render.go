// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/samber/lo"

	"github.com/flowgate/flowgate/internal/orchestrator"
	"github.com/flowgate/flowgate/internal/paginate"
)

// unknownFlowName is the placeholder when best-effort flow name
// resolution fails.
const unknownFlowName = "unknown"

// listEnvelope builds the shared list response shape. The continuation
// token key exists only when more pages exist; its absence is the
// exhaustion signal.
func listEnvelope[T any](itemsKey string, page paginate.Page[T], filters map[string]any) map[string]any {
	env := map[string]any{
		itemsKey:  page.Items,
		"count":   len(page.Items),
		"filters": filters,
		"pagination": map[string]any{
			"offset":    page.Offset,
			"page_size": page.PageSize,
			"has_more":  page.HasMore,
		},
	}
	if page.HasMore {
		env["nextCursor"] = page.NextCursor
	}
	return env
}

func renderFlow(f *orchestrator.Flow) map[string]any {
	return map[string]any{
		"id":      f.ID.String(),
		"name":    f.Name,
		"tags":    f.Tags,
		"created": f.Created,
		"updated": f.Updated,
	}
}

func renderDeployment(d *orchestrator.Deployment, flowName string) map[string]any {
	return map[string]any{
		"id":          d.ID.String(),
		"name":        d.Name,
		"flow_id":     d.FlowID.String(),
		"flow_name":   flowName,
		"description": d.Description,
		"status":      d.Status,
		"tags":        d.Tags,
		"parameters":  d.Parameters,
		"created":     d.Created,
		"updated":     d.Updated,
	}
}

func renderFlowRun(r *orchestrator.FlowRun) map[string]any {
	out := map[string]any{
		"id":         r.ID.String(),
		"name":       r.Name,
		"flow_id":    r.FlowID.String(),
		"parameters": r.Parameters,
		"created":    r.Created,
		"updated":    r.Updated,
	}
	if r.DeploymentID != nil {
		out["deployment_id"] = r.DeploymentID.String()
	}
	if r.State != nil {
		out["state"] = map[string]any{
			"type": string(r.State.Type),
			"name": r.State.Name,
		}
	}
	return out
}

// renderDeploymentParameters flattens a deployment's parameter schema
// plus its default values into per-parameter descriptors.
func renderDeploymentParameters(d *orchestrator.Deployment, flowName string) map[string]any {
	properties, _ := d.ParameterSchema["properties"].(map[string]any)
	requiredRaw, _ := d.ParameterSchema["required"].([]any)
	required := lo.FilterMap(requiredRaw, func(v any, _ int) (string, bool) {
		s, ok := v.(string)
		return s, ok
	})

	parameters := make(map[string]any, len(properties))
	for name, raw := range properties {
		prop, _ := raw.(map[string]any)
		parameters[name] = map[string]any{
			"type":        prop["type"],
			"title":       prop["title"],
			"description": prop["description"],
			"default":     prop["default"],
			"required":    lo.Contains(required, name),
			"position":    prop["position"],
			"examples":    prop["examples"],
		}
	}

	return map[string]any{
		"id":                  d.ID.String(),
		"name":                d.Name,
		"flow_id":             d.FlowID.String(),
		"flow_name":           flowName,
		"description":         d.Description,
		"parameters":          parameters,
		"default_parameters":  lo.Ternary(d.Parameters != nil, d.Parameters, map[string]any{}),
		"required_parameters": required,
		"parameter_count":     len(properties),
	}
}
