// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flowgate/flowgate/internal/fault"
	"github.com/flowgate/flowgate/internal/logger"
)

var (
	clientLog     *zerolog.Logger
	clientLogOnce sync.Once
)

func getClientLog() *zerolog.Logger {
	clientLogOnce.Do(func() {
		l := logger.GetOrchestratorLogger().With().Str("component", "client").Logger()
		clientLog = &l
	})
	return clientLog
}

// APIClient implements Client against the orchestrator's REST API.
// Listing endpoints are filter POSTs; a nil filter is omitted from the
// request body entirely.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIClient creates a client for the orchestrator API at baseURL.
// apiKey may be empty for unauthenticated local servers.
func NewAPIClient(baseURL, apiKey string, timeout time.Duration) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	getClientLog().Info().Str("base_url", c.baseURL).Msg("Orchestrator API client created")
	return c
}

// do executes one API request. Request and response bodies are JSON; out
// may be nil when the response body is irrelevant.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fault.NotFoundf("%s %s: not found", method, path)
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// filterBody builds the shared body shape of the listing endpoints. The
// entity filter key varies per endpoint, so it is injected via a map.
func filterBody(key string, filter any, limit, offset int) map[string]any {
	body := map[string]any{
		"limit":  limit,
		"offset": offset,
		"sort":   "CREATED_DESC",
	}
	// A nil filter must not appear in the body at all.
	if filter != nil {
		body[key] = filter
	}
	return body
}

func (c *APIClient) ReadFlows(ctx context.Context, filter *FlowFilter, limit, offset int) ([]Flow, error) {
	var flows []Flow
	var f any
	if filter != nil {
		f = filter
	}
	if err := c.do(ctx, http.MethodPost, "/flows/filter", filterBody("flows", f, limit, offset), &flows); err != nil {
		return nil, fmt.Errorf("failed to read flows: %w", err)
	}
	return flows, nil
}

func (c *APIClient) ReadFlow(ctx context.Context, id uuid.UUID) (*Flow, error) {
	var flow Flow
	if err := c.do(ctx, http.MethodGet, "/flows/"+id.String(), nil, &flow); err != nil {
		if fault.IsNotFound(err) {
			return nil, fault.NotFoundf("flow %s not found", id)
		}
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}
	return &flow, nil
}

func (c *APIClient) ReadDeployments(ctx context.Context, filter *DeploymentFilter, limit, offset int) ([]Deployment, error) {
	var deployments []Deployment
	var f any
	if filter != nil {
		f = filter
	}
	if err := c.do(ctx, http.MethodPost, "/deployments/filter", filterBody("deployments", f, limit, offset), &deployments); err != nil {
		return nil, fmt.Errorf("failed to read deployments: %w", err)
	}
	return deployments, nil
}

func (c *APIClient) ReadDeployment(ctx context.Context, id uuid.UUID) (*Deployment, error) {
	var deployment Deployment
	if err := c.do(ctx, http.MethodGet, "/deployments/"+id.String(), nil, &deployment); err != nil {
		if fault.IsNotFound(err) {
			return nil, fault.NotFoundf("deployment %s not found", id)
		}
		return nil, fmt.Errorf("failed to read deployment: %w", err)
	}
	return &deployment, nil
}

func (c *APIClient) ReadDeploymentByName(ctx context.Context, flowName, deploymentName string) (*Deployment, error) {
	path := fmt.Sprintf("/deployments/name/%s/%s", url.PathEscape(flowName), url.PathEscape(deploymentName))
	var deployment Deployment
	if err := c.do(ctx, http.MethodGet, path, nil, &deployment); err != nil {
		if fault.IsNotFound(err) {
			return nil, fault.NotFoundf("deployment %q not found", flowName+"/"+deploymentName)
		}
		return nil, fmt.Errorf("failed to read deployment by name: %w", err)
	}
	return &deployment, nil
}

func (c *APIClient) ReadFlowRuns(ctx context.Context, filter *FlowRunFilter, limit, offset int) ([]FlowRun, error) {
	var runs []FlowRun
	var f any
	if filter != nil {
		f = filter
	}
	if err := c.do(ctx, http.MethodPost, "/flow_runs/filter", filterBody("flow_runs", f, limit, offset), &runs); err != nil {
		return nil, fmt.Errorf("failed to read flow runs: %w", err)
	}
	return runs, nil
}

func (c *APIClient) ReadFlowRun(ctx context.Context, id uuid.UUID) (*FlowRun, error) {
	var run FlowRun
	if err := c.do(ctx, http.MethodGet, "/flow_runs/"+id.String(), nil, &run); err != nil {
		if fault.IsNotFound(err) {
			return nil, fault.NotFoundf("flow run %s not found", id)
		}
		return nil, fmt.Errorf("failed to read flow run: %w", err)
	}
	return &run, nil
}

func (c *APIClient) SetFlowRunState(ctx context.Context, id uuid.UUID, state State, force bool) (string, error) {
	body := map[string]any{
		"state": state,
		"force": force,
	}
	var result struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/flow_runs/"+id.String()+"/set_state", body, &result); err != nil {
		return "", fmt.Errorf("failed to set flow run state: %w", err)
	}
	getClientLog().Debug().Str("flow_run_id", id.String()).Str("state", string(state.Type)).Str("status", result.Status).Msg("Set flow run state")
	return result.Status, nil
}

func (c *APIClient) CreateFlowRun(ctx context.Context, deploymentID uuid.UUID, opts CreateFlowRunOptions) (*FlowRun, error) {
	body := map[string]any{}
	if opts.Parameters != nil {
		body["parameters"] = opts.Parameters
	}
	if opts.Name != "" {
		body["name"] = opts.Name
	}
	if opts.ScheduledTime != nil {
		body["state"] = map[string]any{
			"type": StateTypeScheduled,
			"name": "Scheduled",
			"state_details": map[string]any{
				"scheduled_time": opts.ScheduledTime.Format(time.RFC3339),
			},
		}
	}

	var run FlowRun
	if err := c.do(ctx, http.MethodPost, "/deployments/"+deploymentID.String()+"/create_flow_run", body, &run); err != nil {
		return nil, fmt.Errorf("failed to create flow run: %w", err)
	}
	getClientLog().Info().Str("deployment_id", deploymentID.String()).Str("flow_run_id", run.ID.String()).Msg("Created flow run")
	return &run, nil
}

func (c *APIClient) ReadBlockDocumentByName(ctx context.Context, blockType, name string) (*BlockDocument, error) {
	path := fmt.Sprintf("/block_documents/name/%s/%s", url.PathEscape(blockType), url.PathEscape(name))
	var doc BlockDocument
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		if fault.IsNotFound(err) {
			return nil, fault.NotFoundf("block document %q of type %q not found", name, blockType)
		}
		return nil, fmt.Errorf("failed to read block document: %w", err)
	}
	return &doc, nil
}

func (c *APIClient) SaveBlockDocument(ctx context.Context, doc BlockDocument) (*BlockDocument, error) {
	var saved BlockDocument
	if err := c.do(ctx, http.MethodPost, "/block_documents/", doc, &saved); err != nil {
		return nil, fmt.Errorf("failed to save block document: %w", err)
	}
	getClientLog().Info().Str("name", saved.Name).Str("block_type", saved.BlockType).Msg("Saved block document")
	return &saved, nil
}
