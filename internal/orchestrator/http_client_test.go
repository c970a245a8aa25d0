// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgate/flowgate/internal/fault"
)

func TestAPIClient_ReadFlows_FilterBody(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/flows/filter", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode([]Flow{{ID: uuid.New(), Name: "daily-etl"}})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)
	filter := FlowListParams{Query: "etl"}.Filter()
	flows, err := c.ReadFlows(context.Background(), filter, 21, 0)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "daily-etl", flows[0].Name)

	assert.Equal(t, float64(21), captured["limit"])
	assert.Equal(t, float64(0), captured["offset"])
	assert.Equal(t, "CREATED_DESC", captured["sort"])
	assert.Contains(t, captured, "flows")
}

func TestAPIClient_ReadFlows_NilFilterOmitted(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode([]Flow{})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)
	_, err := c.ReadFlows(context.Background(), nil, 21, 0)
	require.NoError(t, err)

	// A nil filter must not appear as an empty object in the body.
	assert.NotContains(t, captured, "flows")
}

func TestAPIClient_AuthorizationHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Flow{})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "secret-key", 5*time.Second)
	_, err := c.ReadFlows(context.Background(), nil, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-key", auth)

	// No key, no header.
	c = NewAPIClient(srv.URL, "", 5*time.Second)
	_, err = c.ReadFlows(context.Background(), nil, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestAPIClient_ReadFlow_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)
	id := uuid.New()
	_, err := c.ReadFlow(context.Background(), id)
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))
	assert.Contains(t, err.Error(), id.String())
}

func TestAPIClient_ReadDeploymentByName(t *testing.T) {
	depID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/deployments/name/daily-etl/production", r.URL.Path)
		json.NewEncoder(w).Encode(Deployment{ID: depID, Name: "production"})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)
	dep, err := c.ReadDeploymentByName(context.Background(), "daily-etl", "production")
	require.NoError(t, err)
	assert.Equal(t, depID, dep.ID)
}

func TestAPIClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database connection lost", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)
	_, err := c.ReadFlowRuns(context.Background(), nil, 1, 0)
	require.Error(t, err)
	assert.False(t, fault.IsNotFound(err))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "database connection lost")
}

func TestAPIClient_SetFlowRunState(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{"status": "ACCEPT"})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)
	status, err := c.SetFlowRunState(context.Background(), uuid.New(), Cancelled(), true)
	require.NoError(t, err)
	assert.Equal(t, "ACCEPT", status)

	assert.Equal(t, true, captured["force"])
	state := captured["state"].(map[string]any)
	assert.Equal(t, "CANCELLED", state["type"])
	assert.Equal(t, "Cancelled", state["name"])
}

func TestAPIClient_CreateFlowRun(t *testing.T) {
	deploymentID := uuid.New()
	runID := uuid.New()
	scheduled := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/deployments/"+deploymentID.String()+"/create_flow_run", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(FlowRun{ID: runID, Name: "sunny-otter"})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)
	run, err := c.CreateFlowRun(context.Background(), deploymentID, CreateFlowRunOptions{
		Parameters:    map[string]any{"batch": 7},
		Name:          "sunny-otter",
		ScheduledTime: &scheduled,
	})
	require.NoError(t, err)
	assert.Equal(t, runID, run.ID)

	assert.Equal(t, "sunny-otter", captured["name"])
	params := captured["parameters"].(map[string]any)
	assert.Equal(t, float64(7), params["batch"])
	state := captured["state"].(map[string]any)
	assert.Equal(t, "SCHEDULED", state["type"])
	details := state["state_details"].(map[string]any)
	assert.Equal(t, "2026-09-01T12:00:00Z", details["scheduled_time"])
}

func TestAPIClient_CreateFlowRun_ImmediateHasNoState(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(FlowRun{ID: uuid.New()})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)
	_, err := c.CreateFlowRun(context.Background(), uuid.New(), CreateFlowRunOptions{})
	require.NoError(t, err)
	assert.NotContains(t, captured, "state")
	assert.NotContains(t, captured, "parameters")
	assert.NotContains(t, captured, "name")
}

func TestAPIClient_BlockDocuments(t *testing.T) {
	docID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			require.Equal(t, "/block_documents/name/secret/github-token", r.URL.Path)
			http.NotFound(w, r)
		case r.Method == http.MethodPost:
			require.Equal(t, "/block_documents/", r.URL.Path)
			var doc BlockDocument
			require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
			doc.ID = docID
			json.NewEncoder(w).Encode(doc)
		}
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", 5*time.Second)

	_, err := c.ReadBlockDocumentByName(context.Background(), "secret", "github-token")
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))

	saved, err := c.SaveBlockDocument(context.Background(), BlockDocument{
		Name:      "github-token",
		BlockType: "secret",
		Data:      map[string]any{"value": "redacted"},
	})
	require.NoError(t, err)
	assert.Equal(t, docID, saved.ID)
	assert.Equal(t, "github-token", saved.Name)
}
