// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator defines the domain model of the remote
// workflow-orchestration service and the client used to drive it.
// Flowgate holds no persistent state of its own; every entity here is
// owned upstream and read or mutated through the Client interface.
package orchestrator

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowgate/flowgate/internal/fault"
)

// StateType is the closed enumeration of flow run lifecycle types.
// The state name is a free-text label on top of this; "Late" is a
// name-level variant of SCHEDULED/PENDING, not a type of its own.
type StateType string

const (
	StateTypeScheduled StateType = "SCHEDULED"
	StateTypePending   StateType = "PENDING"
	StateTypeRunning   StateType = "RUNNING"
	StateTypeCompleted StateType = "COMPLETED"
	StateTypeFailed    StateType = "FAILED"
	StateTypeCancelled StateType = "CANCELLED"
	StateTypeCrashed   StateType = "CRASHED"
	StateTypePaused    StateType = "PAUSED"
)

var stateTypes = map[string]StateType{
	"SCHEDULED": StateTypeScheduled,
	"PENDING":   StateTypePending,
	"RUNNING":   StateTypeRunning,
	"COMPLETED": StateTypeCompleted,
	"FAILED":    StateTypeFailed,
	"CANCELLED": StateTypeCancelled,
	"CRASHED":   StateTypeCrashed,
	"PAUSED":    StateTypePaused,
}

// ParseStateType maps a caller-supplied string onto the closed
// enumeration, case-insensitively. Unknown values are a validation
// error, not a silent pass-through.
func ParseStateType(s string) (StateType, error) {
	t, ok := stateTypes[strings.ToUpper(s)]
	if !ok {
		return "", fault.Validationf("unknown state type: %q", s)
	}
	return t, nil
}

// IsTerminal reports whether a flow run in this state type can still
// change state upstream.
func (t StateType) IsTerminal() bool {
	switch t {
	case StateTypeCompleted, StateTypeFailed, StateTypeCrashed, StateTypeCancelled:
		return true
	default:
		return false
	}
}

// State is a flow run's lifecycle label: a closed-enumeration type plus
// a free-text name (e.g. "Late" for a SCHEDULED run past its start time).
type State struct {
	Type StateType `json:"type"`
	Name string    `json:"name"`
}

// Cancelled returns the state used to cancel a flow run.
func Cancelled() State {
	return State{Type: StateTypeCancelled, Name: "Cancelled"}
}

// Flow is the registered identity of a unit of work (a job definition).
type Flow struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Tags    []string  `json:"tags"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Deployment is a named, parameterized way of invoking a Flow. Its name
// is unique only together with its parent flow's name, conventionally
// written "<flow-name>/<deployment-name>".
type Deployment struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	FlowID          uuid.UUID      `json:"flow_id"`
	Description     string         `json:"description"`
	Status          string         `json:"status"`
	Tags            []string       `json:"tags"`
	Parameters      map[string]any `json:"parameters"`
	ParameterSchema map[string]any `json:"parameter_openapi_schema"`
	Created         time.Time      `json:"created"`
	Updated         time.Time      `json:"updated"`
}

// FlowRun is one concrete execution of a Flow, optionally via a
// Deployment. State is never nil for a submitted run.
type FlowRun struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	FlowID       uuid.UUID      `json:"flow_id"`
	DeploymentID *uuid.UUID     `json:"deployment_id"`
	State        *State         `json:"state"`
	Parameters   map[string]any `json:"parameters"`
	Created      time.Time      `json:"created"`
	Updated      time.Time      `json:"updated"`
}
