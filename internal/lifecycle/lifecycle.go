// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lifecycle drives flow run state transitions: single
// cancellation, the convergent bulk-cancel sweep, and run creation with
// optional deferred scheduling and completion polling.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/rs/zerolog"

	"github.com/flowgate/flowgate/internal/fault"
	"github.com/flowgate/flowgate/internal/logger"
	"github.com/flowgate/flowgate/internal/orchestrator"
	"github.com/flowgate/flowgate/internal/safeop"
)

var (
	lifecycleLog     *zerolog.Logger
	lifecycleLogOnce sync.Once
)

func getLifecycleLog() *zerolog.Logger {
	lifecycleLogOnce.Do(func() {
		l := logger.GetLifecycleLogger().With().Str("component", "controller").Logger()
		lifecycleLog = &l
	})
	return lifecycleLog
}

// cancellableStateNames are the state names a bulk cancel sweeps. "Late"
// is a name-level variant of SCHEDULED/PENDING, so the match is by name,
// not by type.
var cancellableStateNames = []string{"Pending", "Running", "Scheduled", "Late"}

// Notifier delivers a best-effort completion notification. A nil
// Notifier disables delivery.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Options tunes the controller. Zero values select the defaults.
type Options struct {
	// MaxSweeps bounds the bulk-cancel convergence loop. The loop is
	// correct unbounded, but a remote that admits new runs faster than
	// they are cancelled would never drain; exhausting the budget
	// reports partial completion instead. Default 10.
	MaxSweeps int

	// SweepPageSize is the query size of one bulk-cancel sweep.
	// Default 200.
	SweepPageSize int

	// PollInterval is the re-read cadence while waiting for a created
	// run to reach a terminal state. Default 2s.
	PollInterval time.Duration

	// Notifier receives a summary after every bulk cancel. Optional.
	Notifier Notifier
}

// Controller executes lifecycle operations against the orchestrator.
// It holds no mutable state; every method is safe for concurrent use.
type Controller struct {
	client        orchestrator.Client
	maxSweeps     int
	sweepPageSize int
	pollInterval  time.Duration
	notifier      Notifier
	now           func() time.Time
}

// NewController creates a lifecycle controller over the given client.
func NewController(client orchestrator.Client, opts Options) *Controller {
	if opts.MaxSweeps <= 0 {
		opts.MaxSweeps = 10
	}
	if opts.SweepPageSize <= 0 {
		opts.SweepPageSize = 200
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Controller{
		client:        client,
		maxSweeps:     opts.MaxSweeps,
		sweepPageSize: opts.SweepPageSize,
		pollInterval:  opts.PollInterval,
		notifier:      opts.Notifier,
		now:           time.Now,
	}
}

// CancelFlowRun requests a transition to CANCELLED for one run. Whether
// the transition is legal for the run's current state is decided
// upstream; no state pre-check happens here. The returned string is the
// upstream transition outcome.
func (c *Controller) CancelFlowRun(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fault.Validationf("Missing required argument: flow_run_id")
	}
	runID, err := uuid.Parse(id)
	if err != nil {
		return "", fault.Validationf("invalid flow run id: %q", id)
	}

	return safeop.Do(ctx, *getLifecycleLog(), "cancel_flow_run", func(ctx context.Context) (string, error) {
		return c.client.SetFlowRunState(ctx, runID, orchestrator.Cancelled(), false)
	})
}

// BulkCancelReport summarizes one bulk-cancel invocation.
type BulkCancelReport struct {
	Sweeps    int  // sweeps executed
	Cancelled int  // transitions requested
	Failed    int  // transitions the upstream rejected
	Drained   bool // a sweep observed zero cancellable runs
	Remaining int  // runs the final sweep saw but did not cancel; zero once drained
}

// BulkCancel drains every flow run whose state name is cancellable:
// query, force-cancel each match, re-query, until a query comes back
// empty. Re-querying after every batch is what makes this converge when
// cancelling one run pushes downstream runs into a cancellable state.
// The sweep budget bounds the loop; on exhaustion the report carries the
// remaining count instead of an error.
func (c *Controller) BulkCancel(ctx context.Context) (BulkCancelReport, error) {
	log := getLifecycleLog()
	filter := &orchestrator.FlowRunFilter{
		State: &orchestrator.StateFilter{
			Name: &orchestrator.StateNameFilter{Any: cancellableStateNames},
		},
	}

	var report BulkCancelReport
	for report.Sweeps < c.maxSweeps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		runs, err := safeop.Do(ctx, *log, "bulk_cancel_query", func(ctx context.Context) ([]orchestrator.FlowRun, error) {
			return c.client.ReadFlowRuns(ctx, filter, c.sweepPageSize, 0)
		})
		if err != nil {
			return report, err
		}
		report.Sweeps++

		if len(runs) == 0 {
			report.Drained = true
			report.Remaining = 0
			break
		}
		report.Remaining = len(runs)

		log.Info().Int("sweep", report.Sweeps).Int("matched", len(runs)).Msg("Cancelling flow runs")
		for _, run := range runs {
			if run.State == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if _, err := c.client.SetFlowRunState(ctx, run.ID, orchestrator.Cancelled(), true); err != nil {
				report.Failed++
				log.Warn().Err(err).Str("flow_run_id", run.ID.String()).Msg("Failed to cancel flow run")
				continue
			}
			report.Cancelled++
			report.Remaining--
		}
	}

	if !report.Drained {
		log.Warn().Int("sweeps", report.Sweeps).Int("remaining", report.Remaining).Msg("Bulk cancel sweep budget exhausted before draining")
	}
	c.notifyBulkCancel(ctx, report)
	return report, nil
}

// notifyBulkCancel delivers the completion summary. Delivery failure is
// logged, never propagated: the cancellations already happened.
func (c *Controller) notifyBulkCancel(ctx context.Context, report BulkCancelReport) {
	if c.notifier == nil {
		return
	}
	subject := "Bulk cancel complete"
	body := fmt.Sprintf("Cancelled %d flow runs in %d sweeps", report.Cancelled, report.Sweeps)
	if !report.Drained {
		subject = "Bulk cancel incomplete"
		body = fmt.Sprintf("%s, %d still cancellable", body, report.Remaining)
	}
	if err := c.notifier.Send(ctx, subject, body); err != nil {
		getLifecycleLog().Warn().Err(err).Msg("Failed to send bulk cancel notification")
	}
}

// CreateParams carries the inputs of a run submission. Exactly one of
// DeploymentID and Name identifies the deployment; Name uses the
// composite "flow_name/deployment_name" form.
type CreateParams struct {
	DeploymentID string
	Name         string
	Parameters   map[string]any
	RunName      string

	// ScheduledFor is an absolute RFC 3339 timestamp or a natural
	// language expression like "in 5 minutes", resolved against local
	// time. An expression the parser explicitly rejects submits the
	// run unscheduled.
	ScheduledFor string

	// Timeout zero submits and returns immediately; positive blocks
	// until the run reaches a terminal state or the timeout elapses.
	Timeout time.Duration
}

// CreateResult reports a submitted run. TimedOut means the wait
// deadline passed first; State then holds the last observed state, not
// the final one.
type CreateResult struct {
	FlowRunID uuid.UUID
	Name      string
	State     *orchestrator.State
	TimedOut  bool
}

// CreateFlowRun submits a run for a deployment and optionally waits for
// it to finish.
func (c *Controller) CreateFlowRun(ctx context.Context, params CreateParams) (*CreateResult, error) {
	log := getLifecycleLog()

	deploymentID, err := c.resolveDeploymentID(ctx, params)
	if err != nil {
		return nil, err
	}

	opts := orchestrator.CreateFlowRunOptions{
		Parameters:    params.Parameters,
		Name:          params.RunName,
		ScheduledTime: c.resolveScheduledTime(params.ScheduledFor),
	}

	run, err := safeop.Do(ctx, *log, "create_flow_run", func(ctx context.Context) (*orchestrator.FlowRun, error) {
		return c.client.CreateFlowRun(ctx, deploymentID, opts)
	})
	if err != nil {
		return nil, err
	}

	result := &CreateResult{FlowRunID: run.ID, Name: run.Name, State: run.State}
	if params.Timeout <= 0 {
		return result, nil
	}
	return c.waitForTerminal(ctx, result, params.Timeout)
}

// resolveDeploymentID turns either identifier form into a deployment id.
func (c *Controller) resolveDeploymentID(ctx context.Context, params CreateParams) (uuid.UUID, error) {
	if params.DeploymentID != "" {
		id, err := uuid.Parse(params.DeploymentID)
		if err != nil {
			return uuid.Nil, fault.Validationf("invalid deployment id: %q", params.DeploymentID)
		}
		return id, nil
	}

	if params.Name == "" {
		return uuid.Nil, fault.Validationf("Neither deployment_id nor name were provided.")
	}

	flowName, deploymentName, ok := strings.Cut(params.Name, "/")
	if !ok || flowName == "" || deploymentName == "" {
		return uuid.Nil, fault.Validationf("Name must be in format 'flow_name/deployment_name'")
	}

	deployment, err := safeop.Do(ctx, *getLifecycleLog(), "resolve_deployment", func(ctx context.Context) (*orchestrator.Deployment, error) {
		return c.client.ReadDeploymentByName(ctx, flowName, deploymentName)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return deployment.ID, nil
}

// resolveScheduledTime resolves the scheduling expression against local
// time. nil means "run as soon as possible": either no expression was
// given or the parser explicitly reported it could not read one.
func (c *Controller) resolveScheduledTime(expr string) *time.Time {
	if expr == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, expr); err == nil {
		return &t
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(expr, c.now())
	if err != nil || r == nil {
		getLifecycleLog().Warn().Str("expression", expr).Msg("Could not parse scheduled time, submitting unscheduled")
		return nil
	}
	return &r.Time
}

// waitForTerminal polls the run until it reaches a terminal state or
// the timeout elapses. On timeout the last observed state is returned
// rather than an error: the run's outcome is unknown, not failed.
func (c *Controller) waitForTerminal(ctx context.Context, result *CreateResult, timeout time.Duration) (*CreateResult, error) {
	log := getLifecycleLog()
	deadline := c.now().Add(timeout)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		run, err := safeop.Do(ctx, *log, "poll_flow_run", func(ctx context.Context) (*orchestrator.FlowRun, error) {
			return c.client.ReadFlowRun(ctx, result.FlowRunID)
		})
		if err != nil {
			return nil, err
		}
		result.State = run.State

		if run.State != nil && run.State.Type.IsTerminal() {
			return result, nil
		}
		if !c.now().Before(deadline) {
			result.TimedOut = true
			log.Warn().Str("flow_run_id", result.FlowRunID.String()).Msg("Timed out waiting for flow run to finish")
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
