// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/flowgate/flowgate/internal/orchestrator"
)

// MockClient is a shared mock implementation of orchestrator.Client.
// Use this in all lifecycle tests that need to mock the orchestrator.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) ReadFlows(ctx context.Context, filter *orchestrator.FlowFilter, limit, offset int) ([]orchestrator.Flow, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]orchestrator.Flow), args.Error(1)
}

func (m *MockClient) ReadFlow(ctx context.Context, id uuid.UUID) (*orchestrator.Flow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orchestrator.Flow), args.Error(1)
}

func (m *MockClient) ReadDeployments(ctx context.Context, filter *orchestrator.DeploymentFilter, limit, offset int) ([]orchestrator.Deployment, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]orchestrator.Deployment), args.Error(1)
}

func (m *MockClient) ReadDeployment(ctx context.Context, id uuid.UUID) (*orchestrator.Deployment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orchestrator.Deployment), args.Error(1)
}

func (m *MockClient) ReadDeploymentByName(ctx context.Context, flowName, deploymentName string) (*orchestrator.Deployment, error) {
	args := m.Called(ctx, flowName, deploymentName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orchestrator.Deployment), args.Error(1)
}

func (m *MockClient) ReadFlowRuns(ctx context.Context, filter *orchestrator.FlowRunFilter, limit, offset int) ([]orchestrator.FlowRun, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]orchestrator.FlowRun), args.Error(1)
}

func (m *MockClient) ReadFlowRun(ctx context.Context, id uuid.UUID) (*orchestrator.FlowRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orchestrator.FlowRun), args.Error(1)
}

func (m *MockClient) SetFlowRunState(ctx context.Context, id uuid.UUID, state orchestrator.State, force bool) (string, error) {
	args := m.Called(ctx, id, state, force)
	return args.String(0), args.Error(1)
}

func (m *MockClient) CreateFlowRun(ctx context.Context, deploymentID uuid.UUID, opts orchestrator.CreateFlowRunOptions) (*orchestrator.FlowRun, error) {
	args := m.Called(ctx, deploymentID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orchestrator.FlowRun), args.Error(1)
}

func (m *MockClient) ReadBlockDocumentByName(ctx context.Context, blockType, name string) (*orchestrator.BlockDocument, error) {
	args := m.Called(ctx, blockType, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orchestrator.BlockDocument), args.Error(1)
}

func (m *MockClient) SaveBlockDocument(ctx context.Context, doc orchestrator.BlockDocument) (*orchestrator.BlockDocument, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orchestrator.BlockDocument), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, subject, body string) error {
	args := m.Called(ctx, subject, body)
	return args.Error(0)
}
