// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"github.com/google/uuid"
)

// Filter sub-predicates. A nil pointer imposes no constraint; an entirely
// empty filter must be passed to the client as a nil filter, never as an
// empty-but-present object — the two are observably different on the wire.

// NameFilter matches a name by substring (Like) or exact membership (Any).
type NameFilter struct {
	Like string   `json:"like_,omitempty"`
	Any  []string `json:"any_,omitempty"`
}

// TagsFilter matches a tag set: All requires every listed tag, Any requires
// at least one.
type TagsFilter struct {
	All []string `json:"all_,omitempty"`
	Any []string `json:"any_,omitempty"`
}

// IDFilter matches by id membership.
type IDFilter struct {
	Any []uuid.UUID `json:"any_,omitempty"`
}

// EqualsFilter matches a field by exact equality.
type EqualsFilter struct {
	Equals string `json:"equals,omitempty"`
}

// StateTypeFilter matches a run's state type by membership.
type StateTypeFilter struct {
	Any []StateType `json:"any_,omitempty"`
}

// StateNameFilter matches a run's state name by membership.
type StateNameFilter struct {
	Any []string `json:"any_,omitempty"`
}

// StateFilter is the composite state sub-filter: type and name are
// independent constraints, both must hold when both are set.
type StateFilter struct {
	Type *StateTypeFilter `json:"type,omitempty"`
	Name *StateNameFilter `json:"name,omitempty"`
}

// FlowFilter is the composed predicate for flow listings.
type FlowFilter struct {
	Name *NameFilter `json:"name,omitempty"`
	Tags *TagsFilter `json:"tags,omitempty"`
}

// DeploymentFilter is the composed predicate for deployment listings.
type DeploymentFilter struct {
	Name   *NameFilter   `json:"name,omitempty"`
	Tags   *TagsFilter   `json:"tags,omitempty"`
	FlowID *IDFilter     `json:"flow_id,omitempty"`
	Status *EqualsFilter `json:"status,omitempty"`
}

// FlowRunFilter is the composed predicate for flow run listings.
type FlowRunFilter struct {
	Name         *NameFilter  `json:"name,omitempty"`
	FlowID       *IDFilter    `json:"flow_id,omitempty"`
	DeploymentID *IDFilter    `json:"deployment_id,omitempty"`
	State        *StateFilter `json:"state,omitempty"`
}

// Typed listing parameters. The boundary adapter parses and validates the
// flat query strings exactly once and hands these over as immutable values;
// the builders below are the only place filters are composed.

// FlowListParams carries the optional flow listing constraints.
type FlowListParams struct {
	Query string   // substring match on name
	Name  string   // exact match on name, used when Query is absent
	Tags  []string // all-of semantics
}

// Filter composes the flow filter, or nil when no parameter is set.
func (p FlowListParams) Filter() *FlowFilter {
	var name *NameFilter
	if p.Query != "" {
		name = &NameFilter{Like: p.Query}
	} else if p.Name != "" {
		name = &NameFilter{Any: []string{p.Name}}
	}

	var tags *TagsFilter
	if len(p.Tags) > 0 {
		tags = &TagsFilter{All: p.Tags}
	}

	if name == nil && tags == nil {
		return nil
	}
	return &FlowFilter{Name: name, Tags: tags}
}

// DeploymentListParams carries the optional deployment listing constraints.
type DeploymentListParams struct {
	Query  string     // substring match on name
	Tags   []string   // any-of semantics
	FlowID *uuid.UUID // parent flow equality
	Status string     // status equality
}

// Filter composes the deployment filter, or nil when no parameter is set.
func (p DeploymentListParams) Filter() *DeploymentFilter {
	f := &DeploymentFilter{}
	active := false

	if p.Query != "" {
		f.Name = &NameFilter{Like: p.Query}
		active = true
	}
	if len(p.Tags) > 0 {
		f.Tags = &TagsFilter{Any: p.Tags}
		active = true
	}
	if p.FlowID != nil {
		f.FlowID = &IDFilter{Any: []uuid.UUID{*p.FlowID}}
		active = true
	}
	if p.Status != "" {
		f.Status = &EqualsFilter{Equals: p.Status}
		active = true
	}

	if !active {
		return nil
	}
	return f
}

// FlowRunListParams carries the optional flow run listing constraints.
// StateType is already parsed against the closed enumeration.
type FlowRunListParams struct {
	Name         string
	FlowID       *uuid.UUID
	DeploymentID *uuid.UUID
	StateType    StateType // "" = unset
	StateName    string
}

// Filter composes the flow run filter, or nil when no parameter is set.
// When either state constraint is present a single composite state
// sub-filter carries both.
func (p FlowRunListParams) Filter() *FlowRunFilter {
	f := &FlowRunFilter{}
	active := false

	if p.Name != "" {
		f.Name = &NameFilter{Like: p.Name}
		active = true
	}
	if p.FlowID != nil {
		f.FlowID = &IDFilter{Any: []uuid.UUID{*p.FlowID}}
		active = true
	}
	if p.DeploymentID != nil {
		f.DeploymentID = &IDFilter{Any: []uuid.UUID{*p.DeploymentID}}
		active = true
	}
	if p.StateType != "" || p.StateName != "" {
		state := &StateFilter{}
		if p.StateType != "" {
			state.Type = &StateTypeFilter{Any: []StateType{p.StateType}}
		}
		if p.StateName != "" {
			state.Name = &StateNameFilter{Any: []string{p.StateName}}
		}
		f.State = state
		active = true
	}

	if !active {
		return nil
	}
	return f
}
