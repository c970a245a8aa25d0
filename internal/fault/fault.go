// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fault defines the error taxonomy shared by every flowgate
// operation. Core code returns *Error values tagged with a Kind; the
// boundary adapters (MCP resources vs. tools) decide whether a given
// kind is raised to the protocol or rendered as an error envelope.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for presentation and logging.
// Kinds are string-based for debuggability and natural JSON serialization.
type Kind string

const (
	// KindValidation covers missing or malformed caller input: empty ids,
	// bad cursors, unknown state types, malformed composite names.
	// Never retried, always reported synchronously.
	KindValidation Kind = "VALIDATION"

	// KindNotFound covers references to entities that do not exist upstream.
	KindNotFound Kind = "NOT_FOUND"

	// KindOperation covers any failure inside a remote orchestrator call.
	// Retry policy, if any, belongs to the orchestrator client.
	KindOperation Kind = "OPERATION"
)

// Error is the uniform error type for flowgate operations.
type Error struct {
	Kind    Kind
	Op      string // operation name, set by the safe-operation wrapper
	Message string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validationf creates a Validation error.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a NotFound error.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Operation wraps err as an Operation error attributed to op.
// The message carries the underlying cause so callers never need the raw error.
func Operation(op string, err error) *Error {
	return &Error{Kind: KindOperation, Op: op, Message: err.Error(), Err: err}
}

// KindOf extracts the Kind from err, walking the wrap chain.
// Errors that are not *Error are treated as Operation failures.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindOperation
}

// IsValidation reports whether err is a Validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
