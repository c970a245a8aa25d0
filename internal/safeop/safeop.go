// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package safeop wraps every remote orchestrator call with uniform
// observability: a trace span, start/finish logging, and conversion of
// any failure into a fault.Operation error carrying the operation name.
// It is the single chokepoint around network-facing calls; it never
// swallows an error and never substitutes a default value for one.
package safeop

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/flowgate/flowgate/internal/fault"
)

const tracerName = "github.com/flowgate/flowgate/internal/safeop"

// Do executes op under the operation name, returning either its result
// or a typed error. Validation and NotFound errors raised by the
// operation keep their kind so the boundary can present them correctly;
// everything else is reported as an operation failure carrying the
// operation name and the underlying message.
func Do[T any](ctx context.Context, log zerolog.Logger, name string, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	defer span.End()

	log.Debug().Str("operation", name).Msg("Starting operation")

	result, err := op(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("operation", name).Msg("Operation failed")

		var zero T
		var fe *fault.Error
		if errors.As(err, &fe) && fe.Kind != fault.KindOperation {
			return zero, err
		}
		return zero, fault.Operation(name, err)
	}

	span.SetAttributes(attribute.Bool("operation.success", true))
	log.Debug().Str("operation", name).Msg("Operation completed successfully")
	return result, nil
}
