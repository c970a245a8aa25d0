// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationf(t *testing.T) {
	err := Validationf("missing required parameter: %s", "id")
	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "missing required parameter: id", err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
}

func TestOperation_CarriesOpAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Operation("list_flows", cause)

	assert.Equal(t, KindOperation, err.Kind)
	assert.Equal(t, "list_flows", err.Op)
	assert.Equal(t, "list_flows: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestKindOf_WalksWrapChain(t *testing.T) {
	inner := NotFoundf("deployment %q not found", "flowA/deployA")
	wrapped := fmt.Errorf("resolving deployment: %w", inner)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
}

func TestKindOf_ForeignErrorIsOperation(t *testing.T) {
	assert.Equal(t, KindOperation, KindOf(errors.New("boom")))
}
