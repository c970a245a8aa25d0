// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cursor implements the opaque pagination token used by every
// listing operation. The wire format is base64 of a JSON object
// {"offset": <int>, "limit": <int>}; callers replay it verbatim to
// continue where the previous page ended.
package cursor

import (
	"encoding/base64"
	"encoding/json"

	"github.com/flowgate/flowgate/internal/fault"
)

type payload struct {
	Offset *int `json:"offset"`
	Limit  *int `json:"limit"`
}

// Encode packs offset and pageSize into an opaque cursor string.
func Encode(offset, pageSize int) string {
	data, _ := json.Marshal(map[string]int{"offset": offset, "limit": pageSize})
	return base64.StdEncoding.EncodeToString(data)
}

// Decode unpacks a cursor produced by Encode. Any malformed token — not
// base64, not JSON, or missing either field — fails with a Validation
// error; a bad cursor is a client error, never a silent reset to offset 0.
func Decode(token string) (offset, pageSize int, err error) {
	raw, decErr := base64.StdEncoding.DecodeString(token)
	if decErr != nil {
		return 0, 0, fault.Validationf("invalid cursor")
	}

	var p payload
	if jsonErr := json.Unmarshal(raw, &p); jsonErr != nil {
		return 0, 0, fault.Validationf("invalid cursor")
	}
	if p.Offset == nil || p.Limit == nil {
		return 0, 0, fault.Validationf("invalid cursor")
	}
	if *p.Offset < 0 || *p.Limit <= 0 {
		return 0, 0, fault.Validationf("invalid cursor")
	}

	return *p.Offset, *p.Limit, nil
}
