// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package paginate implements the cursor-stable listing protocol shared
// by every entity type: decode an optional cursor, over-fetch one item
// beyond the page size to detect further pages without a count query,
// trim, and emit the continuation cursor.
package paginate

import (
	"context"

	"github.com/flowgate/flowgate/internal/cursor"
)

// Page is one page of a listing session. NextCursor is non-empty iff
// HasMore; its absence is the exhaustion signal.
type Page[T any] struct {
	Items      []T
	Offset     int
	PageSize   int
	HasMore    bool
	NextCursor string
}

// ListFunc issues exactly one remote list call for up to limit items
// starting at offset.
type ListFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// Fetch runs one step of the listing protocol. A non-empty token
// resumes the session it encodes — its page size overrides the default;
// an empty token starts a fresh session at offset 0 with defaultPageSize.
func Fetch[T any](ctx context.Context, token string, defaultPageSize int, list ListFunc[T]) (Page[T], error) {
	offset := 0
	pageSize := defaultPageSize
	if token != "" {
		var err error
		offset, pageSize, err = cursor.Decode(token)
		if err != nil {
			return Page[T]{}, err
		}
	}

	// Fetch one extra to determine whether more results exist.
	items, err := list(ctx, pageSize+1, offset)
	if err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{
		Items:    items,
		Offset:   offset,
		PageSize: pageSize,
	}
	if len(items) > pageSize {
		page.Items = items[:pageSize]
		page.HasMore = true
		page.NextCursor = cursor.Encode(offset+pageSize, pageSize)
	}
	return page, nil
}
