// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package datasource

import "context"

type transform[U, V any] struct {
	src DataSource[U]
	fn  func(ctx context.Context, u U, err error) (V, error)
}

// OneWayTransform maps every value retrieved from src through fn, which
// also sees the retrieval error and may turn it into a value. The mapping
// cannot be inverted, so Set is a no-op.
func OneWayTransform[U, V any](src DataSource[U], fn func(ctx context.Context, u U, err error) (V, error)) DataSource[V] {
	return &transform[U, V]{src: src, fn: fn}
}

func (t *transform[U, V]) Get(ctx context.Context) (V, error) {
	u, err := t.src.Get(ctx)
	return t.fn(ctx, u, err)
}

func (t *transform[U, V]) Set(context.Context, V) error { return nil }
