// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package datasource

import (
	"context"

	"golang.org/x/sync/singleflight"
)

const inflightKey = "get"

type inflight[V any] struct {
	src   DataSource[V]
	group singleflight.Group
}

// ReuseInflight makes concurrent Get calls share one outstanding fetch from
// src. Callers arriving while a fetch runs receive its result, failures
// included. The first call after it completes starts a new fetch.
//
// The shared fetch is detached from the caller that started it, so one
// waiter giving up does not fail the others; each waiter still returns
// early when its own ctx is done. Set passes straight through.
func ReuseInflight[V any](src DataSource[V]) DataSource[V] {
	return &inflight[V]{src: src}
}

type result[V any] struct {
	v   V
	err error
}

func (s *inflight[V]) Get(ctx context.Context) (V, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(inflightKey, func() (any, error) {
		v, err := s.src.Get(shared)
		return result[V]{v: v, err: err}, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case r := <-ch:
		res := r.Val.(result[V])
		return res.v, res.err
	}
}

func (s *inflight[V]) Set(ctx context.Context, v V) error {
	return s.src.Set(ctx, v)
}
