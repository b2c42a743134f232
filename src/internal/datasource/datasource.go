// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package datasource

import (
	"context"
	"errors"
	"reflect"

	"golang.org/x/sync/errgroup"
)

// ErrNoValue is returned by sources that have nothing stored.
var ErrNoValue = errors.New("datasource: no value available")

// DataSource produces values of type V and may store them.
type DataSource[V any] interface {
	// Get retrieves the current value.
	Get(ctx context.Context) (V, error)
	// Set stores v. Read-only sources ignore it.
	Set(ctx context.Context, v V) error
}

// Validator decides whether a retrieved value is usable as is or whether
// the next source in a chain must be consulted.
type Validator[V any] func(v V, err error) bool

// NonZero accepts any value retrieved without error that is not the zero
// value of V.
func NonZero[V any](v V, err error) bool {
	if err != nil {
		return false
	}
	return !reflect.ValueOf(&v).Elem().IsZero()
}

// Option configures [Compose].
type Option[V any] func(*composite[V])

// WithValidator replaces the default [NonZero] validator.
func WithValidator[V any](valid Validator[V]) Option[V] {
	return func(c *composite[V]) { c.valid = valid }
}

// WithWriteBackErrorHandler receives errors from writing a value found in
// the secondary source back into the primary. They are dropped otherwise.
func WithWriteBackErrorHandler[V any](fn func(error)) Option[V] {
	return func(c *composite[V]) { c.onWriteBackError = fn }
}

type composite[V any] struct {
	primary          DataSource[V]
	secondary        DataSource[V]
	valid            Validator[V]
	onWriteBackError func(error)
}

// Compose chains primary and secondary.
//
// Get returns the primary's value if the validator accepts it. Otherwise the
// secondary is asked, and an accepted value is written back into the
// primary before being returned. A rejected secondary result is returned
// unchanged, error included.
//
// Set writes to both sources concurrently and waits for both.
func Compose[V any](primary, secondary DataSource[V], opts ...Option[V]) DataSource[V] {
	c := &composite[V]{
		primary:   primary,
		secondary: secondary,
		valid:     NonZero[V],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *composite[V]) Get(ctx context.Context) (V, error) {
	v, err := c.primary.Get(ctx)
	if c.valid(v, err) {
		return v, nil
	}

	v, err = c.secondary.Get(ctx)
	if !c.valid(v, err) {
		return v, err
	}

	if werr := c.primary.Set(ctx, v); werr != nil && c.onWriteBackError != nil {
		c.onWriteBackError(werr)
	}
	return v, nil
}

func (c *composite[V]) Set(ctx context.Context, v V) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.primary.Set(ctx, v) })
	g.Go(func() error { return c.secondary.Set(ctx, v) })
	return g.Wait()
}

// Func adapts plain functions to a DataSource. A nil SetFunc makes Set a no-op.
type Func[V any] struct {
	GetFunc func(ctx context.Context) (V, error)
	SetFunc func(ctx context.Context, v V) error
}

// Get calls GetFunc.
func (f Func[V]) Get(ctx context.Context) (V, error) { return f.GetFunc(ctx) }

// Set calls SetFunc if present.
func (f Func[V]) Set(ctx context.Context, v V) error {
	if f.SetFunc == nil {
		return nil
	}
	return f.SetFunc(ctx, v)
}
