// Package fallback provides ordered degradation for display metrics:
// live fetch, then last-known cached value, then a static placeholder.
package fallback

import (
	"context"
	"errors"
)

// ErrExhausted is returned when every supplier in the chain failed.
var ErrExhausted = errors.New("fallback: all suppliers failed")

// Supplier produces a value and names its provenance.
type Supplier[T any] struct {
	// Source labels the result (surfaced as _source in responses).
	Source string
	Fn     func(ctx context.Context) (T, error)
}

// Result carries the first successful value and where it came from.
type Result[T any] struct {
	Value  T
	Source string
	// Degraded is true when any supplier before the winning one failed.
	Degraded bool
}

// Resolve tries suppliers in order and returns the first success.
func Resolve[T any](ctx context.Context, suppliers ...Supplier[T]) (Result[T], error) {
	var res Result[T]
	for i, s := range suppliers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		v, err := s.Fn(ctx)
		if err != nil {
			continue
		}
		res.Value = v
		res.Source = s.Source
		res.Degraded = i > 0
		return res, nil
	}
	return res, ErrExhausted
}

// Static wraps a constant placeholder as a supplier that never fails.
func Static[T any](source string, v T) Supplier[T] {
	return Supplier[T]{
		Source: source,
		Fn:     func(context.Context) (T, error) { return v, nil },
	}
}
