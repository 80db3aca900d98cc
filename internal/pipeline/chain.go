// Package pipeline runs ordered, short-circuiting chains of transforms and
// holds the append-only registry they are drawn from.
package pipeline

import "context"

// Transform receives the current value of a chain and returns its replacement.
// Returning an error stops the chain.
type Transform[T any] func(ctx context.Context, value T) (T, error)

// Run applies transforms to seed in order. Transform i+1 starts only after
// transform i has returned without error. The first error is returned exactly
// as produced, and the transforms after it are never called.
//
// An empty list returns seed unchanged.
func Run[T any](ctx context.Context, seed T, transforms []Transform[T]) (T, error) {
	current := seed

	for _, transform := range transforms {
		next, err := transform(ctx, current)
		if err != nil {
			var zero T

			return zero, err
		}

		current = next
	}

	return current, nil
}

// Collect picks one transform out of every item that provides it, keeping
// item order. Items for which pick returns nil are skipped.
func Collect[I any, T any](items []I, pick func(I) Transform[T]) []Transform[T] {
	transforms := make([]Transform[T], 0, len(items))

	for _, item := range items {
		if transform := pick(item); transform != nil {
			transforms = append(transforms, transform)
		}
	}

	return transforms
}
