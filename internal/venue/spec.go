package venue

import "context"

// Specification composes boolean predicates over a value, with And/Or/Not
// composition and context-aware short-circuiting. Used to express the
// ambiguous-name guard as a small composed rule rather than an inline
// conditional buried in the matcher.
type Specification[T any] interface {
	IsSatisfiedBy(ctx context.Context, v T) bool
	And(other Specification[T]) Specification[T]
	Or(other Specification[T]) Specification[T]
	Not() Specification[T]
}

type specFunc[T any] func(ctx context.Context, v T) bool

func (f specFunc[T]) IsSatisfiedBy(ctx context.Context, v T) bool { return f(ctx, v) }

func (f specFunc[T]) And(other Specification[T]) Specification[T] {
	return specFunc[T](func(ctx context.Context, v T) bool {
		if ctx.Err() != nil {
			return false
		}
		if !f(ctx, v) {
			return false
		}
		return other.IsSatisfiedBy(ctx, v)
	})
}

func (f specFunc[T]) Or(other Specification[T]) Specification[T] {
	return specFunc[T](func(ctx context.Context, v T) bool {
		if ctx.Err() != nil {
			return false
		}
		if f(ctx, v) {
			return true
		}
		return other.IsSatisfiedBy(ctx, v)
	})
}

func (f specFunc[T]) Not() Specification[T] {
	return specFunc[T](func(ctx context.Context, v T) bool {
		if ctx.Err() != nil {
			return false
		}
		return !f(ctx, v)
	})
}

// newSpec constructs a Specification from a predicate.
func newSpec[T any](fn func(ctx context.Context, v T) bool) Specification[T] { return specFunc[T](fn) }
