// Package resource models a one-shot data fetch as pending, success or error.
package resource

import "context"

type Status string

const (
	StatusPending Status = ""
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is what a view renders for one fetch. The zero State is pending.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

func (s State[T]) Ok() bool {
	return s.Status == StatusSuccess
}

// Fetch runs fn once. There is no retry; the caller re-triggers the fetch.
func Fetch[T any](ctx context.Context, fn func(context.Context) (T, error)) State[T] {
	data, err := fn(ctx)
	if err != nil {
		return State[T]{Status: StatusError, Err: err}
	}
	return State[T]{Status: StatusSuccess, Data: data}
}

// Run performs an action that returns no data
func Run(ctx context.Context, fn func(context.Context) error) State[struct{}] {
	return Fetch(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}
