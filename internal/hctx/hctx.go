package hctx

import (
	"context"
	"time"
)

// State holds per-execution metadata the runtime attaches before invoking a
// registered function.
type State struct {
	JobID       string
	JobTry      int
	Queue       string
	EnqueueTime time.Time
	Score       *int64
}

type ctxKey struct{}

// WithState returns a child context carrying the given handler state.
func WithState(parent context.Context, s *State) context.Context {
	return context.WithValue(parent, ctxKey{}, s)
}

// From extracts the handler state from context if present.
func From(ctx context.Context) (*State, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return nil, false
	}
	st, ok := v.(*State)
	return st, ok
}
