package checkauth

import (
	"context"
)

var checkerCtxKey = &contextKey{"checker"}
var stateCtxKey = &contextKey{"state"}

type contextKey struct {
	name string
}

// WithContext sets the Checker in the given context
func WithContext(ctx context.Context, checker *Checker) context.Context {
	return context.WithValue(ctx, checkerCtxKey, checker)
}

// FromContext finds the checker from the context.
func FromContext(ctx context.Context) (*Checker, bool) {
	raw, ok := ctx.Value(checkerCtxKey).(*Checker)
	return raw, ok
}

// WithStateContext sets the State in the given context
func WithStateContext(ctx context.Context, state State) context.Context {
	return context.WithValue(ctx, stateCtxKey, state)
}

// StateFromContext extracts the State from the standard context
func StateFromContext(ctx context.Context) (State, bool) {
	raw, ok := ctx.Value(stateCtxKey).(State)
	return raw, ok
}

// Authenticated is a convenience function to check whether the context
// carries a settled, successful auth state. It prefers an explicit State and
// falls back to a snapshot of the ambient checker.
func Authenticated(ctx context.Context) bool {
	if state, ok := StateFromContext(ctx); ok {
		return state.Settled() && state.Authenticated()
	}

	if checker, ok := FromContext(ctx); ok {
		state := checker.Snapshot()
		return state.Settled() && state.Authenticated()
	}

	return false
}
