package registry

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ErrDenied is returned when a policy blocks an action.
var ErrDenied = errors.New("action denied by policy")

// PanicError carries a recovered handler panic.
type PanicError struct {
	Action string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %s panicked: %v", e.Action, e.Value)
}

// Middleware wraps the handler registered under name.
type Middleware func(name string, next Handler) Handler

// Recover converts handler panics into *PanicError.
func Recover() Middleware {
	return func(name string, next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, params domain.Parameters) (res any, err error) {
			defer func() {
				if r := recover(); r != nil {
					res = nil
					err = &PanicError{Action: name, Value: r, Stack: debug.Stack()}
				}
			}()
			return next.Handle(ctx, params)
		})
	}
}

// Timeout bounds each handler call with d. A zero d disables it.
func Timeout(d time.Duration) Middleware {
	return func(name string, next Handler) Handler {
		if d <= 0 {
			return next
		}
		return HandlerFunc(func(ctx context.Context, params domain.Parameters) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Handle(ctx, params)
		})
	}
}

// Policy blocks actions for which allow returns false.
func Policy(allow func(name string) bool) Middleware {
	return func(name string, next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, params domain.Parameters) (any, error) {
			if !allow(name) {
				return nil, fmt.Errorf("%w: %s", ErrDenied, name)
			}
			return next.Handle(ctx, params)
		})
	}
}

// AllowList returns a Policy predicate that accepts only the given names.
// An empty list allows everything.
func AllowList(names ...string) func(string) bool {
	if len(names) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}
