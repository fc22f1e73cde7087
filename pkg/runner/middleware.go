package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/registry"
)

// ConfirmationMiddleware asks the user before running any action for which guarded returns true.
// It is "aware" of the IOHandler to use its Input/SystemOutput methods, but keeps the policy
// logic in the dispatch table. Prompts are serialized, so chained tasks queue behind each other.
func ConfirmationMiddleware(handler IOHandler, guarded func(name string) bool) registry.Middleware {
	var mu sync.Mutex
	return func(name string, next registry.Handler) registry.Handler {
		if guarded != nil && !guarded(name) {
			return next
		}
		return registry.HandlerFunc(func(ctx context.Context, params domain.Parameters) (any, error) {
			mu.Lock()
			ok, err := confirm(ctx, handler, name, params)
			mu.Unlock()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w: %s declined by user", registry.ErrDenied, name)
			}
			return next.Handle(ctx, params)
		})
	}
}

func confirm(ctx context.Context, handler IOHandler, name string, params domain.Parameters) (bool, error) {
	msg := fmt.Sprintf("Run '%s' with %s? [y/N]", name, formatResult(params))
	if err := handler.SystemOutput(ctx, msg); err != nil {
		return false, err
	}
	input, err := handler.Input(ctx)
	if err != nil {
		return false, err
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes", nil
}

// Bridged reports whether name belongs to a namespace that reaches the host through the bridge.
func Bridged(name string) bool {
	switch (domain.Action{Name: name}).Namespace() {
	case "vault", "timeai", "inbox":
		return true
	}
	return false
}
