package ports

import "context"

// Bridge performs privileged, OS-level operations on behalf of handlers.
// Errors are returned to the handler unchanged.
type Bridge interface {
	Invoke(ctx context.Context, command string, args map[string]any) (any, error)
}

// BridgeFunc adapts a function to Bridge.
type BridgeFunc func(ctx context.Context, command string, args map[string]any) (any, error)

func (f BridgeFunc) Invoke(ctx context.Context, command string, args map[string]any) (any, error) {
	return f(ctx, command, args)
}
