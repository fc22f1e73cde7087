package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/aretw0/switchboard/pkg/ports"
)

// ErrUnknownCommand is returned by Bridge for commands without a registered func.
var ErrUnknownCommand = errors.New("unknown bridge command")

// Call records one bridge invocation.
type Call struct {
	Command string
	Args    map[string]any
}

// Bridge is an in-process ports.Bridge backed by registered functions.
// Every invocation is recorded, which makes it the bridge of choice for tests and dry runs.
type Bridge struct {
	mu       sync.Mutex
	commands map[string]ports.BridgeFunc
	calls    []Call
	fallback ports.BridgeFunc
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithFallback answers commands that have no registered func.
// Useful for dry runs where every command should "succeed".
func WithFallback(fn ports.BridgeFunc) BridgeOption {
	return func(b *Bridge) { b.fallback = fn }
}

// NewBridge creates an empty in-memory bridge.
func NewBridge(opts ...BridgeOption) *Bridge {
	b := &Bridge{commands: make(map[string]ports.BridgeFunc)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle registers fn for command, replacing any previous func.
func (b *Bridge) Handle(command string, fn ports.BridgeFunc) *Bridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands[command] = fn
	return b
}

// Returns registers a command that always answers with value.
func (b *Bridge) Returns(command string, value any) *Bridge {
	return b.Handle(command, func(context.Context, string, map[string]any) (any, error) {
		return value, nil
	})
}

// Fails registers a command that always answers with err.
func (b *Bridge) Fails(command string, err error) *Bridge {
	return b.Handle(command, func(context.Context, string, map[string]any) (any, error) {
		return nil, err
	})
}

// Invoke records the call and runs the registered func.
func (b *Bridge) Invoke(ctx context.Context, command string, args map[string]any) (any, error) {
	b.mu.Lock()
	b.calls = append(b.calls, Call{Command: command, Args: maps.Clone(args)})
	fn, ok := b.commands[command]
	if !ok {
		fn = b.fallback
	}
	b.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	return fn(ctx, command, args)
}

// Calls returns the recorded invocations in order.
func (b *Bridge) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsTo returns the recorded invocations of one command.
func (b *Bridge) CallsTo(command string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Command == command {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the call log.
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}
