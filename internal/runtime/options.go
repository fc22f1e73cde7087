package runtime

import (
	"log/slog"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/parser"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) { o.hooks = o.hooks.Merge(hooks) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGenerator sets the text -> fragment source used for text intents.
func WithGenerator(g ports.Generator) Option {
	return func(o *Orchestrator) {
		if g != nil {
			o.generator = g
		}
	}
}

// WithParser replaces the default parser (e.g. to change the size guard).
func WithParser(p *parser.Parser) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.parser = p
		}
	}
}

// WithMaxConcurrentHandlers bounds how many handlers run at once. Values < 1 mean 1.
func WithMaxConcurrentHandlers(n int) Option {
	return func(o *Orchestrator) {
		if n < 1 {
			n = 1
		}
		o.maxHandlers = int64(n)
	}
}

// WithIDGenerator overrides task ID allocation.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}
