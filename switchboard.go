package switchboard

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/actions"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/events"
	"github.com/aretw0/switchboard/pkg/parser"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/aretw0/switchboard/pkg/router"
)

// Engine is the high-level entry point for the Switchboard library.
// It wires the dispatch table, task store, event bus, orchestrator and router.
type Engine struct {
	orch   *runtime.Orchestrator
	router *router.Router
	bus    *events.Bus
	store  ports.TaskStore
	table  *registry.Table
	kv     *actions.KV

	bridge         ports.Bridge
	generator      ports.Generator
	namespaces     []registry.Namespace
	builtins       bool
	middleware     []registry.Middleware
	rules          []router.Rule
	rulesSet       bool
	routing        bool
	maxDepth       int
	maxHandlers    int
	maxIntentBytes int
	handlerTimeout time.Duration
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithBridge sets the command bridge used by the built-in handlers.
func WithBridge(b ports.Bridge) Option {
	return func(e *Engine) { e.bridge = b }
}

// WithGenerator sets the text -> fragment source for text intents (default: passthrough).
func WithGenerator(g ports.Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithTaskStore replaces the in-memory task store.
func WithTaskStore(s ports.TaskStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithNamespaces registers additional handler namespaces.
func WithNamespaces(ns ...registry.Namespace) Option {
	return func(e *Engine) { e.namespaces = append(e.namespaces, ns...) }
}

// WithoutBuiltins skips the vault/timeai/inbox/context/diagnostics/open_app handlers.
func WithoutBuiltins() Option {
	return func(e *Engine) { e.builtins = false }
}

// WithMiddleware wraps every handler. The first middleware is the outermost.
func WithMiddleware(mws ...registry.Middleware) Option {
	return func(e *Engine) { e.middleware = append(e.middleware, mws...) }
}

// WithRules replaces the default routing rules. Called with no rules, the router
// runs with an empty rule set.
func WithRules(rules ...router.Rule) Option {
	return func(e *Engine) {
		e.rules = append([]router.Rule(nil), rules...)
		e.rulesSet = true
	}
}

// WithoutRouter disables automatic chaining.
func WithoutRouter() Option {
	return func(e *Engine) { e.routing = false }
}

// WithMaxDepth bounds router chains (default router.DefaultMaxDepth).
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// WithMaxConcurrentHandlers bounds how many handlers run at once (default 1).
func WithMaxConcurrentHandlers(n int) Option {
	return func(e *Engine) { e.maxHandlers = n }
}

// WithMaxIntentBytes sets the parser size guard.
func WithMaxIntentBytes(n int) Option {
	return func(e *Engine) { e.maxIntentBytes = n }
}

// WithHandlerTimeout bounds each handler invocation. Zero disables it.
func WithHandlerTimeout(d time.Duration) Option {
	return func(e *Engine) { e.handlerTimeout = d }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = e.hooks.Merge(hooks) }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New initializes a new Switchboard Engine.
// Without WithBridge, an empty in-memory bridge is used and every bridged action fails
// with memory.ErrUnknownCommand.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		builtins:    true,
		routing:     true,
		maxDepth:    router.DefaultMaxDepth,
		maxHandlers: 1,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.DiscardHandler)
	}
	if eng.bridge == nil {
		eng.bridge = memory.NewBridge()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if !eng.rulesSet {
		eng.rules = router.DefaultRules()
	}
	eng.kv = actions.NewKV()

	namespaces := eng.namespaces
	if eng.builtins {
		namespaces = append(actions.Builtins(eng.bridge, eng.kv, eng.Status), namespaces...)
	}
	table, err := registry.Build(namespaces...)
	if err != nil {
		return nil, fmt.Errorf("failed to build dispatch table: %w", err)
	}
	mws := append([]registry.Middleware{registry.Timeout(eng.handlerTimeout)}, eng.middleware...)
	eng.table = table.With(mws...)

	eng.bus = events.NewBus(
		events.WithLogger(eng.logger),
		events.WithPanicHandler(func(et domain.EventType, v any) {
			if eng.hooks.OnListenerPanic != nil {
				eng.hooks.OnListenerPanic(et, v)
			}
		}),
	)

	eng.orch, err = runtime.NewOrchestrator(eng.table, eng.store, eng.bus,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithGenerator(eng.generator),
		runtime.WithParser(parser.New(parser.WithMaxBytes(eng.maxIntentBytes))),
		runtime.WithMaxConcurrentHandlers(eng.maxHandlers),
	)
	if err != nil {
		return nil, err
	}

	if eng.routing {
		eng.router = router.New(eng.orch, eng.bus, eng.rules,
			router.WithMaxDepth(eng.maxDepth),
			router.WithLogger(eng.logger),
			router.WithLifecycleHooks(eng.hooks),
		)
	}

	return eng, nil
}

// ProcessIntent parses, dispatches and resolves one intent. It never returns an error:
// failures are recorded on the returned Task.
func (e *Engine) ProcessIntent(ctx context.Context, intent domain.Intent) *domain.Task {
	return e.orch.ProcessIntent(ctx, intent)
}

// ProcessText is ProcessIntent for free text or a raw JSON payload.
func (e *Engine) ProcessText(ctx context.Context, text string) *domain.Task {
	return e.orch.ProcessIntent(ctx, domain.TextIntent(text))
}

// ProcessStream is ProcessIntent for a fragment stream. Only the first complete
// object in the stream is dispatched.
func (e *Engine) ProcessStream(ctx context.Context, seq iter.Seq[string]) *domain.Task {
	return e.orch.ProcessIntent(ctx, domain.StreamIntent(seq))
}

// On subscribes to an event type ("*" for all) and returns a token for Off.
func (e *Engine) On(eventType domain.EventType, listener events.Listener) events.Token {
	return e.bus.Subscribe(eventType, listener)
}

// Off removes a subscription. Removing twice is a no-op.
func (e *Engine) Off(tok events.Token) bool {
	return e.bus.Unsubscribe(tok)
}

// Task returns a snapshot of one task.
func (e *Engine) Task(ctx context.Context, id string) (*domain.Task, error) {
	return e.orch.Task(ctx, id)
}

// Tasks returns snapshots of every task of the session in creation order.
func (e *Engine) Tasks(ctx context.Context) ([]*domain.Task, error) {
	return e.orch.Tasks(ctx)
}

// Actions returns the registered action names.
func (e *Engine) Actions() []string {
	return e.orch.Actions()
}

// Rules returns the active routing rule names.
func (e *Engine) Rules() []string {
	if e.router == nil {
		return nil
	}
	return e.router.Rules()
}

// Bus exposes the event bus for adapters (SSE, relays).
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// Context exposes the session key/value store used by context.set/get.
func (e *Engine) Context() *actions.KV {
	return e.kv
}

// Status summarises the engine for diagnostics.status.
func (e *Engine) Status(ctx context.Context) (actions.Status, error) {
	tasks, err := e.store.List(ctx)
	if err != nil {
		return actions.Status{}, err
	}
	counts := make(map[domain.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	return actions.Status{
		Actions: e.table.Names(),
		Tasks:   counts,
		Context: len(e.kv.Snapshot()),
	}, nil
}

// Wait blocks until every in-flight chained task has finished.
func (e *Engine) Wait() {
	if e.router != nil {
		e.router.Wait()
	}
}

// Close stops routing and waits for in-flight chains.
func (e *Engine) Close() error {
	if e.router != nil {
		return e.router.Close()
	}
	return nil
}
