package router

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/events"
	"github.com/aretw0/switchboard/pkg/ports"
)

// DefaultMaxDepth bounds how many router hops may follow an external intent.
const DefaultMaxDepth = 4

// Router watches completed tasks and re-submits derived intents.
// Follow-ups run on their own goroutines so the triggering caller is never blocked.
type Router struct {
	submitter ports.Submitter
	bus       *events.Bus
	rules     []Rule
	maxDepth  int
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	ctx       context.Context

	mu     sync.Mutex
	closed bool
	token  events.Token
	wg     sync.WaitGroup
}

// Option configures a Router.
type Option func(*Router)

// WithMaxDepth sets the maximum chain depth. Negative values are ignored; zero disables chaining.
func WithMaxDepth(n int) Option {
	return func(r *Router) {
		if n >= 0 {
			r.maxDepth = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLifecycleHooks receives OnChainStarted and OnChainAbandoned.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(r *Router) { r.hooks = r.hooks.Merge(h) }
}

// WithContext sets the context follow-ups are submitted with.
func WithContext(ctx context.Context) Option {
	return func(r *Router) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// New creates a router and subscribes it to task:completed.
// Failed tasks are never observed, so they never chain.
func New(submitter ports.Submitter, bus *events.Bus, rules []Rule, opts ...Option) *Router {
	r := &Router{
		submitter: submitter,
		bus:       bus,
		rules:     append([]Rule(nil), rules...),
		maxDepth:  DefaultMaxDepth,
		logger:    slog.New(slog.DiscardHandler),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.token = bus.Subscribe(domain.EventTaskCompleted, r.onCompleted)
	return r
}

// Rules returns the rule names in evaluation order.
func (r *Router) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// MaxDepth returns the configured depth bound.
func (r *Router) MaxDepth() int {
	return r.maxDepth
}

func (r *Router) onCompleted(evt domain.Event) {
	payload, ok := evt.Payload.(domain.TaskEvent)
	if !ok || payload.Action == nil {
		return
	}
	action := *payload.Action

	for _, rule := range r.rules {
		if rule.Match == nil || !rule.Match(action, payload.Result) {
			continue
		}
		r.follow(rule, action, payload)
		return
	}
}

func (r *Router) follow(rule Rule, action domain.Action, trigger domain.TaskEvent) {
	depth := trigger.Chain.Depth + 1
	info := &domain.ChainEvent{TriggerID: trigger.TaskID, Rule: rule.Name, Depth: depth}
	log := r.logger.With("rule", rule.Name, "task_id", trigger.TaskID, "depth", depth)

	if rule.Produce == nil {
		return
	}
	derived, err := rule.Produce(action, trigger.Result)
	if err != nil {
		info.Reason, info.Err = domain.ReasonProduceError, err
		log.Error("routing rule failed", "err", err)
		r.abandoned(info)
		return
	}
	if derived == nil {
		return
	}
	if depth > r.maxDepth {
		info.Reason = domain.ReasonMaxDepth
		log.Warn("chain abandoned: max depth reached", "max_depth", r.maxDepth)
		r.abandoned(info)
		return
	}

	root := trigger.Chain.RootID
	if root == "" {
		root = trigger.TaskID
	}
	chain := domain.ChainRef{RootID: root, ParentID: trigger.TaskID, Depth: depth, Rule: rule.Name}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	if r.hooks.OnChainStarted != nil {
		r.hooks.OnChainStarted(r.ctx, info)
	}
	log.Debug("chaining follow-up")

	go func() {
		defer r.wg.Done()
		r.submitter.ProcessChained(r.ctx, derived.Intent(), chain)
	}()
}

func (r *Router) abandoned(info *domain.ChainEvent) {
	if r.hooks.OnChainAbandoned != nil {
		r.hooks.OnChainAbandoned(r.ctx, info)
	}
}

// Wait blocks until every in-flight follow-up, including the ones they trigger, has finished.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Close stops observing tasks and waits for in-flight follow-ups.
func (r *Router) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.bus.Unsubscribe(r.token)
	r.wg.Wait()
	return nil
}
