package router_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/events"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/aretw0/switchboard/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	orch   *runtime.Orchestrator
	bus    *events.Bus
	bridge *memory.Bridge
}

func newHarness(t *testing.T, namespaces ...registry.Namespace) *harness {
	t.Helper()
	bus := events.NewBus()
	orch, err := runtime.NewOrchestrator(registry.MustBuild(namespaces...), memory.NewStore(), bus)
	require.NoError(t, err)
	return &harness{orch: orch, bus: bus, bridge: memory.NewBridge()}
}

func bridged(b *memory.Bridge, command string) registry.Handler {
	return registry.HandlerFunc(func(ctx context.Context, p domain.Parameters) (any, error) {
		return b.Invoke(ctx, command, p.Map())
	})
}

func TestRouter_SmartTagsToInbox(t *testing.T) {
	bus := events.NewBus()
	bridge := memory.NewBridge().
		Returns("smart_tags", []any{"tagA", "tagB"}).
		Returns("send_message", "sent")
	table := registry.MustBuild(
		registry.Namespace{Name: "vault", Verbs: map[string]registry.Handler{"smartTags": bridged(bridge, "smart_tags")}},
		registry.Namespace{Name: "inbox", Verbs: map[string]registry.Handler{"send": bridged(bridge, "send_message")}},
	)
	orch, err := runtime.NewOrchestrator(table, memory.NewStore(), bus)
	require.NoError(t, err)

	r := router.New(orch, bus, router.DefaultRules())
	defer r.Close()

	trigger := orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"vault.smartTags","parameters":{"path":"notes.md"}}`))
	require.Equal(t, domain.TaskCompleted, trigger.Status)
	r.Wait()

	sends := bridge.CallsTo("send_message")
	require.Len(t, sends, 1)
	assert.Equal(t, "tagA, tagB", sends[0].Args["body"])

	tasks, err := orch.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	follow := tasks[1]
	assert.Equal(t, "inbox.send", follow.Action.Name)
	assert.Equal(t, domain.TaskCompleted, follow.Status)
	assert.Equal(t, domain.ChainRef{RootID: trigger.ID, ParentID: trigger.ID, Depth: 1, Rule: "vault.smartTags->inbox.send"}, follow.Chain)
}

func TestRouter_DepthBound(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, registry.Namespace{Name: "loop", Verbs: map[string]registry.Handler{
		"again": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) {
			calls.Add(1)
			return nil, nil
		}),
	}})

	var abandoned []*domain.ChainEvent
	var mu sync.Mutex
	hooks := domain.LifecycleHooks{OnChainAbandoned: func(_ context.Context, e *domain.ChainEvent) {
		mu.Lock()
		abandoned = append(abandoned, e)
		mu.Unlock()
	}}

	r := router.New(h.orch, h.bus, []router.Rule{router.Route("loop.again", "loop.again", nil)},
		router.WithMaxDepth(3), router.WithLifecycleHooks(hooks))
	defer r.Close()

	task := h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"loop.again","parameters":{}}`))
	r.Wait()

	// the external task plus depths 1..3
	assert.Equal(t, int32(4), calls.Load())
	require.Len(t, abandoned, 1)
	assert.Equal(t, domain.ReasonMaxDepth, abandoned[0].Reason)
	assert.Equal(t, 4, abandoned[0].Depth)

	tasks, _ := h.orch.Tasks(context.Background())
	for _, tk := range tasks {
		assert.Equal(t, domain.TaskCompleted, tk.Status, "abandonment never fails a task")
		assert.Equal(t, task.ID, tk.Chain.RootID)
	}

	// a second external intent starts again at depth 0
	h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"loop.again","parameters":{}}`))
	r.Wait()
	assert.Equal(t, int32(8), calls.Load())
}

func TestRouter_IndirectLoopIsBounded(t *testing.T) {
	var a, b atomic.Int32
	h := newHarness(t, registry.Namespace{Name: "p", Verbs: map[string]registry.Handler{
		"a": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) { a.Add(1); return "from a", nil }),
		"b": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) { b.Add(1); return "from b", nil }),
	}})

	// the way back goes through text, so every second hop is re-parsed
	back, err := router.ParseRules([]byte(`
rules:
  - name: b-to-a
    when: p.b
    text: '{"action":"p.a","parameters":{}}'
`))
	require.NoError(t, err)

	var abandoned []*domain.ChainEvent
	var mu sync.Mutex
	hooks := domain.LifecycleHooks{OnChainAbandoned: func(_ context.Context, e *domain.ChainEvent) {
		mu.Lock()
		abandoned = append(abandoned, e)
		mu.Unlock()
	}}

	const maxDepth = 5
	rules := append([]router.Rule{router.Route("p.a", "p.b", nil)}, back...)
	r := router.New(h.orch, h.bus, rules, router.WithMaxDepth(maxDepth), router.WithLifecycleHooks(hooks))
	defer r.Close()

	root := h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"p.a","parameters":{}}`))
	r.Wait()

	assert.Equal(t, int32(1+maxDepth), a.Load()+b.Load())
	assert.Equal(t, int32(3), a.Load())
	assert.Equal(t, int32(3), b.Load())
	require.Len(t, abandoned, 1)
	assert.Equal(t, domain.ReasonMaxDepth, abandoned[0].Reason)
	assert.Equal(t, "b-to-a", abandoned[0].Rule)
	assert.Equal(t, maxDepth+1, abandoned[0].Depth)

	tasks, err := h.orch.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1+maxDepth)
	for i, tk := range tasks {
		assert.Equal(t, root.ID, tk.Chain.RootID)
		assert.Equal(t, i, tk.Chain.Depth)
	}
}

func TestRoute_ForwardsResultAsData(t *testing.T) {
	got := make(chan any, 1)
	h := newHarness(t, registry.Namespace{Name: "x", Verbs: map[string]registry.Handler{
		"a": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) {
			return []any{"t1", "t2"}, nil
		}),
		"b": registry.HandlerFunc(func(_ context.Context, p domain.Parameters) (any, error) {
			v, _ := p.Get(router.ParamData)
			got <- v
			return nil, nil
		}),
	}})
	r := router.New(h.orch, h.bus, []router.Rule{router.Route("x.a", "x.b", nil)})
	defer r.Close()

	h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"x.a","parameters":{}}`))
	r.Wait()

	require.Len(t, got, 1)
	assert.Equal(t, []any{"t1", "t2"}, <-got)
}

func TestRouter_FailedTasksDoNotChain(t *testing.T) {
	var followed atomic.Int32
	h := newHarness(t,
		registry.Namespace{Name: "a", Verbs: map[string]registry.Handler{
			"fail": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) { return nil, errors.New("nope") }),
		}},
		registry.Namespace{Name: "b", Verbs: map[string]registry.Handler{
			"next": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) { followed.Add(1); return nil, nil }),
		}},
	)
	r := router.New(h.orch, h.bus, []router.Rule{router.Route("a.fail", "b.next", nil)})
	defer r.Close()

	h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"a.fail","parameters":{}}`))
	r.Wait()
	assert.Equal(t, int32(0), followed.Load())
}

func TestRouter_FirstMatchWinsAndNilProduce(t *testing.T) {
	var hits sync.Map
	count := func(name string) registry.Handler {
		return registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) {
			v, _ := hits.LoadOrStore(name, new(atomic.Int32))
			v.(*atomic.Int32).Add(1)
			return nil, nil
		})
	}
	h := newHarness(t, registry.Namespace{Name: "x", Verbs: map[string]registry.Handler{
		"start": count("start"), "first": count("first"), "second": count("second"), "quiet": count("quiet"),
	}})

	silent := router.Rule{
		Name:    "silent",
		Match:   func(a domain.Action, _ any) bool { return a.Name == "x.quiet" },
		Produce: func(domain.Action, any) (*router.Derived, error) { return nil, nil },
	}
	r := router.New(h.orch, h.bus, []router.Rule{
		router.Route("x.start", "x.first", nil),
		router.Route("x.start", "x.second", nil),
		silent,
		router.Route("x.quiet", "x.second", nil),
	})
	defer r.Close()

	h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"x.start","parameters":{}}`))
	h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"x.quiet","parameters":{}}`))
	r.Wait()

	get := func(name string) int32 {
		v, ok := hits.Load(name)
		if !ok {
			return 0
		}
		return v.(*atomic.Int32).Load()
	}
	assert.Equal(t, int32(1), get("first"))
	assert.Equal(t, int32(0), get("second"))
	assert.Equal(t, []string{"x.start->x.first", "x.start->x.second", "silent", "x.quiet->x.second"}, r.Rules())
}

func TestRouter_ProduceErrorIsContained(t *testing.T) {
	h := newHarness(t, registry.Namespace{Name: "x", Verbs: map[string]registry.Handler{
		"y": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) { return "ok", nil }),
	}})
	var reasons []string
	r := router.New(h.orch, h.bus, []router.Rule{{
		Name:    "broken",
		Match:   func(domain.Action, any) bool { return true },
		Produce: func(domain.Action, any) (*router.Derived, error) { return nil, errors.New("bad template") },
	}}, router.WithLifecycleHooks(domain.LifecycleHooks{
		OnChainAbandoned: func(_ context.Context, e *domain.ChainEvent) { reasons = append(reasons, e.Reason) },
	}))
	defer r.Close()

	task := h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"x.y","parameters":{}}`))
	r.Wait()
	assert.Equal(t, domain.TaskCompleted, task.Status)
	assert.Equal(t, []string{domain.ReasonProduceError}, reasons)
}

func TestRouter_DerivedTextReentersParser(t *testing.T) {
	h := newHarness(t,
		registry.Namespace{Name: "inbox", Verbs: map[string]registry.Handler{
			"get_messages": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) { return []any{"m1"}, nil }),
			"summarize": registry.HandlerFunc(func(_ context.Context, p domain.Parameters) (any, error) {
				return "summary of " + p.String("id"), nil
			}),
		}},
	)
	rules, err := router.ParseRules([]byte(`
rules:
  - name: summarize-first
    when: inbox.get_messages
    text: '{"action":"inbox.summarize","parameters":{"id":"{{ index .Result 0 }}"}}'
`))
	require.NoError(t, err)

	r := router.New(h.orch, h.bus, rules)
	defer r.Close()

	h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"inbox.get_messages","parameters":{}}`))
	r.Wait()

	tasks, _ := h.orch.Tasks(context.Background())
	require.Len(t, tasks, 2)
	assert.Equal(t, "summary of m1", tasks[1].Result)
	assert.Equal(t, 1, tasks[1].Chain.Depth)
}

func TestRouter_CloseStopsChaining(t *testing.T) {
	var followed atomic.Int32
	h := newHarness(t, registry.Namespace{Name: "x", Verbs: map[string]registry.Handler{
		"a": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) { return nil, nil }),
		"b": registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) { followed.Add(1); return nil, nil }),
	}})
	r := router.New(h.orch, h.bus, []router.Rule{router.Route("x.a", "x.b", nil)})
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	h.orch.ProcessIntent(context.Background(), domain.TextIntent(`{"action":"x.a","parameters":{}}`))
	r.Wait()
	assert.Equal(t, int32(0), followed.Load())
	assert.Equal(t, 0, h.bus.SubscriptionCount())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a, b", router.Join([]string{"a", "b"}, ", "))
	assert.Equal(t, "1|true", router.Join([]any{1, true}, "|"))
	assert.Equal(t, "solo", router.Join("solo", ", "))
	assert.Equal(t, "", router.Join(nil, ", "))
	assert.Equal(t, "42", router.Join(42, ", "))
}
