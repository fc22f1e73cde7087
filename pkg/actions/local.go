package actions

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/registry"
)

// KV is the session-local key/value store behind the context namespace.
// Safe for concurrent use.
type KV struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewKV creates an empty store.
func NewKV() *KV {
	return &KV{data: make(map[string]any)}
}

// Set stores value under key.
func (kv *KV) Set(key string, value any) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
}

// Get returns the value under key.
func (kv *KV) Get(key string) (any, bool) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.data[key]
	return v, ok
}

// Snapshot returns a copy of every entry.
func (kv *KV) Snapshot() map[string]any {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return maps.Clone(kv.data)
}

type setParams struct {
	Key   string `mapstructure:"key"`
	Value any    `mapstructure:"value"`
}

// Context exposes set and get over kv. It never touches the bridge.
func Context(kv *KV) registry.Namespace {
	return registry.Namespace{
		Name: "context",
		Verbs: map[string]registry.Handler{
			"set": registry.HandlerFunc(func(_ context.Context, params domain.Parameters) (any, error) {
				var p setParams
				if err := decode(params, &p); err != nil {
					return nil, err
				}
				if err := require("key", p.Key); err != nil {
					return nil, err
				}
				kv.Set(p.Key, p.Value)
				return p.Value, nil
			}),
			"get": registry.HandlerFunc(func(_ context.Context, params domain.Parameters) (any, error) {
				key := params.String("key")
				if err := require("key", key); err != nil {
					return nil, err
				}
				v, _ := kv.Get(key)
				return v, nil
			}),
		},
	}
}

// Status is the result of diagnostics.status.
type Status struct {
	Actions []string                  `json:"actions"`
	Tasks   map[domain.TaskStatus]int `json:"tasks"`
	Context int                       `json:"context_keys"`
}

// StatusFunc reports the current engine status.
type StatusFunc func(ctx context.Context) (Status, error)

// Diagnostics exposes status. It is answered locally.
func Diagnostics(status StatusFunc) registry.Namespace {
	return registry.Namespace{
		Name: "diagnostics",
		Verbs: map[string]registry.Handler{
			"status": registry.HandlerFunc(func(ctx context.Context, _ domain.Parameters) (any, error) {
				if status == nil {
					return Status{}, nil
				}
				return status(ctx)
			}),
		},
	}
}

// Apps registers the bare open_app verb. The handler only validates and echoes the
// app; the launch event the orchestrator publishes is what shells act on.
func Apps() registry.Namespace {
	return registry.Namespace{
		Verbs: map[string]registry.Handler{
			domain.ActionOpenApp: registry.HandlerFunc(func(_ context.Context, params domain.Parameters) (any, error) {
				v, ok := params.Get(domain.ParamApp)
				app, isString := v.(string)
				if !ok || !isString || app == "" {
					return nil, fmt.Errorf("%w: %q must be a non-empty string", ErrInvalidParams, domain.ParamApp)
				}
				return map[string]any{"app": app}, nil
			}),
		},
	}
}
