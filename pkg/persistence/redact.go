package persistence

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactStore struct {
	next     ports.TaskStore
	patterns []*regexp.Regexp
}

// Redact masks action parameters and result fields whose key matches one of the patterns.
// Nested objects are masked too. Only the stored copy is changed.
func Redact(patterns ...string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.TaskStore) ports.TaskStore {
		return &redactStore{next: next, patterns: compiled}
	}, nil
}

func (m *redactStore) Insert(ctx context.Context, task *domain.Task) error {
	return m.next.Insert(ctx, m.mask(task))
}

func (m *redactStore) Update(ctx context.Context, task *domain.Task) error {
	return m.next.Update(ctx, m.mask(task))
}

func (m *redactStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	return m.next.Get(ctx, id)
}

func (m *redactStore) List(ctx context.Context) ([]*domain.Task, error) {
	return m.next.List(ctx)
}

// mask works on a snapshot so the orchestrator's task keeps its values.
func (m *redactStore) mask(task *domain.Task) *domain.Task {
	c := task.Snapshot()
	if c.Action != nil {
		for _, key := range c.Action.Parameters.Keys() {
			if m.matches(key) {
				c.Action.Parameters.Set(key, Mask)
				continue
			}
			v, _ := c.Action.Parameters.Get(key)
			c.Action.Parameters.Set(key, m.maskValue(v))
		}
	}
	c.Result = m.maskValue(deepCopy(c.Result))
	return c
}

func (m *redactStore) maskValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if m.matches(k) {
				t[k] = Mask
			} else {
				t[k] = m.maskValue(inner)
			}
		}
	case []any:
		for i, inner := range t {
			t[i] = m.maskValue(inner)
		}
	}
	return v
}

func (m *redactStore) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = deepCopy(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = deepCopy(inner)
		}
		return out
	}
	return v
}
