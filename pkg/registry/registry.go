package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Handler executes one action. Parameters are a private copy the handler may keep.
type Handler interface {
	Handle(ctx context.Context, params domain.Parameters) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, params domain.Parameters) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, params domain.Parameters) (any, error) {
	return f(ctx, params)
}

// Namespace groups verbs under a common prefix.
// An empty Name registers bare verbs such as "open_app".
type Namespace struct {
	Name  string
	Verbs map[string]Handler
}

// Table is the immutable dispatch table built at startup.
// Lookups are lock-free because nothing mutates it after Build.
type Table struct {
	handlers map[string]Handler
}

// Build validates the namespaces and assembles a Table.
// Invalid or duplicate names are rejected.
func Build(namespaces ...Namespace) (*Table, error) {
	t := &Table{handlers: make(map[string]Handler)}
	for _, ns := range namespaces {
		for verb, h := range ns.Verbs {
			name := verb
			if ns.Name != "" {
				name = ns.Name + "." + verb
			}
			if !domain.ValidName(name) {
				return nil, fmt.Errorf("invalid action name %q", name)
			}
			if h == nil {
				return nil, fmt.Errorf("nil handler for %q", name)
			}
			if _, exists := t.handlers[name]; exists {
				return nil, fmt.Errorf("duplicate action %q", name)
			}
			t.handlers[name] = h
		}
	}
	return t, nil
}

// MustBuild is like Build but panics on error. Intended for static tables.
func MustBuild(namespaces ...Namespace) *Table {
	t, err := Build(namespaces...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the handler registered under name.
func (t *Table) Lookup(name string) (Handler, bool) {
	if t == nil {
		return nil, false
	}
	h, ok := t.handlers[name]
	return h, ok
}

// Has reports whether name is registered.
func (t *Table) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Names returns the registered action names, sorted.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(t.handlers))
}

// Len returns the number of registered actions.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.handlers)
}

// With returns a new table whose handlers are wrapped by mws.
// The first middleware is the outermost.
func (t *Table) With(mws ...Middleware) *Table {
	out := &Table{handlers: make(map[string]Handler, t.Len())}
	for name, h := range t.handlers {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](name, h)
		}
		out.handlers[name] = h
	}
	return out
}
