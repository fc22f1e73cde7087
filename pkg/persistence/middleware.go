package persistence

import "github.com/aretw0/switchboard/pkg/ports"

// Middleware allows wrapping a TaskStore to add behavior.
type Middleware func(ports.TaskStore) ports.TaskStore

// Chain wraps store with mws. The first middleware is the outermost.
func Chain(store ports.TaskStore, mws ...Middleware) ports.TaskStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
