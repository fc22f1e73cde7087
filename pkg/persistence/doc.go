// Package persistence provides TaskStore middleware.
//
// A Middleware wraps a ports.TaskStore and changes what reaches storage
// without changing what the orchestrator returns to callers.
package persistence
