package domain

import (
	"context"
	"time"
)

// EventType identifies a bus topic.
type EventType string

const (
	EventTaskStarted   EventType = "task:started"
	EventTaskCompleted EventType = "task:completed"
	EventTaskFailed    EventType = "task:failed"
	EventLaunch        EventType = "launch"
	EventAction        EventType = "action"

	// EventAny subscribes to every topic.
	EventAny EventType = "*"
)

// Event is what listeners receive.
type Event struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskEvent is the payload of task:started, task:completed and task:failed.
type TaskEvent struct {
	TaskID string     `json:"task_id"`
	Action *Action    `json:"action,omitempty"`
	Result any        `json:"result,omitempty"`
	Error  *TaskError `json:"error,omitempty"`
	Chain  ChainRef   `json:"chain"`
}

// LaunchEvent is the payload of launch.
type LaunchEvent struct {
	App    string     `json:"app"`
	Params Parameters `json:"params"`
	TaskID string     `json:"task_id"`
}

// ActionEvent is the payload of action, published once an intent has been parsed.
type ActionEvent struct {
	TaskID string `json:"task_id"`
	Action Action `json:"action"`
}

// HandlerEvent describes a single handler invocation.
type HandlerEvent struct {
	TaskID   string        `json:"task_id"`
	Action   string        `json:"action"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// Reasons a chain is not followed.
const (
	ReasonMaxDepth     = "max_depth"
	ReasonProduceError = "produce_error"
)

// ChainEvent describes a routing decision.
type ChainEvent struct {
	TriggerID string `json:"trigger_id"`
	Rule      string `json:"rule"`
	Depth     int    `json:"depth"`
	Reason    string `json:"reason,omitempty"`
	Err       error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTaskStart      func(context.Context, *Task)
	OnTaskResolve    func(context.Context, *Task)
	OnHandlerCall    func(context.Context, *HandlerEvent)
	OnHandlerReturn  func(context.Context, *HandlerEvent)
	OnChainStarted   func(context.Context, *ChainEvent)
	OnChainAbandoned func(context.Context, *ChainEvent)
	OnListenerPanic  func(EventType, any)
}

// Merge returns hooks that call h first and then other, for every callback set in either.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTaskStart:      merge2(h.OnTaskStart, other.OnTaskStart),
		OnTaskResolve:    merge2(h.OnTaskResolve, other.OnTaskResolve),
		OnHandlerCall:    merge2(h.OnHandlerCall, other.OnHandlerCall),
		OnHandlerReturn:  merge2(h.OnHandlerReturn, other.OnHandlerReturn),
		OnChainStarted:   merge2(h.OnChainStarted, other.OnChainStarted),
		OnChainAbandoned: merge2(h.OnChainAbandoned, other.OnChainAbandoned),
		OnListenerPanic:  merge2(h.OnListenerPanic, other.OnListenerPanic),
	}
}

func merge2[A, B any](a, b func(A, B)) func(A, B) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(x A, y B) {
		a(x, y)
		b(x, y)
	}
}
