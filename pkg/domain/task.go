package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// ChainRef links a router-derived task to the task that triggered it.
// Externally submitted tasks have Depth 0 and empty references.
type ChainRef struct {
	RootID   string `json:"root_id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Depth    int    `json:"depth"`
	Rule     string `json:"rule,omitempty"`
}

// Task tracks the processing of a single intent.
type Task struct {
	ID         string     `json:"id"`
	SourceText string     `json:"source_text,omitempty"`
	Action     *Action    `json:"action,omitempty"`
	Status     TaskStatus `json:"status"`
	Result     any        `json:"result,omitempty"`
	Error      *TaskError `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt time.Time  `json:"resolved_at,omitzero"`
	Chain      ChainRef   `json:"chain"`
}

// NewTask creates a pending task.
func NewTask(id, source string, chain ChainRef) *Task {
	return &Task{
		ID:         id,
		SourceText: source,
		Status:     TaskPending,
		CreatedAt:  time.Now(),
		Chain:      chain,
	}
}

// Start moves a pending task to running.
func (t *Task) Start() error {
	if t.Status != TaskPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskRunning)
	}
	t.Status = TaskRunning
	return nil
}

// Complete records the handler result and resolves the task.
func (t *Task) Complete(result any) error {
	if t.Status != TaskRunning {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskCompleted)
	}
	t.Status = TaskCompleted
	t.Result = result
	t.ResolvedAt = time.Now()
	return nil
}

// Fail records the error and resolves the task.
func (t *Task) Fail(err *TaskError) error {
	if t.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskFailed)
	}
	t.Status = TaskFailed
	t.Error = err
	t.ResolvedAt = time.Now()
	return nil
}

// Snapshot returns a copy that shares nothing mutable with t
// except Result, which handlers own.
func (t *Task) Snapshot() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Action != nil {
		a := t.Action.Clone()
		c.Action = &a
	}
	c.Error = t.Error.clone()
	return &c
}

// UnmarshalTask decodes a stored task. Numbers in Result come back as int64 or float64,
// the same shapes the parser produces.
func UnmarshalTask(data []byte) (*Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var t Task
	if err := dec.Decode(&t); err != nil {
		return nil, err
	}
	t.Result = NormalizeNumbers(t.Result)
	return &t, nil
}
