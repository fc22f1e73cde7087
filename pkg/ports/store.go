package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// TaskStore keeps task records. Implementations store copies and hand out copies:
// callers never share memory with the stored record.
type TaskStore interface {
	// Insert adds a new task. Returns domain.ErrDuplicateTask if the ID exists.
	Insert(ctx context.Context, task *domain.Task) error

	// Update replaces an existing task. Returns domain.ErrTaskNotFound if absent.
	Update(ctx context.Context, task *domain.Task) error

	// Get returns the task with the given ID or domain.ErrTaskNotFound.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// List returns all tasks in insertion order.
	List(ctx context.Context) ([]*domain.Task, error)
}
