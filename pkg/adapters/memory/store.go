package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Store implements ports.TaskStore in memory.
// Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	data  map[string]*domain.Task
	order []string
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Task),
	}
}

// Insert stores a copy of the task.
func (s *Store) Insert(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[task.ID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTask, task.ID)
	}
	s.data[task.ID] = task.Snapshot()
	s.order = append(s.order, task.ID)
	return nil
}

// Update replaces the stored copy of an existing task.
func (s *Store) Update(ctx context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[task.ID]; !exists {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, task.ID)
	}
	s.data[task.ID] = task.Snapshot()
	return nil
}

// Get returns a copy of the stored task.
func (s *Store) Get(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return task.Snapshot(), nil
}

// List returns copies of all tasks in insertion order.
func (s *Store) List(ctx context.Context) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*domain.Task, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.data[id].Snapshot())
	}
	return tasks, nil
}
