package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the adapter writes.
const DefaultPrefix = "switchboard:"

// Store implements ports.TaskStore on Redis.
// Each task is a JSON string under <prefix>task:<id>; insertion order is kept in the
// sorted set <prefix>index scored by a monotonic sequence.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.TaskStore = (*Store)(nil)

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithPrefix sets the key prefix (default DefaultPrefix).
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires task records after ttl. Expired tasks disappear from List lazily.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// NewStore creates a store connected to addr.
func NewStore(addr string, opts ...StoreOption) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient creates a store on an existing client.
func NewFromClient(client *backend.Client, opts ...StoreOption) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string { return s.prefix + "task:" + id }
func (s *Store) indexKey() string     { return s.prefix + "index" }
func (s *Store) seqKey() string       { return s.prefix + "seq" }

func (s *Store) Insert(ctx context.Context, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}
	ok, err := s.client.SetNX(ctx, s.key(task.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis error inserting task: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTask, task.ID)
	}
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("redis error indexing task: %w", err)
	}
	return s.client.ZAdd(ctx, s.indexKey(), backend.Z{Score: float64(seq), Member: task.ID}).Err()
}

func (s *Store) Update(ctx context.Context, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}
	args := backend.SetArgs{Mode: "XX", KeepTTL: true}
	if err := s.client.SetArgs(ctx, s.key(task.ID), data, args).Err(); err != nil {
		if errors.Is(err, backend.Nil) {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, task.ID)
		}
		return fmt.Errorf("redis error updating task: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Task, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("redis error loading task: %w", err)
	}
	return domain.UnmarshalTask(data)
}

func (s *Store) List(ctx context.Context) ([]*domain.Task, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error listing tasks: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error loading tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(values))
	var expired []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		task, err := domain.UnmarshalTask([]byte(str))
		if err != nil {
			return nil, fmt.Errorf("failed to decode task %s: %w", ids[i], err)
		}
		tasks = append(tasks, task)
	}
	if len(expired) > 0 {
		s.client.ZRem(ctx, s.indexKey(), expired...)
	}
	return tasks, nil
}
