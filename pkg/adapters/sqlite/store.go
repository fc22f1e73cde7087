// Package sqlite provides a queryable TaskStore backed by SQLite (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the database in process memory for the lifetime of the Store.
const MemoryDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	status      TEXT NOT NULL,
	action      TEXT NOT NULL DEFAULT '',
	root_id     TEXT NOT NULL DEFAULT '',
	depth       INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	resolved_at INTEGER NOT NULL DEFAULT 0,
	data        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_root ON tasks(root_id);
`

// Store implements ports.TaskStore on SQLite.
// The full task is kept as JSON; the indexed columns exist for Query.
type Store struct {
	db *sql.DB
}

var _ ports.TaskStore = (*Store)(nil)

// Open opens (or creates) the database at dsn. An empty dsn means MemoryDSN.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every :memory: connection is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, status, action, root_id, depth, created_at, resolved_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		task.ID, string(task.Status), actionName(task), task.Chain.RootID, task.Chain.Depth,
		task.CreatedAt.UnixNano(), resolvedAt(task), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTask, task.ID)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, action = ?, root_id = ?, depth = ?, resolved_at = ?, data = ?
		WHERE id = ?`,
		string(task.Status), actionName(task), task.Chain.RootID, task.Chain.Depth,
		resolvedAt(task), string(data), task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, task.ID)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Task, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM tasks WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	return domain.UnmarshalTask([]byte(data))
}

func (s *Store) List(ctx context.Context) ([]*domain.Task, error) {
	return s.Query(ctx, Filter{})
}

// Filter narrows Query. Zero fields match everything.
type Filter struct {
	Status domain.TaskStatus
	Action string
	RootID string
	Limit  int
}

// Query returns matching tasks in insertion order.
func (s *Store) Query(ctx context.Context, f Filter) ([]*domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.RootID != "" {
		where = append(where, "root_id = ?")
		args = append(args, f.RootID)
	}

	q := "SELECT data FROM tasks"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		task, err := domain.UnmarshalTask([]byte(data))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Counts returns the number of tasks per status.
func (s *Store) Counts(ctx context.Context) (map[domain.TaskStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.TaskStatus(status)] = n
	}
	return out, rows.Err()
}

func actionName(t *domain.Task) string {
	if t.Action == nil {
		return ""
	}
	return t.Action.Name
}

func resolvedAt(t *domain.Task) int64 {
	if t.ResolvedAt.IsZero() {
		return 0
	}
	return t.ResolvedAt.UnixNano()
}
