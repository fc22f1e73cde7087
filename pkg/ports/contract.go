package ports

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTaskStoreContract runs a suite of tests to verify that a TaskStore implementation
// adheres to the defined interface contract.
func RunTaskStoreContract(t *testing.T, store TaskStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405.000000")

	newTask := func(suffix string) *domain.Task {
		task := domain.NewTask(prefix+suffix, "copy a to b", domain.ChainRef{})
		a := domain.Action{Name: "vault.copy", Parameters: domain.NewParameters()}
		a.Parameters.Set("src", "a.txt")
		a.Parameters.Set("dest", "b.txt")
		task.Action = &a
		return task
	}

	t.Run("Insert and Get", func(t *testing.T) {
		task := newTask("-get")
		require.NoError(t, store.Insert(ctx, task))

		loaded, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, loaded.ID)
		assert.Equal(t, domain.TaskPending, loaded.Status)
		assert.Equal(t, "copy a to b", loaded.SourceText)
		require.NotNil(t, loaded.Action)
		assert.Equal(t, "vault.copy", loaded.Action.Name)
		assert.Equal(t, []string{"src", "dest"}, loaded.Action.Parameters.Keys())
	})

	t.Run("Duplicate Insert", func(t *testing.T) {
		task := newTask("-dup")
		require.NoError(t, store.Insert(ctx, task))
		assert.ErrorIs(t, store.Insert(ctx, task), domain.ErrDuplicateTask)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		task := newTask("-upd")
		require.NoError(t, store.Insert(ctx, task))

		require.NoError(t, task.Start())
		require.NoError(t, task.Fail(domain.NewTaskError(domain.KindHandler, "", errors.New("disk full"))))
		require.NoError(t, store.Update(ctx, task))

		loaded, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskFailed, loaded.Status)
		require.NotNil(t, loaded.Error)
		assert.Equal(t, domain.KindHandler, loaded.Error.Kind)
		assert.Equal(t, "disk full", loaded.Error.Message)
		assert.False(t, loaded.ResolvedAt.IsZero())
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		assert.ErrorIs(t, store.Update(ctx, newTask("-ghost")), domain.ErrTaskNotFound)
	})

	t.Run("Returned Copies", func(t *testing.T) {
		task := newTask("-copy")
		require.NoError(t, store.Insert(ctx, task))
		task.Status = domain.TaskCompleted

		loaded, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskPending, loaded.Status, "store must not alias the inserted pointer")

		loaded.Action.Parameters.Set("src", "mutated")
		again, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "a.txt", again.Action.Parameters.String("src"))
	})

	t.Run("List In Insertion Order", func(t *testing.T) {
		var ids []string
		for i := range 3 {
			task := newTask(fmt.Sprintf("-list-%d", i))
			ids = append(ids, task.ID)
			require.NoError(t, store.Insert(ctx, task))
		}

		all, err := store.List(ctx)
		require.NoError(t, err)

		var seen []string
		for _, task := range all {
			for _, id := range ids {
				if task.ID == id {
					seen = append(seen, id)
				}
			}
		}
		assert.Equal(t, ids, seen)
	})
}
