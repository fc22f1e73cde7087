package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunTaskStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, domain.NewTask("t1", "x", domain.ChainRef{})))

	assert.True(t, mr.Exists("custom:app:task:t1"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")
}

func TestRedisStore_ResultNumbers(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	task := domain.NewTask("t1", "x", domain.ChainRef{})
	require.NoError(t, store.Insert(ctx, task))
	require.NoError(t, task.Start())
	require.NoError(t, task.Complete(map[string]any{"count": 3, "ratio": 0.5}))
	require.NoError(t, store.Update(ctx, task))

	loaded, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": int64(3), "ratio": 0.5}, loaded.Result)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, domain.NewTask("old", "x", domain.ChainRef{})))
	mr.FastForward(2 * time.Second)
	require.NoError(t, store.Insert(ctx, domain.NewTask("new", "y", domain.ChainRef{})))

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "new", tasks[0].ID)

	members, err := mr.ZMembers("switchboard:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, members, "expired ids are pruned from the index")
}
