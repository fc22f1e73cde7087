package persistence_test

import (
	"context"
	"testing"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/persistence"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact_Contract(t *testing.T) {
	mw, err := persistence.Redact("password")
	require.NoError(t, err)
	ports.RunTaskStoreContract(t, mw(memory.NewStore()))
}

func TestRedact_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := persistence.Redact("password", "^token$")
	require.NoError(t, err)
	store := persistence.Chain(underlying, mw)

	ctx := context.Background()
	task := domain.NewTask("t-1", "", domain.ChainRef{RootID: "t-1"})
	params := domain.NewParameters()
	params.Set("to", "ops")
	params.Set("user_password", "secret123")
	params.Set("auth", map[string]any{"token": "abc", "scheme": "bearer"})
	task.Action = &domain.Action{Name: "inbox.send", Parameters: params}
	require.NoError(t, store.Insert(ctx, task))

	require.NoError(t, task.Start())
	require.NoError(t, task.Complete(map[string]any{"sent": true, "token": "xyz"}))
	require.NoError(t, store.Update(ctx, task))

	// The caller's task is untouched.
	pw, _ := task.Action.Parameters.Get("user_password")
	assert.Equal(t, "secret123", pw)
	assert.Equal(t, "xyz", task.Result.(map[string]any)["token"])

	stored, err := underlying.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"to", "user_password", "auth"}, stored.Action.Parameters.Keys())
	assert.Equal(t, "ops", stored.Action.Parameters.String("to"))
	assert.Equal(t, persistence.Mask, stored.Action.Parameters.String("user_password"))
	auth, _ := stored.Action.Parameters.Get("auth")
	assert.Equal(t, map[string]any{"token": persistence.Mask, "scheme": "bearer"}, auth)
	assert.Equal(t, map[string]any{"sent": true, "token": persistence.Mask}, stored.Result)
}

func TestRedact_InvalidPattern(t *testing.T) {
	_, err := persistence.Redact("([")
	assert.ErrorContains(t, err, "invalid redaction pattern")
}

func TestRedact_WithEngine(t *testing.T) {
	mw, err := persistence.Redact("^body$")
	require.NoError(t, err)
	eng, err := switchboard.New(
		switchboard.WithBridge(memory.NewBridge().Returns("send_message", "queued")),
		switchboard.WithTaskStore(persistence.Chain(memory.NewStore(), mw)),
	)
	require.NoError(t, err)
	defer eng.Close()

	ctx := context.Background()
	task := eng.ProcessText(ctx, `{"action":"inbox.send","parameters":{"body":"hello"}}`)
	require.Equal(t, domain.TaskCompleted, task.Status)
	assert.Equal(t, "hello", task.Action.Parameters.String("body"))

	stored, err := eng.Task(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.Mask, stored.Action.Parameters.String("body"))
}
