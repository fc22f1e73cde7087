package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Server, *switchboard.Engine) {
	t.Helper()
	eng, err := switchboard.New(switchboard.WithBridge(memory.NewBridge().Returns("copy_file", "copied")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return NewServer(eng, "test", nil), eng
}

func TestProcessIntent(t *testing.T) {
	s, _ := newServer(t)
	ctx := context.Background()

	t.Run("Action", func(t *testing.T) {
		res, err := s.handleProcessIntent(ctx, mcp.CallToolRequest{}, map[string]any{
			"action": `{"action":"vault.copy","parameters":{"src":"a","dest":"b"}}`,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskCompleted, res.Task.Status)
		assert.Equal(t, "copied", res.Task.Result)
	})

	t.Run("Text", func(t *testing.T) {
		res, err := s.handleProcessIntent(ctx, mcp.CallToolRequest{}, map[string]any{"text": "hello"})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskFailed, res.Task.Status)
		assert.Equal(t, domain.KindParse, res.Task.Error.Kind)
	})

	t.Run("Rejects", func(t *testing.T) {
		_, err := s.handleProcessIntent(ctx, mcp.CallToolRequest{}, map[string]any{})
		assert.Error(t, err)
		_, err = s.handleProcessIntent(ctx, mcp.CallToolRequest{}, map[string]any{"text": "a", "action": "{}"})
		assert.Error(t, err)
		_, err = s.handleProcessIntent(ctx, mcp.CallToolRequest{}, map[string]any{"action": "["})
		assert.Error(t, err)
	})
}

func TestGetTask(t *testing.T) {
	s, eng := newServer(t)
	ctx := context.Background()
	task := eng.ProcessText(ctx, `{"action":"open_app","parameters":{"app":"calc"}}`)

	res, err := s.handleGetTask(ctx, mcp.CallToolRequest{}, map[string]any{"id": task.ID})
	require.NoError(t, err)
	assert.Equal(t, task.ID, res.Task.ID)

	_, err = s.handleGetTask(ctx, mcp.CallToolRequest{}, map[string]any{"id": "missing"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestToolsAndResources(t *testing.T) {
	s, eng := newServer(t)
	ctx := context.Background()
	eng.ProcessText(ctx, `{"action":"open_app","parameters":{"app":"calc"}}`)

	resp := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"process_intent", "get_task", "list_actions"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}

	resp = s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"switchboard://tasks"}}`))
	raw, err = json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `open_app`)
}
