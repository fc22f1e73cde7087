package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/switchboard/pkg/adapters/process"
	"github.com/aretw0/switchboard/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestBridge_Contract(t *testing.T) {
	skipOnWindows(t)
	b := process.NewBridge()
	b.Register("echo", "sh", "-c", "echo $SWITCHBOARD_ARG_MESSAGE")
	tests.BridgeContractTest(t, b)
}

func TestBridge_Invoke(t *testing.T) {
	skipOnWindows(t)
	b := process.NewBridge()
	b.Register("copy_file", "sh", "-c", `printf '{"src":"%s","dest":"%s"}' "$SWITCHBOARD_ARG_SRC" "$SWITCHBOARD_ARG_DEST"`)
	b.Register("save_event", "sh", "-c", "echo $SWITCHBOARD_ARG_EVENT")
	b.Register("stdin", "cat")
	b.Register("fail", "sh", "-c", "echo nope >&2; exit 3")

	ctx := context.Background()

	t.Run("Decodes JSON Output", func(t *testing.T) {
		res, err := b.Invoke(ctx, "copy_file", map[string]any{"src": "a.txt", "dest": "b.txt"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"src": "a.txt", "dest": "b.txt"}, res)
	})

	t.Run("Complex Args As JSON", func(t *testing.T) {
		res, err := b.Invoke(ctx, "save_event", map[string]any{"event": map[string]any{"id": 1}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": int64(1)}, res)
	})

	t.Run("Numbers Match Parsed Intents", func(t *testing.T) {
		res, err := b.Invoke(ctx, "stdin", map[string]any{"n": int64(9007199254740993), "ratio": 0.25})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"n": int64(9007199254740993), "ratio": 0.25}, res)
	})

	t.Run("Args On Stdin", func(t *testing.T) {
		res, err := b.Invoke(ctx, "stdin", map[string]any{"path": "."})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"path": "."}, res)
	})

	t.Run("Non-Zero Exit", func(t *testing.T) {
		_, err := b.Invoke(ctx, "fail", nil)
		var exitErr *process.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Contains(t, err.Error(), "exit status 3")
		assert.Contains(t, err.Error(), "nope")
	})

	t.Run("Not Allowed", func(t *testing.T) {
		_, err := b.Invoke(ctx, "rm_rf", nil)
		assert.ErrorIs(t, err, process.ErrNotAllowed)
	})

	assert.Equal(t, []string{"copy_file", "fail", "save_event", "stdin"}, b.Commands())
}

func TestLoadCommands(t *testing.T) {
	dir := t.TempDir()

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "bridge.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
commands:
  - name: list_dir
    command: ls
    args: ["-1"]
    description: List a directory
  - command: ignored-without-name
`), 0o644))

		cmds, err := process.LoadCommands(path)
		require.NoError(t, err)
		require.Len(t, cmds, 1)
		assert.Equal(t, "ls", cmds["list_dir"].Command)
		assert.Equal(t, []string{"-1"}, cmds["list_dir"].Args)
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "bridge.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"commands":[{"name":"x","command":"true"}]}`), 0o644))
		cmds, err := process.LoadCommands(path)
		require.NoError(t, err)
		assert.Contains(t, cmds, "x")
	})

	t.Run("Missing Executable", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("commands:\n  - name: x\n"), 0o644))
		_, err := process.LoadCommands(path)
		assert.ErrorContains(t, err, "no executable")
	})

	t.Run("Missing File", func(t *testing.T) {
		cmds, err := process.LoadCommands(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Empty(t, cmds)
	})
}
