package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, bridge *memory.Bridge, opts ...switchboard.Option) *switchboard.Engine {
	t.Helper()
	eng, err := switchboard.New(append([]switchboard.Option{switchboard.WithBridge(bridge)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		lines = append(lines, m)
	}
	return lines
}

func TestRunner_ProcessesEachLine(t *testing.T) {
	bridge := memory.NewBridge().Returns("copy_file", "copied")
	eng := newEngine(t, bridge)

	in := strings.NewReader(strings.Join([]string{
		`{"action":"vault.copy","parameters":{"src":"a","dest":"b"}}`,
		``,
		`"not an intent"`,
		`exit`,
		`{"action":"vault.copy","parameters":{"src":"never","dest":"run"}}`,
	}, "\n"))
	out := &bytes.Buffer{}

	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(in, out)), runner.WithHeadless(true))
	require.NoError(t, r.Run(context.Background(), eng))

	lines := decodeLines(t, out.String())
	require.Len(t, lines, 2)
	assert.Equal(t, "completed", lines[0]["status"])
	assert.Equal(t, "copied", lines[0]["result"])
	assert.Equal(t, "failed", lines[1]["status"])
	assert.Len(t, bridge.CallsTo("copy_file"), 1)
}

func TestRunner_ReportsFollowUps(t *testing.T) {
	bridge := memory.NewBridge().
		Returns("smart_tags", []any{"tagA", "tagB"}).
		Returns("send_message", "sent")
	eng := newEngine(t, bridge)

	in := strings.NewReader(`{"action":"vault.smartTags","parameters":{"path":"notes.md"}}` + "\n")
	out := &bytes.Buffer{}

	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(in, out)))
	require.NoError(t, r.Run(context.Background(), eng))

	// The follow-up may resolve before the trigger is printed.
	var task, notice map[string]any
	for _, line := range decodeLines(t, out.String()) {
		if _, ok := line["notice"]; ok {
			notice = line
		} else {
			task = line
		}
	}
	require.NotNil(t, task)
	require.NotNil(t, notice)
	assert.Equal(t, "completed", task["status"])
	assert.Contains(t, notice["notice"], "follow-up inbox.send")
	assert.Contains(t, notice["notice"], "completed")
}

func TestRunner_StopsOnCancel(t *testing.T) {
	eng := newEngine(t, memory.NewBridge())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader("x\n"), &bytes.Buffer{})))
	assert.NoError(t, r.Run(ctx, eng))
}
