package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietConfig() *config.Config {
	cfg := config.Default()
	cfg.Log.Level = "error"
	return cfg
}

func TestRunSession_JSON(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"action":"open_app","parameters":{"app":"calc"}}`,
		`"not an intent"`,
		`exit`,
	}, "\n") + "\n")
	var out bytes.Buffer

	err := RunSession(context.Background(), RunOptions{
		Config:   quietConfig(),
		JSON:     true,
		Headless: true,
		Input:    in,
		Output:   &out,
	})
	require.NoError(t, err)

	var tasks []domain.Task
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var task domain.Task
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &task))
		tasks = append(tasks, task)
	}
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskCompleted, tasks[0].Status)
	assert.Equal(t, domain.TaskFailed, tasks[1].Status)
	assert.Equal(t, domain.KindParse, tasks[1].Error.Kind)
}

func TestRunSession_Interactive(t *testing.T) {
	in := strings.NewReader("{\"action\":\"vault.list\",\"parameters\":{}}\nquit\n")
	var out bytes.Buffer

	err := RunSession(context.Background(), RunOptions{
		Config:  quietConfig(),
		Version: "9.9.9",
		Input:   in,
		Output:  &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "v9.9.9")
	assert.Contains(t, out.String(), "[completed] vault.list")
	assert.Contains(t, out.String(), ">>> Bye!")
}

func TestRunSession_Confirmation(t *testing.T) {
	cfg := quietConfig()
	cfg.Bridge.Confirm = true
	in := strings.NewReader("{\"action\":\"vault.list\",\"parameters\":{}}\nn\nexit\n")
	var out bytes.Buffer

	err := RunSession(context.Background(), RunOptions{Config: cfg, Input: in, Output: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Run 'vault.list'")
	assert.Contains(t, out.String(), "[failed] vault.list")
}

func TestExec(t *testing.T) {
	t.Run("Chain", func(t *testing.T) {
		var out bytes.Buffer
		err := Exec(context.Background(), `{"action":"vault.smartTags","parameters":{"path":"notes"}}`, RunOptions{
			Config: quietConfig(),
			JSON:   true,
			Output: &out,
		})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"vault.smartTags"`)
		assert.Contains(t, lines[1], `"inbox.send"`)
	})

	t.Run("Failure", func(t *testing.T) {
		var out bytes.Buffer
		err := Exec(context.Background(), `{"action":"nope.nothing","parameters":{}}`, RunOptions{Config: quietConfig(), Output: &out})
		require.ErrorIs(t, err, ErrTaskFailed)
		assert.ErrorIs(t, err, domain.ErrUnknownAction)
		assert.Contains(t, out.String(), "[failed]")
	})

	t.Run("Rejected input", func(t *testing.T) {
		err := Exec(context.Background(), "bad\xffinput", RunOptions{Config: quietConfig(), Output: &bytes.Buffer{}})
		assert.ErrorContains(t, err, "input rejected")
	})

	t.Run("Oversized input", func(t *testing.T) {
		cfg := quietConfig()
		cfg.Orchestrator.MaxIntentBytes = 16
		err := Exec(context.Background(), `{"action":"vault.list","parameters":{}}`, RunOptions{Config: cfg, Output: &bytes.Buffer{}})
		assert.ErrorIs(t, err, runner.ErrInputTooLarge)
	})
}

func TestServe(t *testing.T) {
	cfg := quietConfig()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Metrics.Enabled = true

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, RunOptions{Config: cfg, Version: "test"}, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get("http://" + addr + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeMCP_UnknownTransport(t *testing.T) {
	err := ServeMCP(context.Background(), RunOptions{Config: quietConfig()}, "carrier-pigeon", "")
	assert.ErrorContains(t, err, "unknown transport")
}
