package tests

import (
	"context"
	"testing"

	"github.com/aretw0/switchboard/pkg/ports"
)

// BridgeContractTest verifies that a Bridge adapter answers the "echo" command with its
// arguments and reports unknown commands as errors. Adapters under test must be set up
// to serve an "echo" command that returns args["message"].
func BridgeContractTest(t *testing.T, bridge ports.Bridge) {
	t.Helper()
	ctx := context.Background()

	t.Run("Invoke_Success", func(t *testing.T) {
		res, err := bridge.Invoke(ctx, "echo", map[string]any{"message": "hello"})
		if err != nil {
			t.Fatalf("unexpected error invoking echo: %v", err)
		}
		if res != "hello" {
			t.Errorf("result mismatch: got %#v, want %q", res, "hello")
		}
	})

	t.Run("Invoke_Unknown", func(t *testing.T) {
		_, err := bridge.Invoke(ctx, "no-such-command", nil)
		if err == nil {
			t.Error("expected error for unknown command, got nil")
		}
	})
}
