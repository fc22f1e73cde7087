package actions

import (
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
)

// Builtins returns every built-in namespace wired to bridge.
// kv and status may be nil; a fresh KV is created and status reports nothing.
func Builtins(bridge ports.Bridge, kv *KV, status StatusFunc) []registry.Namespace {
	if kv == nil {
		kv = NewKV()
	}
	return []registry.Namespace{
		Vault(bridge),
		TimeAI(bridge),
		Inbox(bridge),
		Context(kv),
		Diagnostics(status),
		Apps(),
	}
}
