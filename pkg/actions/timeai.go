package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
)

// Bridge commands used by the timeai namespace.
const (
	CmdSaveEvent  = "save_event"
	CmdLoadEvents = "load_events"
)

// TimeAI exposes calendar operations: add_event and list_events.
// add_event forwards its parameters untouched as the event record.
func TimeAI(bridge ports.Bridge) registry.Namespace {
	return registry.Namespace{
		Name: "timeai",
		Verbs: map[string]registry.Handler{
			"add_event": registry.HandlerFunc(func(ctx context.Context, params domain.Parameters) (any, error) {
				if params.Len() == 0 {
					return nil, fmt.Errorf("%w: event fields are required", ErrInvalidParams)
				}
				return bridge.Invoke(ctx, CmdSaveEvent, map[string]any{"event": params.Map()})
			}),
			"list_events": registry.HandlerFunc(func(ctx context.Context, _ domain.Parameters) (any, error) {
				return bridge.Invoke(ctx, CmdLoadEvents, map[string]any{})
			}),
		},
	}
}
