package actions

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
)

// Bridge commands used by the inbox namespace.
const (
	CmdSendMessage      = "send_message"
	CmdGetMessages      = "get_messages"
	CmdSummarizeMessage = "summarize_message"
)

type sendParams struct {
	Body string `mapstructure:"body"`
	To   string `mapstructure:"to"`
}

type messageParams struct {
	ID string `mapstructure:"id"`
}

// Inbox exposes messaging: send, get_messages and summarize.
func Inbox(bridge ports.Bridge) registry.Namespace {
	return registry.Namespace{
		Name: "inbox",
		Verbs: map[string]registry.Handler{
			"send": registry.HandlerFunc(func(ctx context.Context, params domain.Parameters) (any, error) {
				var p sendParams
				if err := decode(params, &p); err != nil {
					return nil, err
				}
				if err := require("body", p.Body); err != nil {
					return nil, err
				}
				args := map[string]any{"body": p.Body}
				if p.To != "" {
					args["to"] = p.To
				}
				return bridge.Invoke(ctx, CmdSendMessage, args)
			}),
			"get_messages": registry.HandlerFunc(func(ctx context.Context, _ domain.Parameters) (any, error) {
				return bridge.Invoke(ctx, CmdGetMessages, map[string]any{})
			}),
			"summarize": registry.HandlerFunc(func(ctx context.Context, params domain.Parameters) (any, error) {
				// ids may arrive as numbers from the model
				p := messageParams{ID: params.String("id")}
				if err := require("id", p.ID); err != nil {
					return nil, err
				}
				return bridge.Invoke(ctx, CmdSummarizeMessage, map[string]any{"id": p.ID})
			}),
		},
	}
}
