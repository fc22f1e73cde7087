package cli

import (
	"context"
	"fmt"

	sbhttp "github.com/aretw0/switchboard/pkg/adapters/http"
)

// Inventory is what an engine built from the current configuration would expose.
type Inventory struct {
	Actions []string `json:"actions"`
	Rules   []string `json:"rules"`
}

// Inspect builds the engine, reports its actions and rules, and tears it down.
func Inspect(ctx context.Context, opts RunOptions) (Inventory, error) {
	cfg := opts.config()
	stack, err := createEngine(ctx, cfg, createLogger(cfg.Log))
	if err != nil {
		return Inventory{}, err
	}
	defer stack.Close()

	inv := Inventory{Actions: stack.Engine.Actions(), Rules: stack.Engine.Rules()}
	if inv.Rules == nil {
		inv.Rules = []string{}
	}
	return inv, nil
}

// Validate checks that every configured file loads and that the embedded API document is valid.
func Validate(ctx context.Context, opts RunOptions) error {
	if _, err := Inspect(ctx, opts); err != nil {
		return err
	}
	if _, err := sbhttp.LoadSpec(ctx); err != nil {
		return fmt.Errorf("embedded OpenAPI document: %w", err)
	}
	return nil
}
