package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
)

// Bridge commands used by the vault namespace.
const (
	CmdListDir   = "list_dir"
	CmdCopyFile  = "copy_file"
	CmdMoveFile  = "move_file"
	CmdSmartTags = "smart_tags"
)

type pathParams struct {
	Path string `mapstructure:"path"`
}

type transferParams struct {
	Src  string `mapstructure:"src"`
	Dest string `mapstructure:"dest"`
}

// Vault exposes file operations: list, copy, move and smartTags.
func Vault(bridge ports.Bridge) registry.Namespace {
	return registry.Namespace{
		Name: "vault",
		Verbs: map[string]registry.Handler{
			"list":      registry.HandlerFunc(vaultList(bridge)),
			"copy":      registry.HandlerFunc(vaultTransfer(bridge, CmdCopyFile)),
			"move":      registry.HandlerFunc(vaultTransfer(bridge, CmdMoveFile)),
			"smartTags": registry.HandlerFunc(vaultSmartTags(bridge)),
		},
	}
}

func vaultList(bridge ports.Bridge) registry.HandlerFunc {
	return func(ctx context.Context, params domain.Parameters) (any, error) {
		var p pathParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.Path == "" {
			p.Path = "."
		}
		return bridge.Invoke(ctx, CmdListDir, map[string]any{"path": p.Path})
	}
}

func vaultTransfer(bridge ports.Bridge, command string) registry.HandlerFunc {
	return func(ctx context.Context, params domain.Parameters) (any, error) {
		var p transferParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if err := require("src", p.Src, "dest", p.Dest); err != nil {
			return nil, err
		}
		return bridge.Invoke(ctx, command, map[string]any{"src": p.Src, "dest": p.Dest})
	}
}

func vaultSmartTags(bridge ports.Bridge) registry.HandlerFunc {
	return func(ctx context.Context, params domain.Parameters) (any, error) {
		var p pathParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if err := require("path", p.Path); err != nil {
			return nil, err
		}
		res, err := bridge.Invoke(ctx, CmdSmartTags, map[string]any{"path": p.Path})
		if err != nil {
			return nil, err
		}
		return tagList(res)
	}
}

// tagList normalises bridge output to []string.
func tagList(res any) ([]string, error) {
	switch v := res.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("smart_tags returned a non-string tag %v", item)
			}
			tags = append(tags, s)
		}
		return tags, nil
	case string:
		if v == "" {
			return []string{}, nil
		}
		return []string{v}, nil
	}
	return nil, fmt.Errorf("smart_tags returned %T, want a list of strings", res)
}
