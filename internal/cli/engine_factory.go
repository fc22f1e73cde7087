package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/pkg/actions"
	"github.com/aretw0/switchboard/pkg/adapters/genai"
	sbhttp "github.com/aretw0/switchboard/pkg/adapters/http"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/adapters/process"
	sbredis "github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/adapters/sqlite"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/aretw0/switchboard/pkg/persistence"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/aretw0/switchboard/pkg/router"
	"github.com/redis/go-redis/v9"
)

// Stack is an engine together with the adapters built for it.
type Stack struct {
	Engine  *switchboard.Engine
	Metrics *observability.Metrics
	Bridge  ports.Bridge
	Store   ports.TaskStore // unwrapped; writes reach it after redaction
	Relay   *sbredis.Relay

	closers []func() error
}

// Close stops the engine first, then releases adapters in reverse creation order.
func (s *Stack) Close() error {
	var errs []error
	if s.Engine != nil {
		errs = append(errs, s.Engine.Close())
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// createEngine builds the engine described by cfg. extra options are applied last.
func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...switchboard.Option) (*Stack, error) {
	stack := &Stack{}
	fail := func(err error) (*Stack, error) {
		_ = stack.Close()
		return nil, err
	}

	bridge, err := createBridge(cfg.Bridge, logger)
	if err != nil {
		return fail(err)
	}
	stack.Bridge = bridge

	var client *redis.Client
	redisClient := func() *redis.Client {
		if client == nil {
			client = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
			stack.closers = append(stack.closers, client.Close)
		}
		return client
	}

	store, err := createStore(cfg, redisClient)
	if err != nil {
		return fail(err)
	}
	stack.Store = store
	if c, ok := store.(interface{ Close() error }); ok {
		stack.closers = append(stack.closers, c.Close)
	}

	if len(cfg.Store.Redact) > 0 {
		redact, err := persistence.Redact(cfg.Store.Redact...)
		if err != nil {
			return fail(err)
		}
		store = persistence.Chain(store, redact)
	}

	opts := []switchboard.Option{
		switchboard.WithLogger(logger),
		switchboard.WithBridge(bridge),
		switchboard.WithTaskStore(store),
		switchboard.WithMaxConcurrentHandlers(cfg.Orchestrator.MaxConcurrentHandlers),
		switchboard.WithMaxIntentBytes(cfg.Orchestrator.MaxIntentBytes),
		switchboard.WithHandlerTimeout(cfg.Orchestrator.HandlerTimeout),
		switchboard.WithLifecycleHooks(observability.LogHooks(logger)),
	}

	if cfg.Metrics.Enabled {
		stack.Metrics = observability.NewMetrics()
		opts = append(opts, switchboard.WithLifecycleHooks(stack.Metrics.Hooks()))
	}

	if cfg.Router.Enabled {
		opts = append(opts, switchboard.WithMaxDepth(cfg.Router.MaxDepth))
		if cfg.Router.RulesFile != "" {
			rules, err := router.LoadRules(cfg.Router.RulesFile)
			if err != nil {
				return fail(err)
			}
			opts = append(opts, switchboard.WithRules(rules...))
		}
	} else {
		opts = append(opts, switchboard.WithoutRouter())
	}

	if cfg.Generator.Kind == config.GeneratorGenAI {
		names, err := builtinActions()
		if err != nil {
			return fail(err)
		}
		gen, err := genai.New(ctx, cfg.Generator.APIKey,
			genai.WithModel(cfg.Generator.Model),
			genai.WithActions(names...),
			genai.WithLogger(logger),
		)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, switchboard.WithGenerator(gen))
	}

	opts = append(opts, extra...)
	stack.Engine, err = switchboard.New(opts...)
	if err != nil {
		return fail(fmt.Errorf("error initializing engine: %w", err))
	}

	if cfg.Redis.Channel != "" {
		stack.Relay = sbredis.NewRelay(redisClient(),
			sbredis.WithChannel(cfg.Redis.Channel),
			sbredis.WithRelayLogger(logger),
		)
		tok := stack.Engine.On(domain.EventAny, stack.Relay.Forward)
		relay := stack.Relay
		stack.closers = append(stack.closers, func() error {
			stack.Engine.Off(tok)
			relay.Close()
			return nil
		})
	}

	return stack, nil
}

func createBridge(cfg config.BridgeConfig, logger *slog.Logger) (ports.Bridge, error) {
	switch cfg.Kind {
	case config.BridgeProcess:
		commands, err := process.LoadCommands(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		if len(commands) == 0 {
			logger.Warn("process bridge has no commands", "config_file", cfg.ConfigFile)
		}
		return process.NewBridge(
			process.WithCommands(commands),
			process.WithBaseDir(filepath.Dir(cfg.ConfigFile)),
			process.WithTimeout(cfg.Timeout),
		), nil
	case config.BridgeHTTP:
		return sbhttp.NewBridge(cfg.URL, sbhttp.WithBridgeTimeout(cfg.Timeout)), nil
	default:
		return memory.NewBridge(memory.WithFallback(dryRun)), nil
	}
}

// dryRun answers every command without side effects, echoing what would have run.
func dryRun(ctx context.Context, command string, args map[string]any) (any, error) {
	return fmt.Sprintf("dry-run %s %v", command, args), nil
}

func createStore(cfg *config.Config, client func() *redis.Client) (ports.TaskStore, error) {
	switch cfg.Store.Kind {
	case config.StoreSQLite:
		return sqlite.Open(cfg.Store.DSN)
	case config.StoreRedis:
		opts := []sbredis.StoreOption{sbredis.WithTTL(cfg.Store.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, sbredis.WithPrefix(cfg.Redis.Prefix))
		}
		return sbredis.NewFromClient(client(), opts...), nil
	default:
		return memory.NewStore(), nil
	}
}

// builtinActions lists the names the generator may emit.
func builtinActions() ([]string, error) {
	table, err := registry.Build(actions.Builtins(memory.NewBridge(), nil, nil)...)
	if err != nil {
		return nil, err
	}
	return table.Names(), nil
}
