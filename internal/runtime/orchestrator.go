package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/events"
	"github.com/aretw0/switchboard/pkg/parser"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Orchestrator turns intents into dispatched actions and tracked tasks.
// ProcessIntent never returns an error: every outcome is recorded on the Task.
type Orchestrator struct {
	table     *registry.Table
	store     ports.TaskStore
	bus       *events.Bus
	parser    *parser.Parser
	generator ports.Generator

	maxHandlers int64
	sem         *semaphore.Weighted

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	newID  func() string
}

// NewOrchestrator wires the orchestrator. table, store and bus are required.
func NewOrchestrator(table *registry.Table, store ports.TaskStore, bus *events.Bus, opts ...Option) (*Orchestrator, error) {
	if table == nil {
		return nil, errors.New("dispatch table is required")
	}
	if store == nil {
		return nil, errors.New("task store is required")
	}
	if bus == nil {
		return nil, errors.New("event bus is required")
	}

	o := &Orchestrator{
		table:       table,
		store:       store,
		bus:         bus,
		parser:      parser.New(),
		generator:   ports.Passthrough,
		maxHandlers: 1,
		logger:      slog.New(slog.DiscardHandler),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sem = semaphore.NewWeighted(o.maxHandlers)
	return o, nil
}

// ProcessIntent runs an externally submitted intent to completion.
func (o *Orchestrator) ProcessIntent(ctx context.Context, intent domain.Intent) *domain.Task {
	return o.ProcessChained(ctx, intent, domain.ChainRef{})
}

// ProcessChained runs an intent carrying chain metadata (depth, parent, root).
// It blocks until the task is terminal and returns a snapshot of it.
func (o *Orchestrator) ProcessChained(ctx context.Context, intent domain.Intent, chain domain.ChainRef) *domain.Task {
	task := domain.NewTask(o.newID(), intent.Source(), chain)
	if task.Chain.RootID == "" {
		task.Chain.RootID = task.ID
	}
	log := o.logger.With("task_id", task.ID, "depth", task.Chain.Depth)

	if err := o.store.Insert(context.WithoutCancel(ctx), task); err != nil {
		log.Warn("task store insert failed", "err", err)
	}
	_ = task.Start()
	o.save(ctx, task, log)

	if o.hooks.OnTaskStart != nil {
		o.hooks.OnTaskStart(ctx, task.Snapshot())
	}
	o.bus.Publish(domain.EventTaskStarted, domain.TaskEvent{TaskID: task.ID, Chain: task.Chain})
	log.Debug("task started", "source", task.SourceText)

	action, source, err := o.resolve(ctx, intent)
	if source != "" && task.SourceText == "" {
		task.SourceText = source
	}
	if err != nil {
		return o.fail(ctx, task, domain.NewTaskError(domain.KindParse, string(parser.KindOf(err)), err), log)
	}

	task.Action = &action
	o.save(ctx, task, log)
	log = log.With("action", action.Name)
	o.bus.Publish(domain.EventAction, domain.ActionEvent{TaskID: task.ID, Action: action.Clone()})

	handler, ok := o.table.Lookup(action.Name)
	if !ok {
		cause := fmt.Errorf("no handler registered for %q", action.Name)
		return o.fail(ctx, task, domain.NewTaskError(domain.KindUnknownAction, "", cause), log)
	}

	result, err := o.execute(ctx, task, handler, action)
	if err != nil {
		return o.fail(ctx, task, domain.NewTaskError(domain.KindHandler, "", err), log)
	}

	_ = task.Complete(result)
	o.save(ctx, task, log)
	o.resolved(ctx, task)
	log.Info("task completed", "status", task.Status)

	o.bus.Publish(domain.EventTaskCompleted, domain.TaskEvent{
		TaskID: task.ID,
		Action: cloneAction(task.Action),
		Result: task.Result,
		Chain:  task.Chain,
	})
	if domain.IsLaunchAction(action.Name) {
		if app, ok := action.Parameters.Get(domain.ParamApp); ok {
			if name, ok := app.(string); ok && name != "" {
				o.bus.Publish(domain.EventLaunch, domain.LaunchEvent{
					App:    name,
					Params: action.Parameters.Clone(),
					TaskID: task.ID,
				})
			}
		}
	}

	return task.Snapshot()
}

// resolve produces the action for an intent and the raw text it was parsed from.
func (o *Orchestrator) resolve(ctx context.Context, intent domain.Intent) (domain.Action, string, error) {
	switch {
	case intent.Action != nil:
		if !domain.ValidName(intent.Action.Name) {
			return domain.Action{}, "", &parser.Error{Kind: parser.KindInvalidName, Msg: fmt.Sprintf("%q is not a valid action name", intent.Action.Name)}
		}
		return intent.Action.Clone(), "", nil

	case intent.Stream != nil:
		return o.parser.ParseStream(ctx, intent.Stream)

	default:
		seq, err := o.generator.Generate(ctx, intent.Text)
		if err != nil {
			return domain.Action{}, "", &parser.Error{Kind: parser.KindSource, Msg: "generator failed", Err: err}
		}
		action, _, err := o.parser.ParseStream(ctx, seq)
		return action, "", err
	}
}

// execute runs the handler under the concurrency limit.
// Handlers are not cancelled once started, so they get a context detached from the caller.
func (o *Orchestrator) execute(ctx context.Context, task *domain.Task, h registry.Handler, action domain.Action) (any, error) {
	hctx := context.WithoutCancel(ctx)
	if err := o.sem.Acquire(hctx, 1); err != nil {
		return nil, err
	}

	evt := &domain.HandlerEvent{TaskID: task.ID, Action: action.Name}
	if o.hooks.OnHandlerCall != nil {
		o.hooks.OnHandlerCall(ctx, evt)
	}

	start := time.Now()
	result, err := registry.Recover()(action.Name, h).Handle(hctx, action.Parameters.Clone())
	o.sem.Release(1)

	evt.Duration = time.Since(start)
	evt.Err = err
	if o.hooks.OnHandlerReturn != nil {
		o.hooks.OnHandlerReturn(ctx, evt)
	}
	return result, err
}

func (o *Orchestrator) fail(ctx context.Context, task *domain.Task, terr *domain.TaskError, log *slog.Logger) *domain.Task {
	_ = task.Fail(terr)
	o.save(ctx, task, log)
	o.resolved(ctx, task)
	log.Warn("task failed", "kind", terr.Kind, "subtype", terr.Subtype, "err", terr.Cause)

	o.bus.Publish(domain.EventTaskFailed, domain.TaskEvent{
		TaskID: task.ID,
		Action: cloneAction(task.Action),
		Error:  terr,
		Chain:  task.Chain,
	})
	return task.Snapshot()
}

func (o *Orchestrator) resolved(ctx context.Context, task *domain.Task) {
	if o.hooks.OnTaskResolve != nil {
		o.hooks.OnTaskResolve(ctx, task.Snapshot())
	}
}

func (o *Orchestrator) save(ctx context.Context, task *domain.Task, log *slog.Logger) {
	if err := o.store.Update(context.WithoutCancel(ctx), task); err != nil {
		log.Warn("task store update failed", "err", err)
	}
}

// Task returns a snapshot of one task.
func (o *Orchestrator) Task(ctx context.Context, id string) (*domain.Task, error) {
	return o.store.Get(ctx, id)
}

// Tasks returns snapshots of every task in creation order.
func (o *Orchestrator) Tasks(ctx context.Context) ([]*domain.Task, error) {
	return o.store.List(ctx)
}

// Actions returns the registered action names.
func (o *Orchestrator) Actions() []string {
	return o.table.Names()
}

func cloneAction(a *domain.Action) *domain.Action {
	if a == nil {
		return nil
	}
	c := a.Clone()
	return &c
}
