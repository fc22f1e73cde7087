package runner

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/events"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (REPL) and JSON (NDJSON) modes.
type IOHandler interface {
	// Input reads the next intent. io.EOF ends the session.
	Input(ctx context.Context) (string, error)

	// Output presents a resolved task.
	Output(ctx context.Context, task *domain.Task) error

	// SystemOutput presents a meta-message (chained tasks, prompts, notices).
	// This is distinct from task rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// Processor is the part of the engine the runner drives.
type Processor interface {
	ProcessText(ctx context.Context, text string) *domain.Task
	On(eventType domain.EventType, listener events.Listener) events.Token
	Off(tok events.Token) bool
	Wait()
}
