package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Submitter accepts intents derived from a previous task.
type Submitter interface {
	ProcessChained(ctx context.Context, intent domain.Intent, chain domain.ChainRef) *domain.Task
}
