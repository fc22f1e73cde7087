package ports

import (
	"context"
	"iter"
)

// Generator produces the candidate-action text for an intent, possibly in fragments.
// Consumers stop pulling once they have what they need.
type Generator interface {
	Generate(ctx context.Context, text string) (iter.Seq[string], error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, text string) (iter.Seq[string], error)

func (f GeneratorFunc) Generate(ctx context.Context, text string) (iter.Seq[string], error) {
	return f(ctx, text)
}

// Passthrough treats the intent text itself as the payload.
var Passthrough Generator = GeneratorFunc(func(_ context.Context, text string) (iter.Seq[string], error) {
	return func(yield func(string) bool) {
		yield(text)
	}, nil
})
