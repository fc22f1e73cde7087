// Package genai streams intent candidates from Gemini models into the Switchboard parser.
package genai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/aretw0/switchboard/pkg/ports"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// StreamFunc has the shape of (*genai.Models).GenerateContentStream.
type StreamFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

// Generator asks a model to turn free text into one action object and hands the
// streamed fragments to the parser as they arrive.
type Generator struct {
	stream  StreamFunc
	model   string
	actions []string
	logger  *slog.Logger
}

var _ ports.Generator = (*Generator)(nil)

// Option configures the Generator.
type Option func(*Generator)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithActions lists the action names the model may choose from.
func WithActions(names ...string) Option {
	return func(g *Generator) { g.actions = names }
}

// WithLogger sets the generator logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator backed by the Gemini API.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewWithStream(client.Models.GenerateContentStream, opts...), nil
}

// NewWithStream creates a Generator on any stream source.
func NewWithStream(stream StreamFunc, opts ...Option) *Generator {
	g := &Generator{
		stream: stream,
		model:  DefaultModel,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

// Generate starts the model stream. A failure before the first fragment is returned as an
// error; a later failure ends the sequence early and the parser sees a truncated object.
func (g *Generator) Generate(ctx context.Context, text string) (iter.Seq[string], error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.instruction(), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	next, stop := iter.Pull2(g.stream(ctx, g.model, contents, config))
	first, err, ok := next()
	if err != nil {
		stop()
		return nil, fmt.Errorf("model %s: %w", g.model, err)
	}
	if !ok {
		stop()
		return nil, fmt.Errorf("model %s returned no content", g.model)
	}

	return func(yield func(string) bool) {
		defer stop()
		resp := first
		for {
			if chunk := resp.Text(); chunk != "" {
				if !yield(chunk) {
					return
				}
			}
			var err error
			var ok bool
			resp, err, ok = next()
			if !ok {
				return
			}
			if err != nil {
				g.logger.Warn("model stream failed", "model", g.model, "err", err)
				return
			}
		}
	}, nil
}

func (g *Generator) instruction() string {
	var b strings.Builder
	b.WriteString("Translate the user's request into exactly one JSON object of the form ")
	b.WriteString(`{"action": "<namespace.verb>", "parameters": {...}}`)
	b.WriteString(". Reply with the object only.")
	if len(g.actions) > 0 {
		b.WriteString(" Available actions: ")
		b.WriteString(strings.Join(g.actions, ", "))
		b.WriteString(".")
	}
	return b.String()
}
