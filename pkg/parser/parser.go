package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// DefaultMaxBytes bounds a single intent payload.
const DefaultMaxBytes = 64 << 10

// Parser turns untrusted model output into domain.Action values.
// A Parser is stateless and safe for concurrent use.
type Parser struct {
	maxBytes int
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxBytes sets the size guard. Values <= 0 keep the default.
func WithMaxBytes(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxBytes returns the configured size guard.
func (p *Parser) MaxBytes() int {
	return p.maxBytes
}

// Parse extracts the first JSON object from raw and validates it as an Action.
// Leading prose is skipped and trailing text after the object is ignored.
func (p *Parser) Parse(raw string) (domain.Action, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Action{}, newError(KindEmpty, "intent is empty", nil)
	}
	if len(raw) > p.maxBytes {
		return domain.Action{}, newError(KindTooLarge, fmt.Sprintf("intent exceeds %d bytes", p.maxBytes), nil)
	}

	var s scanner
	if !s.feed(raw) {
		if !s.started {
			return domain.Action{}, newError(KindSyntax, "no JSON object found", nil)
		}
		return domain.Action{}, newError(KindTruncated, "JSON object is incomplete", nil)
	}
	return decode(s.object())
}

// ParseStream pulls fragments from seq until one complete object is assembled.
// Fragments after the object are never pulled, so at most one Action results from a stream.
// It returns the consumed text alongside the action for diagnostics.
func (p *Parser) ParseStream(ctx context.Context, seq iter.Seq[string]) (domain.Action, string, error) {
	var (
		s        scanner
		consumed strings.Builder
		complete bool
		perr     *Error
	)

	for frag := range seq {
		if err := ctx.Err(); err != nil {
			perr = newError(KindSource, "stream cancelled", err)
			break
		}
		consumed.WriteString(frag)
		if s.feed(frag) {
			complete = true
			break
		}
		if s.size() > p.maxBytes || consumed.Len() > p.maxBytes {
			perr = newError(KindTooLarge, fmt.Sprintf("stream exceeds %d bytes", p.maxBytes), nil)
			break
		}
	}

	text := consumed.String()
	if perr != nil {
		return domain.Action{}, text, perr
	}
	if !complete {
		switch {
		case strings.TrimSpace(text) == "":
			return domain.Action{}, text, newError(KindEmpty, "stream produced no content", nil)
		case !s.started:
			return domain.Action{}, text, newError(KindSyntax, "no JSON object found", nil)
		default:
			return domain.Action{}, text, newError(KindTruncated, "stream ended before the JSON object closed", nil)
		}
	}
	if len(s.object()) > p.maxBytes {
		return domain.Action{}, text, newError(KindTooLarge, fmt.Sprintf("intent exceeds %d bytes", p.maxBytes), nil)
	}

	a, err := decode(s.object())
	return a, text, err
}

func decode(obj []byte) (domain.Action, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return domain.Action{}, newError(KindSyntax, "invalid JSON", err)
	}

	rawName, ok := fields["action"]
	if !ok {
		return domain.Action{}, newError(KindMissingField, `"action" is required`, nil)
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return domain.Action{}, newError(KindMissingField, `"action" must be a string`, err)
	}
	if !domain.ValidName(name) {
		return domain.Action{}, newError(KindInvalidName, fmt.Sprintf("%q is not a valid action name", name), nil)
	}

	rawParams, ok := fields["parameters"]
	if !ok || string(rawParams) == "null" {
		return domain.Action{}, newError(KindMissingField, `"parameters" is required`, nil)
	}
	var params domain.Parameters
	if err := json.Unmarshal(rawParams, &params); err != nil {
		if errors.Is(err, domain.ErrNotAnObject) {
			return domain.Action{}, newError(KindMissingField, `"parameters" must be an object`, err)
		}
		return domain.Action{}, newError(KindSyntax, "invalid parameters", err)
	}

	return domain.Action{Name: name, Parameters: params}, nil
}

var defaultParser = New()

// Parse parses raw with the default size guard.
func Parse(raw string) (domain.Action, error) {
	return defaultParser.Parse(raw)
}

// ParseStream parses a fragment stream with the default size guard.
func ParseStream(ctx context.Context, seq iter.Seq[string]) (domain.Action, string, error) {
	return defaultParser.ParseStream(ctx, seq)
}

// KindOf returns the parse failure kind of err, or "" when err is not a parser error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
