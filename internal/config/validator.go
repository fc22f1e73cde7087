package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/switchboard/internal/logging"
)

// ValidationError is a single rejected field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every rejected field.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks every section and returns all problems found (nil when valid).
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level", c.Log.Level, "must be one of debug, info, warn, error")
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		add("log.format", c.Log.Format, "must be text or json")
	}

	if c.Orchestrator.MaxConcurrentHandlers < 1 {
		add("orchestrator.max_concurrent_handlers", c.Orchestrator.MaxConcurrentHandlers, "must be at least 1")
	}
	if c.Orchestrator.MaxIntentBytes < 0 {
		add("orchestrator.max_intent_bytes", c.Orchestrator.MaxIntentBytes, "must not be negative")
	}
	if c.Orchestrator.HandlerTimeout < 0 {
		add("orchestrator.handler_timeout", c.Orchestrator.HandlerTimeout, "must not be negative")
	}

	if c.Router.MaxDepth < 0 {
		add("router.max_depth", c.Router.MaxDepth, "must not be negative")
	}

	if !slices.Contains([]string{BridgeMemory, BridgeProcess, BridgeHTTP}, c.Bridge.Kind) {
		add("bridge.kind", c.Bridge.Kind, "must be memory, process or http")
	}
	if c.Bridge.Kind == BridgeHTTP && c.Bridge.URL == "" {
		add("bridge.url", c.Bridge.URL, "is required when bridge.kind is http")
	}
	if c.Bridge.Timeout < 0 {
		add("bridge.timeout", c.Bridge.Timeout, "must not be negative")
	}

	if !slices.Contains([]string{StoreMemory, StoreSQLite, StoreRedis}, c.Store.Kind) {
		add("store.kind", c.Store.Kind, "must be memory, sqlite or redis")
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			add("store.redact", p, "must be a valid regular expression")
		}
	}
	if c.Store.TTL < 0 {
		add("store.ttl", c.Store.TTL, "must not be negative")
	}
	if (c.Store.Kind == StoreRedis || c.Redis.Channel != "") && c.Redis.Addr == "" {
		add("redis.addr", c.Redis.Addr, "is required by the redis store and relay")
	}

	switch c.Generator.Kind {
	case GeneratorPassthrough:
	case GeneratorGenAI:
		if c.Generator.APIKey == "" {
			add("generator.api_key", "", "is required when generator.kind is genai")
		}
	default:
		add("generator.kind", c.Generator.Kind, "must be passthrough or genai")
	}

	return errs
}
