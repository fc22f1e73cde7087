package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ErrNotAllowed is returned for commands missing from the allow-list.
var ErrNotAllowed = errors.New("bridge command not allowed")

// DefaultGracePeriod is how long a cancelled process may take to exit after the interrupt.
const DefaultGracePeriod = 5 * time.Second

// EnvPrefix prefixes every argument passed to a process.
const EnvPrefix = "SWITCHBOARD_ARG_"

// ExitError reports a process that ran but did not succeed.
type ExitError struct {
	Command string
	Err     error
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("bridge command %s failed: %v", e.Command, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Bridge implements ports.Bridge by executing allow-listed local processes.
// Arguments travel as environment variables (never as flags) and as JSON on stdin.
type Bridge struct {
	commands    map[string]CommandConfig
	baseDir     string
	timeout     time.Duration
	gracePeriod time.Duration
}

// Option configures the bridge.
type Option func(*Bridge)

// WithCommands populates the allow-list from a loaded config.
func WithCommands(commands map[string]CommandConfig) Option {
	return func(b *Bridge) {
		for name, c := range commands {
			c.Name = name
			b.commands[name] = c
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(b *Bridge) { b.baseDir = dir }
}

// WithTimeout bounds every invocation. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// WithGracePeriod sets how long to wait after interrupting a cancelled process before killing it.
func WithGracePeriod(d time.Duration) Option {
	return func(b *Bridge) { b.gracePeriod = d }
}

// NewBridge creates a process bridge.
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{
		commands:    make(map[string]CommandConfig),
		gracePeriod: DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a trusted command to the allow-list.
func (b *Bridge) Register(name string, command string, args ...string) {
	b.commands[name] = CommandConfig{Name: name, Command: command, Args: args}
}

// Commands returns the allow-listed command names, sorted.
func (b *Bridge) Commands() []string {
	names := make([]string, 0, len(b.commands))
	for name := range b.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the process registered under command.
// Stdout that looks like JSON is decoded; otherwise the trimmed text is returned.
func (b *Bridge) Invoke(ctx context.Context, command string, args map[string]any) (any, error) {
	cfg, ok := b.commands[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, command)
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	stdin, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("bridge command %s: encode args: %w", command, err)
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = b.baseDir
	cmd.Env = append(cmd.Environ(), b.environment(command, cfg, args)...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return cmd.Process.Kill()
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = b.gracePeriod

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ExitError{Command: command, Err: ctxErr, Stderr: stderr.String()}
		}
		return nil, &ExitError{Command: command, Err: err, Stderr: stderr.String()}
	}

	return decodeOutput(stdout.String()), nil
}

func (b *Bridge) environment(command string, cfg CommandConfig, args map[string]any) []string {
	env := make([]string, 0, len(args)+len(cfg.Environment)+1)
	for k, v := range cfg.Environment {
		env = append(env, k+"="+v)
	}
	env = append(env, "SWITCHBOARD_COMMAND="+command)
	for k, v := range args {
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+formatArg(v))
	}
	return env
}

// formatArg renders primitives as text and everything else as JSON.
func formatArg(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		if raw, err := json.Marshal(v); err == nil {
			return string(raw)
		}
		return fmt.Sprintf("%v", v)
	}
}

func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err == nil && dec.InputOffset() == int64(len(trimmed)) {
			return domain.NormalizeNumbers(v)
		}
	}
	return trimmed
}
