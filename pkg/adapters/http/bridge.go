package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// DefaultBridgeTimeout bounds one remote command.
const DefaultBridgeTimeout = 30 * time.Second

// BridgeRequest is the wire format of one command invocation.
type BridgeRequest struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args"`
}

// BridgeResponse carries either a result or an error message.
type BridgeResponse struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ErrRemote wraps errors reported by the remote bridge.
var ErrRemote = errors.New("remote bridge error")

// StatusError is returned when the bridge endpoint answers with a non-2xx status
// and no decodable error body.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bridge endpoint returned %d: %s", e.Code, e.Body)
}

// Bridge forwards commands to a remote bridge endpoint as JSON over HTTP.
type Bridge struct {
	url    string
	client *http.Client
	header http.Header
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) BridgeOption {
	return func(b *Bridge) { b.client = c }
}

// WithBridgeTimeout sets the client timeout.
func WithBridgeTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) { b.client.Timeout = d }
}

// WithHeader adds a header to every request (e.g. Authorization).
func WithHeader(key, value string) BridgeOption {
	return func(b *Bridge) { b.header.Add(key, value) }
}

// NewBridge creates a bridge that POSTs to url.
func NewBridge(url string, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		url:    url,
		client: &http.Client{Timeout: DefaultBridgeTimeout},
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ ports.Bridge = (*Bridge)(nil)

func (b *Bridge) Invoke(ctx context.Context, command string, args map[string]any) (any, error) {
	payload, err := json.Marshal(BridgeRequest{Command: command, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", command, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header = b.header.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge request %s failed: %w", command, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", command, err)
	}

	var out BridgeResponse
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	decodeErr := dec.Decode(&out)

	if decodeErr == nil && out.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrRemote, command, out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", command, decodeErr)
	}
	return domain.NormalizeNumbers(out.Result), nil
}

// BridgeHandler exposes a local Bridge over the same wire format, so a host process can
// serve OS-level commands to a remote engine.
func BridgeHandler(bridge ports.Bridge, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req BridgeRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil || req.Command == "" {
			writeBridge(w, http.StatusBadRequest, BridgeResponse{Error: "invalid request body"})
			return
		}
		if args, ok := domain.NormalizeNumbers(map[string]any(req.Args)).(map[string]any); ok {
			req.Args = args
		}

		res, err := bridge.Invoke(r.Context(), req.Command, req.Args)
		if err != nil {
			logger.Warn("bridge command failed", "command", req.Command, "err", err)
			writeBridge(w, http.StatusUnprocessableEntity, BridgeResponse{Error: err.Error()})
			return
		}
		writeBridge(w, http.StatusOK, BridgeResponse{Result: res})
	})
}

func writeBridge(w http.ResponseWriter, status int, resp BridgeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
