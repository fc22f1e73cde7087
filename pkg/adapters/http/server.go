package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/events"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine defines the part of the Switchboard engine the API exposes.
type Engine interface {
	ProcessIntent(ctx context.Context, intent domain.Intent) *domain.Task
	Task(ctx context.Context, id string) (*domain.Task, error)
	Tasks(ctx context.Context) ([]*domain.Task, error)
	Actions() []string
	On(eventType domain.EventType, listener events.Listener) events.Token
	Off(tok events.Token) bool
}

// IntentRequest is the body of POST /intents. Exactly one field must be set.
type IntentRequest struct {
	Text   *string        `json:"text,omitempty"`
	Action *domain.Action `json:"action,omitempty"`
}

// Server serves the Switchboard HTTP API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	version string
	metrics http.Handler
	logger  *slog.Logger
	token   events.Token
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the build version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a server and subscribes its stream manager to the engine events.
// Call Close to unsubscribe.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		version: "unknown",
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	s.token = engine.On(domain.EventAny, s.Streams.Publish)
	return s
}

// Close detaches the server from the engine events.
func (s *Server) Close() {
	s.Engine.Off(s.token)
}

// Handler builds the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/intents", s.SubmitIntent)
	r.Get("/tasks", s.ListTasks)
	r.Get("/tasks/{id}", s.GetTask)
	r.Get("/actions", s.ListActions)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(RawSpec())
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SubmitIntent handles POST /intents.
// A task that fails still answers 200: the failure is part of the task.
func (s *Server) SubmitIntent(w http.ResponseWriter, r *http.Request) {
	var body IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SubmitIntent: invalid request body", "err", err)
		return
	}

	var intent domain.Intent
	switch {
	case body.Text != nil && body.Action != nil:
		http.Error(w, "Set either text or action, not both", http.StatusBadRequest)
		return
	case body.Action != nil:
		intent = domain.ActionIntent(*body.Action)
	case body.Text != nil:
		clean, err := runner.SanitizeInput(*body.Text)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
			s.logger.Warn("SubmitIntent: input rejected", "err", err, "size", len(*body.Text))
			return
		}
		intent = domain.TextIntent(clean)
	default:
		http.Error(w, "Missing text or action", http.StatusBadRequest)
		return
	}

	task := s.Engine.ProcessIntent(r.Context(), intent)
	s.writeJSON(w, http.StatusOK, task)
}

// ListTasks handles GET /tasks.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.Engine.Tasks(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("ListTasks failed", "err", err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

// GetTask handles GET /tasks/{id}.
func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.Engine.Task(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Get error: %v", err), http.StatusInternalServerError)
		s.logger.Error("GetTask failed", "err", err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

// ListActions handles GET /actions.
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"actions": s.Engine.Actions()})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := LoadSpec(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "switchboard-http",
		"version":     strings.TrimSpace(s.version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	var types []domain.EventType
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, domain.EventType(t))
			}
		}
	}

	ch, cancel := s.Streams.Subscribe(types...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
