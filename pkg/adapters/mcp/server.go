package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TasksURI is the resource listing every task of the session.
const TasksURI = "switchboard://tasks"

// TaskResponse wraps a task for structured tool output.
type TaskResponse struct {
	Task *domain.Task `json:"task" jsonschema_description:"The task as recorded by the engine"`
}

// Engine defines the interface required by the MCP server.
type Engine interface {
	ProcessIntent(ctx context.Context, intent domain.Intent) *domain.Task
	Task(ctx context.Context, id string) (*domain.Task, error)
	Tasks(ctx context.Context) ([]*domain.Task, error)
	Actions() []string
}

// Server exposes the Switchboard engine as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("switchboard-mcp", strings.TrimSpace(version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server (for custom transports and tests).
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{Addr: addr, Handler: mux}
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("process_intent",
		mcp.WithDescription("Submit an intent and wait for its task to resolve. Pass either free text or an action object."),
		mcp.WithString("text", mcp.Description("Free text or a raw JSON intent")),
		mcp.WithString("action", mcp.Description(`JSON object {"action": "namespace.verb", "parameters": {...}}`)),
		mcp.WithOutputSchema[TaskResponse](),
	), mcp.NewStructuredToolHandler(s.handleProcessIntent))

	s.mcpServer.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a task by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
		mcp.WithOutputSchema[TaskResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetTask))

	s.mcpServer.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List the registered action names."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.engine.Actions())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleProcessIntent(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TaskResponse, error) {
	text, _ := args["text"].(string)
	raw, _ := args["action"].(string)

	var intent domain.Intent
	switch {
	case text != "" && raw != "":
		return TaskResponse{}, errors.New("set either text or action, not both")
	case raw != "":
		var action domain.Action
		if err := json.Unmarshal([]byte(raw), &action); err != nil {
			return TaskResponse{}, fmt.Errorf("invalid action object: %w", err)
		}
		intent = domain.ActionIntent(action)
	case text != "":
		clean, err := runner.SanitizeInput(text)
		if err != nil {
			s.logger.Warn("MCP process_intent: input rejected", "err", err, "size", len(text))
			return TaskResponse{}, fmt.Errorf("input rejected: %w", err)
		}
		intent = domain.TextIntent(clean)
	default:
		return TaskResponse{}, errors.New("missing text or action")
	}

	return TaskResponse{Task: s.engine.ProcessIntent(ctx, intent)}, nil
}

func (s *Server) handleGetTask(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TaskResponse, error) {
	id, _ := args["id"].(string)
	task, err := s.engine.Task(ctx, id)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: task}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TasksURI, "Session Tasks",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		tasks, err := s.engine.Tasks(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}
		if tasks == nil {
			tasks = []*domain.Task{}
		}
		jsonBytes, _ := json.Marshal(tasks)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TasksURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
