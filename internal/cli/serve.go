package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	sbhttp "github.com/aretw0/switchboard/pkg/adapters/http"
	"github.com/aretw0/switchboard/pkg/adapters/mcp"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Serve exposes the engine over HTTP until ctx is cancelled.
// If ready is not nil it receives the bound address once the listener is open.
func Serve(ctx context.Context, opts RunOptions, ready chan<- string) error {
	cfg := opts.config()
	logger := createLogger(cfg.Log)

	stack, err := createEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	serverOpts := []sbhttp.Option{
		sbhttp.WithLogger(logger),
		sbhttp.WithVersion(opts.Version),
	}
	if stack.Metrics != nil {
		serverOpts = append(serverOpts, sbhttp.WithMetricsHandler(stack.Metrics.Handler()))
	}
	api := sbhttp.NewServer(stack.Engine, serverOpts...)
	defer api.Close()

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Addr, err)
	}
	srv := &http.Server{Handler: api.Handler()}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("switchboard server listening", "address", ln.Addr().String(), "bridge", cfg.Bridge.Kind, "store", cfg.Store.Kind)
		serverErrors <- srv.Serve(ln)
	}()
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		return shutdown(srv, logger)
	}
}

func shutdown(srv *http.Server, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
		return srv.Close()
	}
	logger.Info("switchboard server stopped gracefully")
	return nil
}

// ServeMCP exposes the engine as an MCP server over stdio or SSE.
func ServeMCP(ctx context.Context, opts RunOptions, transport, addr string) error {
	cfg := opts.config()
	logger := createLogger(cfg.Log)

	stack, err := createEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	srv := mcp.NewServer(stack.Engine, opts.Version, logger)
	switch transport {
	case "stdio":
		logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		err := srv.ServeSSE(ctx, addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}
