// Package mcpserver exposes sprint tools to the agent over an embedded MCP
// HTTP server, so story completion flows through a real protocol instead of
// the agent hand-editing the sprint file.
package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mark3labs/sprintr/internal/archive"
	"github.com/mark3labs/sprintr/internal/logger"
	"github.com/mark3labs/sprintr/internal/sprint"
)

// Server manages an embedded MCP HTTP server exposing sprint/story/learning
// tools. The server is started when a run begins.
type Server struct {
	sprintFile *sprint.File
	learnings  *archive.Learnings
	mcpServer  *server.MCPServer
	stdServer  *http.Server
	port       int
	mu         sync.Mutex
}

// New creates an MCP server bound to the given sprint file and learnings
// log. The server is not started until Start() is called.
func New(sprintFile *sprint.File, learnings *archive.Learnings) *Server {
	return &Server{
		sprintFile: sprintFile,
		learnings:  learnings,
	}
}

// Start starts the MCP HTTP server on a random available localhost port.
// Returns the port number or an error if startup fails.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	s.mcpServer = server.NewMCPServer(
		"sprintr-tools",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()

	// Pre-open the listener so the port is known and there is no TOCTOU race.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find available port: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	))
	s.stdServer = &http.Server{Handler: mux}

	stdServer := s.stdServer
	go func() {
		if err := stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("MCP server error: %v", err)
		}
	}()

	logger.Debug("MCP server ready on port %d", s.port)
	return s.port, nil
}

// Stop stops the MCP HTTP server. Safe to call when not started.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil
	}

	if err := s.stdServer.Shutdown(context.Background()); err != nil {
		logger.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.stdServer = nil
	s.mcpServer = nil
	logger.Debug("MCP server stopped")
	return nil
}

// URL returns the HTTP URL for the MCP endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
