// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/lifecycle"
	"github.com/flowgate/flowgate/internal/orchestrator"
)

const serverVersion = "0.1.0"

// Server hosts the MCP surface over streamable HTTP.
type Server struct {
	httpServer *http.Server
	mcpServer  *mcp.Server
}

// New creates and wires up the server. It does NOT start listening —
// call Run() for that.
func New(cfg *config.AppConfig, client orchestrator.Client, controller *lifecycle.Controller) *Server {
	a := newAPI(client, controller, cfg.Pagination.DefaultPageSize)
	mcpServer := newMCPServer(a)

	r := chi.NewRouter()

	// Global middleware
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(MaxBodySize(1 << 20)) // 1 MB default

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		mcpServer: mcpServer,
	}
}

// newMCPServer builds the MCP server with every resource and tool
// registered. Split out so tests can connect over an in-memory
// transport without binding a port.
func newMCPServer(a *api) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "flowgate",
		Version: serverVersion,
	}, nil)
	a.registerResources(s)
	a.registerTools(s)
	return s
}

// Run starts the HTTP server. Blocks until the server is shut down.
func (s *Server) Run(ctx context.Context) error {
	getLog().Info().Str("addr", s.httpServer.Addr).Msg("MCP server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
