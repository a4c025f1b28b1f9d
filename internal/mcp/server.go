// Package mcp exposes the course catalog and the question-answering
// pipeline as MCP tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/csexpert/csexpert/internal/chat"
	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/relational"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server exposing course search and Q&A tools.
type Server struct {
	store docstore.Store
	db    *relational.DB
	chat  *chat.Service
	mcp   *server.MCPServer
}

// NewServer creates an MCP server with the given dependencies.
func NewServer(store docstore.Store, db *relational.DB, svc *chat.Service) *Server {
	s := &Server{
		store: store,
		db:    db,
		chat:  svc,
	}

	s.mcp = server.NewMCPServer(
		"csexpert",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchCoursesTool, s.handleSearchCourses)
	s.mcp.AddTool(getCourseTool, s.handleGetCourse)
	s.mcp.AddTool(listProgramsTool, s.handleListPrograms)
	s.mcp.AddTool(askTool, s.handleAsk)
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
