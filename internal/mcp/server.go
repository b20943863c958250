// Package mcp exposes the store's read path as MCP tools over stdio.
// Ingestion belongs to the daemon; every tool here is read-only.
package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/feedlark/lister/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"post_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"post_latest": {
		def:     latestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLatest },
	},
	"feed_inventory": {
		def:     inventoryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInventory },
	},
	"alert_recent": {
		def:     alertsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAlerts },
	},
}

// AllToolNames returns a list of all registered tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with lister's read tools registered.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"lister",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}
