package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/catalog"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/importer"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/progress"
)

const (
	// ServerName is the MCP server name
	ServerName = "mechscope-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDataDir is the default location for the store files
	DefaultDataDir = "~/.mechscope"

	// CatalogFile and ProgressFile are the two independent store files
	// under the data directory.
	CatalogFile  = "catalog.db"
	ProgressFile = "progress.db"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	catalog  catalog.Repository
	progress progress.Repository
	importer *importer.Importer
}

// NewServer creates a new MCP server instance backed by the catalog and
// progress stores under dataDir.
func NewServer(dataDir string) (*Server, error) {
	if dataDir == "" || dataDir == DefaultDataDir {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mechscope")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cat, err := catalog.Open(filepath.Join(dataDir, CatalogFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}

	prog, err := progress.Open(filepath.Join(dataDir, ProgressFile))
	if err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("failed to open progress store: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		catalog:  cat,
		progress: prog,
		importer: importer.New(cat),
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects or ctx is canceled. The store handles are released before
// it returns.
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()

	stdio := server.NewStdioServer(s.mcp)
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases both store handles.
func (s *Server) Close() {
	_ = s.catalog.Close()
	_ = s.progress.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(importCatalogTool(), s.handleImportCatalog)
	s.mcp.AddTool(searchPartsTool(), s.handleSearchParts)
	s.mcp.AddTool(getPartTool(), s.handleGetPart)
	s.mcp.AddTool(saveProgressTool(), s.handleSaveProgress)
	s.mcp.AddTool(getProgressTool(), s.handleGetProgress)
	s.mcp.AddTool(logRepairTool(), s.handleLogRepair)
	s.mcp.AddTool(getStatisticsTool(), s.handleGetStatistics)
	s.mcp.AddTool(getHistoryTool(), s.handleGetHistory)
}
