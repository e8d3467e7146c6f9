// Package mcp exposes the import extractor and project scanner as MCP tools
// over stdio.
package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pydeps/internal/imports"
	"github.com/mvp-joe/pydeps/internal/scanner"
)

// ServerName is the name announced to MCP clients.
const ServerName = "pydeps-mcp"

// ImportAnalyzer analyzes the imports of a single file.
type ImportAnalyzer interface {
	Analyze(path string) imports.Result
}

// RootScanner scans a project directory or a single script.
type RootScanner interface {
	ScanRoot(ctx context.Context, root string) (*scanner.Report, error)
}

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	mcp *server.MCPServer
}

// NewMCPServer creates a server with every pydeps tool registered.
func NewMCPServer(version string, analyzer ImportAnalyzer, roots RootScanner) (*MCPServer, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("import analyzer is required")
	}
	if roots == nil {
		return nil, fmt.Errorf("root scanner is required")
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	AddImportsTool(mcpServer, analyzer)
	AddScanTool(mcpServer, roots)
	AddGraphTool(mcpServer, roots)

	return &MCPServer{mcp: mcpServer}, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
