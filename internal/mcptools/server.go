// Package mcptools exposes flowchart translation as Model Context Protocol
// tools over stdio or streamable HTTP.
package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/flowchart/internal/service"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with the flowchart tools registered.
func NewMCPServer(svc *service.Service, logger *log.Logger) *mcp.Server {
	tools := NewTools(svc, logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "flowchart",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "translate_source",
		Description: "Translate Python, JavaScript or C# source text into flowcharts. Returns one diagram for the top-level statements plus one per function, method, property accessor and class.",
	}, tools.TranslateSource)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "translate_file",
		Description: "Read a .py, .js or .cs file and translate it into flowcharts. The file path becomes the stored source name.",
	}, tools.TranslateFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_languages",
		Description: "List the supported input languages, their file extensions and the source size limit.",
	}, tools.ListLanguages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List translated sources held in the diagram store, or the diagrams stored for one source.",
	}, tools.ListSources)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_diagram",
		Description: "Render a stored diagram as Mermaid, Graphviz DOT, SVG or JSON.",
	}, tools.GetDiagram)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
