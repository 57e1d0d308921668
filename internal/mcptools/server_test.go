package mcptools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/service"
	"github.com/dusk-indust/flowchart/internal/store"
)

const calcSource = "def add(a, b):\n    return a + b\n\nprint(add(1, 2))\n"

// setupServerClient wires an MCP server and client together using in-memory
// transports over a service backed by a MemStore.
func setupServerClient(t *testing.T) *mcp.ClientSession {
	t.Helper()

	svc, err := service.New(service.Options{Store: store.NewMemStore()})
	require.NoError(t, err)
	server := NewMCPServer(svc, log.New(os.Stderr))

	st, ct := mcp.NewInMemoryTransports()

	ctx := context.Background()

	_, err = server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})

	return session
}

// callTool invokes name and decodes its structured output into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args, out any) {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "%s should not return an error: %s", name, toolText(result))
	require.NotNil(t, result.StructuredContent, "expected structured content from %s", name)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func toolText(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	assert.Equal(t, []string{
		"get_diagram",
		"list_languages",
		"list_sources",
		"translate_file",
		"translate_source",
	}, names)
}

func TestMCPTranslateSource(t *testing.T) {
	session := setupServerClient(t)

	var out TranslateOutput
	callTool(t, session, "translate_source", TranslateSourceInput{
		Source:   calcSource,
		Filename: "calc.py",
	}, &out)

	assert.Equal(t, "calc.py", out.Name)
	assert.Equal(t, flow.LangPython, out.Language)
	assert.False(t, out.Cached)

	require.Len(t, out.Units, 2)
	assert.Equal(t, "main", out.Units[0].Name)
	assert.Equal(t, "add", out.Units[1].Name)
	assert.Equal(t, flow.UnitFunction, out.Units[1].Type)

	require.NotNil(t, out.Result)
	require.Len(t, out.Result.Functions, 1)
	assert.Equal(t, out.Units[1].Nodes, len(out.Result.Functions[0].Diagram.Nodes))

	// the same text again is served from the cache
	var again TranslateOutput
	callTool(t, session, "translate_source", TranslateSourceInput{Source: calcSource, Language: "py"}, &again)
	assert.True(t, again.Cached)
	assert.True(t, strings.HasPrefix(again.Name, "sha256:"))
}

func TestMCPTranslateSource_SyntaxError(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "translate_source",
		Arguments: TranslateSourceInput{Source: "def f(:\n", Language: "python"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "syntax error at line")
}

func TestMCPTranslateSource_Unsupported(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "translate_source",
		Arguments: TranslateSourceInput{Source: "fn main() {}", Filename: "main.rs"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(result), "unsupported language")
}

func TestMCPTranslateFile(t *testing.T) {
	session := setupServerClient(t)

	path := filepath.Join(t.TempDir(), "greet.js")
	require.NoError(t, os.WriteFile(path, []byte("function greet(n) { console.log(n); }\n"), 0o644))

	var out TranslateOutput
	callTool(t, session, "translate_file", TranslateFileInput{Path: path}, &out)
	assert.Equal(t, path, out.Name)
	assert.Equal(t, flow.LangJavaScript, out.Language)

	var names []string
	for _, u := range out.Units {
		names = append(names, u.Name)
	}
	assert.Contains(t, names, "greet")
}

func TestMCPListLanguages(t *testing.T) {
	session := setupServerClient(t)

	var out ListLanguagesOutput
	callTool(t, session, "list_languages", ListLanguagesInput{}, &out)

	require.Len(t, out.Languages, 3)
	assert.Equal(t, flow.LangPython, out.Languages[0].Name)
	assert.Equal(t, []string{".py", ".pyw"}, out.Languages[0].Extensions)
	assert.Equal(t, []string{".cs"}, out.Languages[2].Extensions)
	assert.Equal(t, int64(1<<20), out.MaxSourceBytes)
}

func TestMCPGetDiagram(t *testing.T) {
	session := setupServerClient(t)

	var tr TranslateOutput
	callTool(t, session, "translate_source", TranslateSourceInput{Source: calcSource, Filename: "calc.py"}, &tr)

	var mermaid GetDiagramOutput
	callTool(t, session, "get_diagram", GetDiagramInput{Source: "calc.py", Unit: "add"}, &mermaid)
	assert.Equal(t, "mermaid", mermaid.Format)
	assert.True(t, strings.HasPrefix(mermaid.Content, "flowchart TD\n"))
	assert.Contains(t, mermaid.Content, "add")

	var dot GetDiagramOutput
	callTool(t, session, "get_diagram", GetDiagramInput{Source: "calc.py", Format: "dot"}, &dot)
	assert.Equal(t, "main", dot.Unit)
	assert.True(t, strings.HasPrefix(dot.Content, `digraph "main"`))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_diagram",
		Arguments: GetDiagramInput{Source: "calc.py", Unit: "missing"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPListSources(t *testing.T) {
	session := setupServerClient(t)

	var empty ListSourcesOutput
	callTool(t, session, "list_sources", ListSourcesInput{}, &empty)
	assert.Empty(t, empty.Sources)

	var tr TranslateOutput
	callTool(t, session, "translate_source", TranslateSourceInput{Source: calcSource, Filename: "calc.py"}, &tr)

	var all ListSourcesOutput
	callTool(t, session, "list_sources", ListSourcesInput{}, &all)
	require.Len(t, all.Sources, 1)
	assert.Equal(t, "calc.py", all.Sources[0].Source)

	var one ListSourcesOutput
	callTool(t, session, "list_sources", ListSourcesInput{Source: "calc.py"}, &one)
	require.Len(t, one.Units, 2)
	assert.Equal(t, "main", one.Units[0].Name)
	assert.Equal(t, "add", one.Units[1].Name)
}

// TestMCPCallUnknownTool verifies that calling a non-existent tool returns an
// error.
func TestMCPCallUnknownTool(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nonexistent_tool",
		Arguments: map[string]any{},
	})

	// The MCP SDK may return an error at the protocol level or set IsError on
	// the result. Accept either behavior.
	if err != nil {
		return
	}

	require.NotNil(t, result)
	assert.True(t, result.IsError, "calling an unknown tool should set IsError")
}
