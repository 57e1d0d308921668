package mcptools

import (
	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/store"
)

// --- MCP Tool Input Types ---
// The MCP Go SDK generates each tool's JSON schema from these struct tags.

// TranslateSourceInput is the input for the translate_source MCP tool.
type TranslateSourceInput struct {
	Source   string `json:"source" jsonschema:"the source text to translate"`
	Language string `json:"language,omitempty" jsonschema:"language tag: python, javascript or csharp (aliases py, js, cs, c#). Detected from filename when empty"`
	Filename string `json:"filename,omitempty" jsonschema:"file name used for language detection and as the stored source name"`
}

// TranslateFileInput is the input for the translate_file MCP tool.
type TranslateFileInput struct {
	Path string `json:"path" jsonschema:"path of a .py, .js or .cs file to translate"`
}

// TranslateOutput is the result of the translate_source and translate_file
// MCP tools.
type TranslateOutput struct {
	Name     string        `json:"name"`
	Language flow.Language `json:"language"`
	Cached   bool          `json:"cached"`
	Units    []UnitSummary `json:"units"`
	Result   *flow.Result  `json:"result"`
}

// UnitSummary names one diagram of a translation and its size.
type UnitSummary struct {
	Name  string        `json:"name"`
	Type  flow.UnitKind `json:"type"`
	Nodes int           `json:"nodes"`
	Edges int           `json:"edges"`
}

// ListLanguagesInput is the input for the list_languages MCP tool.
type ListLanguagesInput struct{}

// LanguageInfo describes one supported input language.
type LanguageInfo struct {
	Name       flow.Language `json:"name"`
	Extensions []string      `json:"extensions"`
}

// ListLanguagesOutput is the result of the list_languages MCP tool.
type ListLanguagesOutput struct {
	Languages      []LanguageInfo `json:"languages"`
	MaxSourceBytes int64          `json:"maxSourceBytes"`
}

// ListSourcesInput is the input for the list_sources MCP tool.
type ListSourcesInput struct {
	Source string `json:"source,omitempty" jsonschema:"when set, list the diagrams stored for this source instead of all sources"`
}

// ListSourcesOutput is the result of the list_sources MCP tool.
type ListSourcesOutput struct {
	Sources []store.SourceInfo `json:"sources"`
	Units   []store.UnitInfo   `json:"units,omitempty"`
}

// GetDiagramInput is the input for the get_diagram MCP tool.
type GetDiagramInput struct {
	Source string `json:"source" jsonschema:"stored source name as returned by translate_source or translate_file"`
	Unit   string `json:"unit,omitempty" jsonschema:"diagram name such as main, area or Account.Deposit (default: main)"`
	Format string `json:"format,omitempty" jsonschema:"output format: json, mermaid, dot or svg (default: mermaid)"`
}

// GetDiagramOutput is the result of the get_diagram MCP tool.
type GetDiagramOutput struct {
	Source  string `json:"source"`
	Unit    string `json:"unit"`
	Format  string `json:"format"`
	Content string `json:"content"`
}
