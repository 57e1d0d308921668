package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/flowchart/internal/export"
	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/service"
	"github.com/dusk-indust/flowchart/internal/store"
	"github.com/dusk-indust/flowchart/internal/translate"
)

// Tools holds the service used by the MCP tool handlers.
type Tools struct {
	svc    *service.Service
	logger *log.Logger
}

// NewTools creates the tool handlers over svc. A nil logger uses
// log.Default().
func NewTools(svc *service.Service, logger *log.Logger) *Tools {
	if logger == nil {
		logger = log.Default()
	}
	return &Tools{svc: svc, logger: logger}
}

// TranslateSource translates source text passed inline.
func (t *Tools) TranslateSource(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TranslateSourceInput,
) (*mcp.CallToolResult, TranslateOutput, error) {
	if input.Source == "" {
		return nil, TranslateOutput{}, fmt.Errorf("source is required")
	}
	if input.Language == "" && input.Filename == "" {
		return nil, TranslateOutput{}, fmt.Errorf("language or filename is required")
	}

	tr, err := t.svc.Translate(ctx, service.Request{
		Source:   []byte(input.Source),
		Language: input.Language,
		Filename: input.Filename,
	})
	if err != nil {
		return nil, TranslateOutput{}, toolError(err)
	}
	t.logger.Debug("mcp translate_source", "name", tr.Name, "lang", tr.Language, "cached", tr.Cached)
	return nil, translateOutput(tr), nil
}

// TranslateFile reads and translates a file on the server's file system.
func (t *Tools) TranslateFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TranslateFileInput,
) (*mcp.CallToolResult, TranslateOutput, error) {
	if input.Path == "" {
		return nil, TranslateOutput{}, fmt.Errorf("path is required")
	}

	tr, err := t.svc.TranslateFile(ctx, input.Path)
	if err != nil {
		return nil, TranslateOutput{}, toolError(err)
	}
	t.logger.Debug("mcp translate_file", "path", input.Path, "lang", tr.Language)
	return nil, translateOutput(tr), nil
}

// ListLanguages reports the supported languages with their extensions.
func (t *Tools) ListLanguages(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListLanguagesInput,
) (*mcp.CallToolResult, ListLanguagesOutput, error) {
	langs := t.svc.Languages()
	out := ListLanguagesOutput{
		Languages:      make([]LanguageInfo, 0, len(langs)),
		MaxSourceBytes: t.svc.MaxSourceBytes(),
	}
	for _, l := range langs {
		out.Languages = append(out.Languages, LanguageInfo{Name: l, Extensions: translate.Extensions(l)})
	}
	return nil, out, nil
}

// ListSources lists stored sources, or the diagrams of one source.
func (t *Tools) ListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListSourcesInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	st := t.svc.Store()
	if st == nil {
		return nil, ListSourcesOutput{}, service.ErrNoStore
	}

	if input.Source != "" {
		info, err := st.GetSource(ctx, input.Source)
		if err != nil {
			return nil, ListSourcesOutput{}, fmt.Errorf("get source: %w", err)
		}
		if info == nil {
			return nil, ListSourcesOutput{}, fmt.Errorf("source not found: %s", input.Source)
		}
		units, err := st.ListUnits(ctx, input.Source)
		if err != nil {
			return nil, ListSourcesOutput{}, fmt.Errorf("list units: %w", err)
		}
		return nil, ListSourcesOutput{Sources: []store.SourceInfo{*info}, Units: units}, nil
	}

	sources, err := t.svc.Sources(ctx)
	if err != nil {
		return nil, ListSourcesOutput{}, fmt.Errorf("list sources: %w", err)
	}
	if sources == nil {
		sources = []store.SourceInfo{}
	}
	return nil, ListSourcesOutput{Sources: sources}, nil
}

// GetDiagram renders one stored diagram.
func (t *Tools) GetDiagram(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDiagramInput,
) (*mcp.CallToolResult, GetDiagramOutput, error) {
	if input.Source == "" {
		return nil, GetDiagramOutput{}, fmt.Errorf("source is required")
	}
	format := export.FormatMermaid
	if input.Format != "" {
		f, err := export.ParseFormat(input.Format)
		if err != nil {
			return nil, GetDiagramOutput{}, err
		}
		format = f
	}
	unit := input.Unit
	if unit == "" {
		unit = store.MainUnit
	}

	d, err := t.svc.Diagram(ctx, input.Source, unit)
	if err != nil {
		return nil, GetDiagramOutput{}, err
	}
	content, err := export.Render(ctx, d, unit, format)
	if err != nil {
		return nil, GetDiagramOutput{}, fmt.Errorf("render %s: %w", format, err)
	}
	return nil, GetDiagramOutput{
		Source:  input.Source,
		Unit:    unit,
		Format:  string(format),
		Content: string(content),
	}, nil
}

func translateOutput(tr *service.Translation) TranslateOutput {
	res := tr.Result
	units := make([]UnitSummary, 0, 1+len(res.Functions)+len(res.Classes))
	units = append(units, summarize(store.MainUnit, store.UnitKindMain, res.Main))
	for _, u := range res.Functions {
		units = append(units, summarize(u.Name, u.Kind, u.Diagram))
	}
	for _, u := range res.Classes {
		units = append(units, summarize(u.Name, u.Kind, u.Diagram))
	}
	return TranslateOutput{
		Name:     tr.Name,
		Language: tr.Language,
		Cached:   tr.Cached,
		Units:    units,
		Result:   res,
	}
}

func summarize(name string, kind flow.UnitKind, d *flow.Diagram) UnitSummary {
	s := UnitSummary{Name: name, Type: kind}
	if d != nil {
		s.Nodes, s.Edges = len(d.Nodes), len(d.Edges)
	}
	return s
}

// toolError strips the front end wrapping from syntax errors so the tool
// reports "syntax error at line N: msg".
func toolError(err error) error {
	var syn *flow.SyntaxError
	if errors.As(err, &syn) {
		return syn
	}
	return err
}
