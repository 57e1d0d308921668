// Package export renders flowcharts as JSON, Mermaid, Graphviz DOT and SVG.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// Format names an output format for a single diagram.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMermaid Format = "mermaid"
	FormatDOT     Format = "dot"
	FormatSVG     Format = "svg"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatMermaid, FormatDOT, FormatSVG}

// ErrUnknownFormat is returned by ParseFormat for an unrecognized name.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat maps a format name (case-insensitive, "mmd" and "gv" accepted)
// to its Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	case "dot", "gv":
		return FormatDOT, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of rendered output.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render draws d, named name, in format f.
func Render(ctx context.Context, d *flow.Diagram, name string, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return MarshalDiagram(d)
	case FormatMermaid:
		return []byte(GenerateMermaid(d)), nil
	case FormatDOT:
		return []byte(ToDOT(d, name)), nil
	case FormatSVG:
		return RenderSVG(ctx, ToDOT(d, name))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}
