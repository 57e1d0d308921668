package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/dusk-indust/flowchart/internal/flow"
)

var dotShapes = map[flow.NodeKind]string{
	flow.KindStart:            "ellipse",
	flow.KindEnd:              "ellipse",
	flow.KindInput:            "parallelogram",
	flow.KindOutput:           "parallelogram",
	flow.KindProcess:          "box",
	flow.KindCondition:        "diamond",
	flow.KindLoop:             "hexagon",
	flow.KindTryStart:         "box3d",
	flow.KindExceptionHandler: "cds",
	flow.KindFinally:          "box3d",
	flow.KindClassStart:       "tab",
	flow.KindMethod:           "component",
	flow.KindProperty:         "note",
}

// ToDOT converts a diagram to Graphviz DOT format. The result can be
// rendered with RenderSVG.
func ToDOT(d *flow.Diagram, name string) string {
	var buf bytes.Buffer
	if name == "" {
		name = "main"
	}
	fmt.Fprintf(&buf, "digraph %q {\n", name)
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=14, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [fontsize=12, fontname=\"Helvetica\"];\n")
	buf.WriteString("\n")
	if d == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	for _, n := range d.Nodes {
		shape, ok := dotShapes[n.Kind]
		if !ok {
			shape = "box"
		}
		fmt.Fprintf(&buf, "  n%d [label=%q, shape=%s];\n", n.ID, n.Text, shape)
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		switch e.Branch {
		case flow.BranchLoopBack:
			attrs = append(attrs, "style=dashed")
		case flow.BranchException:
			attrs = append(attrs, "color=red")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg tag with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
