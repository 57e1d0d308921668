package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// mermaidShapes maps node kinds to Mermaid's opening and closing brackets.
var mermaidShapes = map[flow.NodeKind][2]string{
	flow.KindStart:            {"([", "])"},
	flow.KindEnd:              {"([", "])"},
	flow.KindInput:            {"[/", "/]"},
	flow.KindOutput:           {"[/", "/]"},
	flow.KindProcess:          {"[", "]"},
	flow.KindCondition:        {"{", "}"},
	flow.KindLoop:             {"{{", "}}"},
	flow.KindTryStart:         {"[[", "]]"},
	flow.KindExceptionHandler: {">", "]"},
	flow.KindFinally:          {"[[", "]]"},
	flow.KindClassStart:       {"[[", "]]"},
	flow.KindMethod:           {"(", ")"},
	flow.KindProperty:         {"[(", ")]"},
}

// GenerateMermaid produces a Mermaid flowchart TD diagram from d. Node ids
// become N<id>; edge labels are kept, branch tags are not drawn except as
// a dotted arrow for loop back edges.
func GenerateMermaid(d *flow.Diagram) string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	if d == nil {
		return sb.String()
	}

	for _, n := range d.Nodes {
		shape, ok := mermaidShapes[n.Kind]
		if !ok {
			shape = [2]string{"[", "]"}
		}
		sb.WriteString(fmt.Sprintf("  N%d%s\"%s\"%s\n", n.ID, shape[0], mermaidText(n.Text), shape[1]))
	}

	for _, e := range d.Edges {
		arrow := "-->"
		if e.Branch == flow.BranchLoopBack {
			arrow = "-.->"
		}
		if e.Label != "" {
			sb.WriteString(fmt.Sprintf("  N%d %s|\"%s\"| N%d\n", e.From, arrow, mermaidText(e.Label), e.To))
			continue
		}
		sb.WriteString(fmt.Sprintf("  N%d %s N%d\n", e.From, arrow, e.To))
	}
	return sb.String()
}

var mermaidEscaper = strings.NewReplacer(
	`"`, "#quot;",
	"\n", " ",
)

func mermaidText(s string) string {
	return mermaidEscaper.Replace(s)
}
