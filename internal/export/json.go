package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/flowchart/internal/flow"
)

// ResultExport is the JSON document written for one translated file. The
// Result's own fields sit at the top level next to the provenance fields.
type ResultExport struct {
	Source     string        `json:"source,omitempty"`
	Language   flow.Language `json:"language"`
	ExportedAt string        `json:"exportedAt"`
	*flow.Result
}

// ExportResult wraps res with its provenance.
func ExportResult(source string, lang flow.Language, res *flow.Result) *ResultExport {
	return &ResultExport{
		Source:     source,
		Language:   lang,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Result:     res,
	}
}

// WriteJSON encodes v to w, indented when pretty is set.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// MarshalDiagram returns the JSON form of a single diagram.
func MarshalDiagram(d *flow.Diagram) ([]byte, error) {
	if d == nil {
		d = flow.NewDiagram()
	}
	return json.MarshalIndent(d, "", "  ")
}
