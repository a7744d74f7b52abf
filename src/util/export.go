package util

import (
	"github.com/segmentio/encoding/json"

	"midir/src/ir/ssa"
)

// diagJSON is the wire shape one ssa.Diagnostic exports as: LSP-flavored
// field names so a language-server frontend can consume the array
// unchanged, per the "Warnings as effects" design note.
type diagJSON struct {
	Severity  string `json:"severity"`
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
	Message   string `json:"message"`
}

// ExportDiagnostics marshals every diagnostic recorded by sink to JSON,
// using the faster drop-in segmentio encoder rather than the standard
// library's encoding/json.
func ExportDiagnostics(sink *ssa.RecordingSink) ([]byte, error) {
	out := make([]diagJSON, len(sink.Diagnostics))
	for i, d := range sink.Diagnostics {
		sev := "warning"
		if d.Severity == ssa.SeverityError {
			sev = "error"
		}
		out[i] = diagJSON{
			Severity:  sev,
			Line:      d.Pos.Line,
			Character: d.Pos.Character,
			Message:   d.Message,
		}
	}
	return json.Marshal(out)
}
