package diag

import (
	"io"

	json "github.com/goccy/go-json"
)

// Summary is the JSON shape of a compilation result.
type Summary struct {
	Compilation string      `json:"compilation,omitempty"`
	MaxSeverity Severity    `json:"maxSeverity"`
	Count       int         `json:"count"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// NewSummary summarizes ds.
func NewSummary(id string, ds Diagnostics) Summary {
	if ds == nil {
		ds = Diagnostics{}
	}
	return Summary{
		Compilation: id,
		MaxSeverity: ds.Max(),
		Count:       len(ds),
		Diagnostics: ds,
	}
}

// WriteJSON encodes s to w, indented when indent is true.
func (s Summary) WriteJSON(w io.Writer, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(s)
}

// DecodeSummary reads a Summary written by WriteJSON.
func DecodeSummary(r io.Reader) (Summary, error) {
	var s Summary
	err := json.NewDecoder(r).Decode(&s)
	return s, err
}
