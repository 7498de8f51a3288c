// Package diag implements the diagnostics sink shared by the structural
// builder, the final pass and the expression compiler.
//
// Diagnostics never abort a compilation. Every anomaly is recorded with a
// numeric severity and the caller decides pass/fail by inspecting the
// maximum severity observed.
package diag

import (
	"fmt"
	"strings"

	"github.com/sandrolain/gordl/pkg/types"
)

// Severity is the numeric, consumer-visible seriousness of a diagnostic.
type Severity int

const (
	// Ignorable marks unknown markup or an unknown enumeration literal; a
	// default was substituted.
	Ignorable Severity = 1
	// Recoverable marks a non-fatal problem such as an invalid value or a
	// failed expression compile.
	Recoverable Severity = 4
	// Degraded marks a missing required element; the subtree contributes
	// nothing.
	Degraded Severity = 8
	// Fatal is used only for a source document that could not be read.
	Fatal Severity = 12
)

func (s Severity) String() string {
	switch {
	case s >= Fatal:
		return "fatal"
	case s >= Degraded:
		return "error"
	case s >= Recoverable:
		return "warning"
	case s >= Ignorable:
		return "info"
	default:
		return "none"
	}
}

// Pos is a location in the source document. The zero value is unknown.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Diagnostic is one recorded anomaly.
type Diagnostic struct {
	Severity Severity        `json:"severity"`
	Code     types.ErrorCode `json:"code"`
	Message  string          `json:"message"`
	// NodeID is the identifier of the document node the diagnostic is
	// attributed to (0 when raised before any node existed).
	NodeID  int    `json:"node"`
	Element string `json:"element,omitempty"`
	Pos     Pos    `json:"pos"`
	// Offset is the byte offset inside an expression source, -1 otherwise.
	Offset int `json:"offset"`
}

func (d Diagnostic) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s [%d] %s", d.Code, d.Severity, d.Pos)
	if d.Element != "" {
		fmt.Fprintf(b, " %s#%d", d.Element, d.NodeID)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Offset >= 0 {
		fmt.Fprintf(b, " (offset %d)", d.Offset)
	}
	return b.String()
}

// Diagnostics is a collection of diagnostics that implements error.
type Diagnostics []Diagnostic

// Error summarizes the first few diagnostics.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(ds), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", ds[i].Code, ds[i].Pos)
	}
	if len(ds) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(ds))
	}
	return b.String()
}

// Max returns the highest severity in ds, or 0 when ds is empty.
func (ds Diagnostics) Max() Severity {
	var m Severity
	for _, d := range ds {
		m = max(m, d.Severity)
	}
	return m
}

// AtLeast returns the diagnostics whose severity is at least s.
func (ds Diagnostics) AtLeast(s Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity >= s {
			out = append(out, d)
		}
	}
	return out
}

// WithCode returns the diagnostics carrying code.
func (ds Diagnostics) WithCode(code types.ErrorCode) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// ForNode returns the diagnostics attributed to node id.
func (ds Diagnostics) ForNode(id int) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.NodeID == id {
			out = append(out, d)
		}
	}
	return out
}

// RejectedError is returned when a caller asked for documents reaching a
// severity threshold to be rejected.
type RejectedError struct {
	Threshold   Severity
	Diagnostics Diagnostics
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("document rejected: max severity %d reaches threshold %d: %s",
		e.Diagnostics.Max(), e.Threshold, e.Diagnostics.AtLeast(e.Threshold).Error())
}

// Unwrap exposes the diagnostics to errors.As.
func (e *RejectedError) Unwrap() error {
	return e.Diagnostics
}
