package diag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sandrolain/gordl/pkg/types"
)

// Sink accumulates diagnostics during one compilation.
//
// A Sink is written by a single goroutine while a document is built and
// resolved, then frozen. Recording into a frozen sink is a programming error
// and panics.
type Sink struct {
	items  Diagnostics
	max    Severity
	frozen bool
	logger *slog.Logger
}

// NewSink creates a sink. A nil logger discards log output.
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{logger: logger}
}

// Add records d.
func (s *Sink) Add(d Diagnostic) {
	if s.frozen {
		panic(fmt.Sprintf("diag: add to frozen sink: %s", d))
	}
	s.items = append(s.items, d)
	s.max = max(s.max, d.Severity)
	s.logger.Log(context.Background(), levelFor(d.Severity), d.Message,
		"code", string(d.Code),
		"severity", int(d.Severity),
		"node", d.NodeID,
		"element", d.Element,
		"pos", d.Pos.String(),
	)
}

// Report records a diagnostic built from its parts. Offset is set to -1.
func (s *Sink) Report(sev Severity, code types.ErrorCode, nodeID int, element string, pos Pos, format string, args ...any) {
	s.Add(Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		NodeID:   nodeID,
		Element:  element,
		Pos:      pos,
		Offset:   -1,
	})
}

// All returns a copy of the recorded diagnostics in recording order.
func (s *Sink) All() Diagnostics {
	out := make(Diagnostics, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of recorded diagnostics.
func (s *Sink) Len() int {
	return len(s.items)
}

// Max returns the highest severity recorded so far, or 0.
func (s *Sink) Max() Severity {
	return s.max
}

// Freeze makes the sink read-only.
func (s *Sink) Freeze() {
	s.frozen = true
}

// Frozen reports whether Freeze was called.
func (s *Sink) Frozen() bool {
	return s.frozen
}

func levelFor(sev Severity) slog.Level {
	switch {
	case sev >= Degraded:
		return slog.LevelError
	case sev >= Recoverable:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
