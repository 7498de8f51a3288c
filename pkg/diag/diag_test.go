package diag

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sandrolain/gordl/pkg/types"
)

func TestSink(t *testing.T) {
	var logs bytes.Buffer
	s := NewSink(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	s.Report(Ignorable, types.ErrElementIgnored, 3, "Foo", Pos{Line: 2, Col: 5}, "unknown element %s", "Foo")
	s.Report(Degraded, types.ErrMissingRequired, 1, "Report", Pos{Line: 1, Col: 1}, "Report requires a Body")
	s.Add(Diagnostic{Severity: Recoverable, Code: types.ErrScopeViolation, NodeID: 3, Offset: 4})

	if s.Len() != 3 || s.Max() != Degraded {
		t.Fatalf("Len = %d, Max = %d", s.Len(), s.Max())
	}
	all := s.All()
	if all[0].Offset != -1 || all[0].Message != "unknown element Foo" {
		t.Errorf("first = %+v", all[0])
	}
	all[0].Code = "changed"
	if s.All()[0].Code != types.ErrElementIgnored {
		t.Error("All must return a copy")
	}
	for _, want := range []string{"level=DEBUG", "level=ERROR", "level=WARN", "code=R0201"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log output lacks %q:\n%s", want, logs.String())
		}
	}
}

func TestSink_Frozen(t *testing.T) {
	s := NewSink(nil)
	s.Freeze()
	if !s.Frozen() {
		t.Fatal("Frozen() = false")
	}
	defer func() {
		if recover() == nil {
			t.Error("expected a panic when adding to a frozen sink")
		}
	}()
	s.Report(Ignorable, types.ErrElementIgnored, 0, "", Pos{}, "late")
}

func TestDiagnostics_Filters(t *testing.T) {
	ds := Diagnostics{
		{Severity: Ignorable, Code: types.ErrUnknownEnum, NodeID: 2},
		{Severity: Recoverable, Code: types.ErrUnresolvedSymbol, NodeID: 5},
		{Severity: Degraded, Code: types.ErrMissingRequired, NodeID: 5},
	}
	if got := ds.Max(); got != Degraded {
		t.Errorf("Max = %d", got)
	}
	if got := ds.AtLeast(Recoverable); len(got) != 2 {
		t.Errorf("AtLeast(4) = %v", got)
	}
	if got := ds.WithCode(types.ErrUnknownEnum); len(got) != 1 || got[0].NodeID != 2 {
		t.Errorf("WithCode = %v", got)
	}
	if got := ds.ForNode(5); len(got) != 2 {
		t.Errorf("ForNode(5) = %v", got)
	}
	if got := (Diagnostics{}).Max(); got != 0 {
		t.Errorf("empty Max = %d", got)
	}
}

func TestDiagnostic_String(t *testing.T) {
	tests := []struct {
		d    Diagnostic
		want string
	}{
		{
			Diagnostic{Severity: Degraded, Code: types.ErrMissingRequired, Message: "Report requires a Body", NodeID: 1, Element: "Report", Pos: Pos{Line: 1, Col: 1}, Offset: -1},
			"R0201 [8] 1:1 Report#1: Report requires a Body",
		},
		{
			Diagnostic{Severity: Recoverable, Code: types.ErrUnresolvedSymbol, Message: "unknown field", Offset: 7},
			"E0201 [4] -: unknown field (offset 7)",
		},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSeverity_String(t *testing.T) {
	for sev, want := range map[Severity]string{0: "none", Ignorable: "info", Recoverable: "warning", Degraded: "error", Fatal: "fatal"} {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d) = %q, want %q", sev, got, want)
		}
	}
}

func TestRejectedError(t *testing.T) {
	ds := Diagnostics{
		{Severity: Ignorable, Code: types.ErrUnknownEnum},
		{Severity: Degraded, Code: types.ErrMissingRequired, Pos: Pos{Line: 3, Col: 2}},
	}
	var err error = &RejectedError{Threshold: Degraded, Diagnostics: ds}
	if !strings.Contains(err.Error(), "R0201 at 3:2") || strings.Contains(err.Error(), "R0203") {
		t.Errorf("Error() = %q", err)
	}
	var got Diagnostics
	if !errors.As(err, &got) || len(got) != 2 {
		t.Errorf("errors.As(Diagnostics) = %v", got)
	}
}

func TestDiagnostics_ErrorTruncates(t *testing.T) {
	ds := make(Diagnostics, 5)
	for i := range ds {
		ds[i] = Diagnostic{Code: types.ErrElementIgnored}
	}
	if got := ds.Error(); !strings.HasSuffix(got, "(total 5)") || strings.Count(got, "R0101") != 3 {
		t.Errorf("Error() = %q", got)
	}
}

func TestSummary_JSON(t *testing.T) {
	ds := Diagnostics{{Severity: Recoverable, Code: types.ErrScopeViolation, Message: "m", NodeID: 4, Pos: Pos{Line: 2, Col: 3}, Offset: 1}}
	var buf bytes.Buffer
	if err := NewSummary("abc", ds).WriteJSON(&buf, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"maxSeverity": 4`) {
		t.Errorf("JSON = %s", buf.String())
	}
	got, err := DecodeSummary(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Compilation != "abc" || got.Count != 1 || got.Diagnostics[0] != ds[0] {
		t.Errorf("decoded = %+v", got)
	}

	buf.Reset()
	if err := NewSummary("", nil).WriteJSON(&buf, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"diagnostics":[]`) {
		t.Errorf("empty summary = %s", buf.String())
	}
}
