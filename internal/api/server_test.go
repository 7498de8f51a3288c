package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/sandrolain/gordl"
	"github.com/sandrolain/gordl/internal/config"
	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

const minimal = `<Report Name="Minimal">
  <Body><ReportItems>
    <Textbox Name="Hello"><Value>="Hello"</Value></Textbox>
  </ReportItems></Body>
</Report>`

const noBody = `<Report Name="Empty"></Report>`

func newTestServer(opts ...gordl.Option) *Server {
	return NewServer(slog.New(slog.DiscardHandler), config.Default(), opts...)
}

func post(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "ok" || got["version"] != gordl.Version() {
		t.Errorf("body = %v", got)
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		opts     []gordl.Option
		body     string
		status   int
		count    int
		code     types.ErrorCode
		severity diag.Severity
	}{
		{name: "clean", body: minimal, status: http.StatusOK},
		{name: "degraded accepted", body: noBody, status: http.StatusOK, count: 1, code: types.ErrMissingRequired, severity: diag.Degraded},
		{
			name:     "degraded rejected",
			opts:     []gordl.Option{gordl.WithFailSeverity(diag.Degraded)},
			body:     noBody,
			status:   http.StatusUnprocessableEntity,
			count:    1,
			code:     types.ErrMissingRequired,
			severity: diag.Degraded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(tt.opts...), tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			sum, err := diag.DecodeSummary(rec.Body)
			if err != nil {
				t.Fatal(err)
			}
			if sum.Compilation == "" || sum.Compilation != rec.Header().Get("X-Compilation-ID") {
				t.Errorf("compilation id %q, header %q", sum.Compilation, rec.Header().Get("X-Compilation-ID"))
			}
			if sum.Count != tt.count || len(sum.Diagnostics) != tt.count {
				t.Fatalf("diagnostics = %v, want %d", sum.Diagnostics, tt.count)
			}
			if tt.count > 0 && (sum.Diagnostics[0].Code != tt.code || sum.MaxSeverity != tt.severity) {
				t.Errorf("summary = %+v", sum)
			}
		})
	}
}

func TestCompile_SourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    func(*config.Config)
		body   string
		status int
	}{
		{name: "malformed", body: "<Report><Body>", status: http.StatusBadRequest},
		{name: "wrong root", body: "<Document/>", status: http.StatusBadRequest},
		{name: "too large", cfg: func(c *config.Config) { c.MaxBodyBytes = 16 }, body: minimal, status: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			s := NewServer(slog.New(slog.DiscardHandler), cfg)
			rec := post(t, s, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			var got map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if got["error"] == "" {
				t.Errorf("body = %s, want an error message", rec.Body)
			}
		})
	}
}

func TestCompile_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/compile", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}
