package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/sandrolain/gordl/pkg/types"
)

const (
	cleanReport = `<Report Name="Clean"><Body><ReportItems>
  <Textbox Name="Hello"><Value>="Hello"</Value></Textbox>
</ReportItems></Body></Report>`
	noBodyReport = `<Report Name="NoBody"/>`
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SilenceErrors = true
	root.SilenceUsage = true
	err := root.Execute()
	return out.String(), err
}

func TestCheck_Text(t *testing.T) {
	clean := writeFile(t, "clean.rdl", cleanReport)
	noBody := writeFile(t, "nobody.rdl", noBodyReport)

	out, err := run(t, "check", clean)
	if err != nil {
		t.Fatalf("check clean: %v", err)
	}
	if !strings.Contains(out, clean) || !strings.Contains(out, "ok") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "check", clean, noBody)
	var rejected *rejectedFilesError
	if !errors.As(err, &rejected) || rejected.failed != 1 || rejected.total != 2 {
		t.Fatalf("err = %v, want one rejected file of two", err)
	}
	if !strings.Contains(out, "rejected") || !strings.Contains(out, string(types.ErrMissingRequired)) {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, "check", "--fail-severity", "0", noBody); err != nil {
		t.Errorf("a zero threshold accepts every readable file: %v", err)
	}
}

func TestCheck_JSON(t *testing.T) {
	clean := writeFile(t, "clean.rdl", cleanReport)
	missing := filepath.Join(t.TempDir(), "missing.rdl")

	out, err := run(t, "check", "--format", "json", clean, missing)
	if err == nil {
		t.Fatal("expected a rejection for the unreadable file")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("output lines = %d, want 2: %q", len(lines), out)
	}
	var results []fileResult
	for _, line := range lines {
		var res fileResult
		if err := json.Unmarshal([]byte(line), &res); err != nil {
			t.Fatal(err)
		}
		results = append(results, res)
	}
	if results[0].File != clean || results[0].Rejected || results[0].Compilation == "" {
		t.Errorf("clean result = %+v", results[0])
	}
	if results[1].File != missing || !results[1].Rejected || results[1].Error == "" {
		t.Errorf("missing result = %+v", results[1])
	}
}

func TestCheck_InvalidFlags(t *testing.T) {
	clean := writeFile(t, "clean.rdl", cleanReport)
	if _, err := run(t, "check", "--format", "xml", clean); err == nil {
		t.Error("expected an error for an unknown format")
	}
	if _, err := run(t, "check"); err == nil {
		t.Error("expected an error without files")
	}
	if _, err := run(t, "--log-level", "loud", "check", clean); err == nil {
		t.Error("expected a configuration error")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.HasPrefix(out, "v") {
		t.Errorf("version = %q, %v", out, err)
	}
}

func TestCheck_ExtensionsFromConfig(t *testing.T) {
	doc := writeFile(t, "ext.rdl", `<Report><Body><ReportItems>
  <Textbox Name="T"><Value>=PadLeft("7", 3, "0")</Value></Textbox>
</ReportItems></Body></Report>`)

	out, err := run(t, "check", "--fail-severity", "4", doc)
	if err == nil || !strings.Contains(out, string(types.ErrUndefinedFunction)) {
		t.Fatalf("without extensions: %v, %q", err, out)
	}

	cfg := writeFile(t, "gordl.yaml", "extensions: true\n")
	if out, err := run(t, "--config", cfg, "check", "--fail-severity", "4", doc); err != nil {
		t.Errorf("with extensions: %v, %q", err, out)
	}
}
