package gordl_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandrolain/gordl"
	"github.com/sandrolain/gordl/pkg/cache"
	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/evaluator"
	"github.com/sandrolain/gordl/pkg/report"
	"github.com/sandrolain/gordl/pkg/runtime"
	"github.com/sandrolain/gordl/pkg/types"
)

var quiet = gordl.WithLogger(slog.New(slog.DiscardHandler))

const salesByRegion = `<Report Name="SalesByRegion">
  <DataSources>
    <DataSource Name="Main"><ConnectionProperties><DataProvider>SQL</DataProvider></ConnectionProperties></DataSource>
  </DataSources>
  <DataSets>
    <DataSet Name="Sales">
      <Query><DataSourceName>Main</DataSourceName><CommandText>SELECT amount, region FROM sales</CommandText></Query>
      <Fields>
        <Field Name="Amount"><DataField>amount</DataField></Field>
        <Field Name="Region"><DataField>region</DataField></Field>
      </Fields>
    </DataSet>
  </DataSets>
  <ReportParameters>
    <ReportParameter Name="MinAmount">
      <DataType>Float</DataType>
      <DefaultValue><Values><Value>=1 + 1</Value></Values></DefaultValue>
    </ReportParameter>
  </ReportParameters>
  <Body><ReportItems>
    <Table Name="ByRegion">
      <TableGroups><TableGroup>
        <Grouping Name="RegionGroup">
          <GroupExpressions><GroupExpression>=Fields!Region.Value</GroupExpression></GroupExpressions>
        </Grouping>
        <Header><TableRows><TableRow><TableCells>
          <TableCell><ReportItems><Textbox Name="RegionTotal"><Value>=Sum(Fields!Amount.Value)</Value></Textbox></ReportItems></TableCell>
        </TableCells></TableRow></TableRows></Header>
      </TableGroup></TableGroups>
      <Details><TableRows><TableRow><TableCells>
        <TableCell><ReportItems><Textbox Name="Unknown"><Value>=Fields!Missing.Value</Value></Textbox></ReportItems></TableCell>
      </TableCells></TableRow></TableRows></Details>
    </Table>
  </ReportItems></Body>
</Report>`

func compileSales(t *testing.T, opts ...gordl.Option) *report.Report {
	t.Helper()
	rep, err := gordl.Compile(t.Context(), strings.NewReader(salesByRegion), append([]gordl.Option{quiet}, opts...)...)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	t.Cleanup(func() { _ = rep.Close(t.Context()) })
	return rep
}

func textbox(t *testing.T, rep *report.Report, name string) *report.Textbox {
	t.Helper()
	it, ok := rep.Item(name)
	if !ok {
		t.Fatalf("item %s not found", name)
	}
	return it.(*report.Textbox)
}

func salesRows(rep *report.Report) *runtime.RowCollection {
	ds, _ := rep.DataSet("Sales")
	rows := runtime.NewRowCollection(ds.Scope(), ds.FieldNames())
	rows.Append(10.0, "E")
	rows.Append(20.0, "E")
	rows.Append(5.0, "W")
	return rows
}

func TestSumPerRegion(t *testing.T) {
	ctx := t.Context()
	rep := compileSales(t)
	rows := salesRows(rep)

	exec, err := gordl.NewExecution(ctx, rep, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close(ctx)
	exec.AddDataSet(rows)

	ev := evaluator.New()
	g, _ := rep.Grouping("RegionGroup")
	groups, err := ev.Group(ctx, exec, rows.Root(), g.Scope(), report.Programs(g.Expressions))
	if err != nil {
		t.Fatal(err)
	}

	total := textbox(t, rep, "RegionTotal").Value.Program()
	got := make(map[any]any)
	for _, entry := range groups {
		v, err := ev.Eval(ctx, total, entry.Rows[0], exec)
		if err != nil {
			t.Fatal(err)
		}
		got[entry.Key[0]] = v
	}
	if len(got) != 2 || got["E"] != 30.0 || got["W"] != 5.0 {
		t.Errorf("totals = %v, want E=30 W=5", got)
	}
}

func TestUnknownFieldIsNeutral(t *testing.T) {
	ctx := t.Context()
	rep := compileSales(t)

	tb := textbox(t, rep, "Unknown")
	ds := rep.Diagnostics()
	if len(ds) != 1 || ds[0].Code != types.ErrUnresolvedSymbol || ds[0].NodeID != tb.ID() {
		t.Fatalf("diagnostics = %v, want one %s on node %d", ds, types.ErrUnresolvedSymbol, tb.ID())
	}

	rows := salesRows(rep)
	exec, _ := gordl.NewExecution(ctx, rep, nil)
	defer exec.Close(ctx)
	v, err := evaluator.New().Eval(ctx, tb.Value.Program(), rows.At(0), exec)
	if err != nil || v != nil {
		t.Errorf("Eval = %v, %v; want Nothing without error", v, err)
	}
}

func TestNewExecution_Parameters(t *testing.T) {
	ctx := t.Context()
	rep := compileSales(t)

	exec, err := gordl.NewExecution(ctx, rep, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close(ctx)
	if v := exec.Parameter(0); v != 2.0 {
		t.Errorf("default MinAmount = %#v, want 2.0", v)
	}
	if v := exec.Global(types.GlobalReportName); v != "SalesByRegion" {
		t.Errorf("ReportName = %v", v)
	}

	exec2, err := gordl.NewExecution(ctx, rep, map[string]any{"minamount": 7.5})
	if err != nil {
		t.Fatal(err)
	}
	defer exec2.Close(ctx)
	if v := exec2.Parameter(0); v != 7.5 {
		t.Errorf("MinAmount = %#v, want 7.5", v)
	}

	if _, err := gordl.NewExecution(ctx, rep, map[string]any{"Nope": 1}); err == nil {
		t.Error("expected an error for an undefined parameter")
	}
}

func TestCompile_FailSeverity(t *testing.T) {
	_, err := gordl.Compile(t.Context(), strings.NewReader(salesByRegion), quiet, gordl.WithFailSeverity(diag.Degraded))
	if err != nil {
		t.Errorf("severity 4 must not reach threshold 8: %v", err)
	}

	rep, err := gordl.Compile(t.Context(), strings.NewReader(salesByRegion), quiet, gordl.WithFailSeverity(diag.Recoverable))
	var rejected *diag.RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want *diag.RejectedError", err)
	}
	defer rep.Close(t.Context())
	if rep == nil || rejected.Threshold != diag.Recoverable || len(rejected.Diagnostics) != 1 {
		t.Errorf("rejected = %+v", rejected)
	}

	rep2, err := gordl.Compile(t.Context(), strings.NewReader(salesByRegion), quiet,
		gordl.WithExpressionSeverity(diag.Degraded), gordl.WithFailSeverity(diag.Degraded))
	if !errors.As(err, &rejected) {
		t.Errorf("err = %v, want *diag.RejectedError with raised expression severity", err)
	}
	if rep2 != nil {
		_ = rep2.Close(t.Context())
	}
}

func TestCompile_SourceError(t *testing.T) {
	_, err := gordl.Compile(t.Context(), strings.NewReader("<Report><Body>"), quiet)
	var se *gordl.SourceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *gordl.SourceError", err)
	}
	if !strings.Contains(err.Error(), string(types.ErrMalformedSource)) {
		t.Errorf("error %q does not carry %s", err, types.ErrMalformedSource)
	}
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.rdl")
	if err := os.WriteFile(path, []byte(salesByRegion), 0o600); err != nil {
		t.Fatal(err)
	}
	rep, err := gordl.CompileFile(t.Context(), path, quiet)
	if err != nil {
		t.Fatal(err)
	}
	defer rep.Close(t.Context())
	if rep.Name != "SalesByRegion" {
		t.Errorf("Name = %q", rep.Name)
	}

	if _, err := gordl.CompileFile(t.Context(), filepath.Join(t.TempDir(), "missing.rdl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestCompile_SharedCache(t *testing.T) {
	c := cache.New(64)
	compileSales(t, gordl.WithCache(c))
	misses := c.Stats().Misses
	compileSales(t, gordl.WithCache(c))

	st := c.Stats()
	if st.Misses != misses {
		t.Errorf("second compilation parsed again: misses %d -> %d", misses, st.Misses)
	}
	if st.Hits == 0 {
		t.Error("expected cache hits")
	}
}
