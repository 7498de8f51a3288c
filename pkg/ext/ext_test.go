package ext_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandrolain/gordl"
	"github.com/sandrolain/gordl/pkg/evaluator"
	"github.com/sandrolain/gordl/pkg/ext"
	"github.com/sandrolain/gordl/pkg/ext/extcrypto"
	"github.com/sandrolain/gordl/pkg/ext/extnumeric"
	"github.com/sandrolain/gordl/pkg/ext/extstring"
	"github.com/sandrolain/gordl/pkg/functions"
	"github.com/sandrolain/gordl/pkg/report"
	"github.com/sandrolain/gordl/pkg/types"
)

// evalTextbox compiles a report with one textbox holding expr and evaluates
// it outside any row.
func evalTextbox(t *testing.T, expr string, opts ...gordl.Option) (any, error) {
	t.Helper()
	ctx := t.Context()
	doc := `<Report><Body><ReportItems><Textbox Name="T"><Value>` + expr + `</Value></Textbox></ReportItems></Body></Report>`
	opts = append([]gordl.Option{gordl.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	rep, err := gordl.Compile(ctx, strings.NewReader(doc), opts...)
	if err != nil {
		t.Fatalf("Compile(%q): %v", expr, err)
	}
	defer rep.Close(ctx)
	if ds := rep.Diagnostics(); len(ds) > 0 {
		t.Fatalf("Compile(%q): %v", expr, ds)
	}
	exec, err := gordl.NewExecution(ctx, rep, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close(ctx)
	it, _ := rep.Item("T")
	return evaluator.New(evaluator.WithStrictErrors(true)).Eval(ctx, it.(*report.Textbox).Value.Program(), nil, exec)
}

func TestWithAll(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{`=StartsWith("Hello World", "Hello")`, true},
		{`=EndsWith("Hello World", "Hello")`, false},
		{`=Contains("Hello World", "WORLD", true)`, true},
		{`=InStrRev("abcabc", "bc")`, int64(5)},
		{`=InStrRev("abc", "x")`, int64(0)},
		{`=StrReverse("abc")`, "cba"},
		{`=PadLeft("7", 3, "0")`, "007"},
		{`=PadRight("ab", 5, "-=")`, "ab-=-"},
		{`=StrDup(3, "ab")`, "ababab"},
		{`=ProperCase("hELLO wORLD")`, "Hello World"},
		{`=Sign(-2.5)`, int64(-1)},
		{`=Fix(-2.7)`, -2.0},
		{`=Clamp(15, 0, 10)`, 10.0},
		{`=Sqrt(16)`, 4.0},
		{`=Pow(2, 10)`, 1024.0},
		{`=Log(1)`, 0.0},
		{`=Hash("abc")`, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{`=Hash("abc", "md5")`, "900150983cd24fb0d6963f7d28e17f72"},
		{`=IsNumeric("12.5")`, true},
		{`=IsNumeric("twelve")`, false},
		{`=IsDate("2024-03-01")`, true},
		{`=Coalesce(Nothing, "x", "y")`, "x"},
		{`=Year(DateSerial(2024, 14, 1))`, int64(2025)},
		{`=DateDiff("m", "2024-01-31", "2024-03-01")`, int64(2)},
		{`=Weekday(DateSerial(2024, 3, 3))`, int64(1)},
		{`=MonthName(DateAdd("q", 1, "2024-01-15"))`, "April"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalTextbox(t, tt.expr, ext.WithAll())
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestWith_Category(t *testing.T) {
	got, err := evalTextbox(t, `=StartsWith("abc", "a")`, ext.With(extstring.All()))
	if err != nil || got != true {
		t.Errorf("got %v, %v", got, err)
	}

	ctx := t.Context()
	doc := `<Report><Body><ReportItems><Textbox Name="T"><Value>=Sqrt(4)</Value></Textbox></ReportItems></Body></Report>`
	rep, err := gordl.Compile(ctx, strings.NewReader(doc),
		gordl.WithLogger(slog.New(slog.DiscardHandler)), ext.With(extstring.All()))
	if err != nil {
		t.Fatal(err)
	}
	defer rep.Close(ctx)
	if ds := rep.Diagnostics().WithCode(types.ErrUndefinedFunction); len(ds) != 1 {
		t.Errorf("diagnostics = %v, want Sqrt undefined without the numeric pack", rep.Diagnostics())
	}
}

func TestNewRegistry_Duplicate(t *testing.T) {
	if _, err := ext.NewRegistry(extstring.All(), extstring.All()); err == nil {
		t.Error("expected an error for duplicate definitions")
	}
	reg, err := ext.NewRegistry(ext.All())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.Lookup("newguid"); !ok {
		t.Error("NewGuid not registered")
	}
}

func TestFunctionErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		def  functions.CustomFunctionDef
		args []any
	}{
		{"negative sqrt", extnumeric.Sqrt(), []any{-1.0}},
		{"log base one", extnumeric.Log(), []any{8.0, 1.0}},
		{"clamp bounds", extnumeric.Clamp(), []any{1.0, 5.0, 2.0}},
		{"not a number", extnumeric.Sign(), []any{"abc"}},
		{"negative count", extstring.StrDup(), []any{-1.0, "x"}},
		{"empty pad", extstring.PadLeft(), []any{"x", 3.0, ""}},
		{"hash algorithm", extcrypto.Hash(), []any{"x", "crc32"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.def.Fn(ctx, tt.args...); err == nil {
				t.Errorf("%s%v: expected an error", tt.def.Name, tt.args)
			}
		})
	}
}

func TestDecimalArguments(t *testing.T) {
	ctx := context.Background()
	d := decimal.RequireFromString("-12.75")

	got, err := extnumeric.Fix().Fn(ctx, d)
	if err != nil || !got.(decimal.Decimal).Equal(decimal.NewFromInt(-12)) {
		t.Errorf("Fix(%s) = %v, %v", d, got, err)
	}
	got, err = extnumeric.Clamp().Fn(ctx, d, -10.0, 10.0)
	if err != nil || !got.(decimal.Decimal).Equal(decimal.NewFromInt(-10)) {
		t.Errorf("Clamp(%s) = %v, %v", d, got, err)
	}
	got, err = extnumeric.Sign().Fn(ctx, d)
	if err != nil || got != int64(-1) {
		t.Errorf("Sign(%s) = %v, %v", d, got, err)
	}
}

func TestNewGuid(t *testing.T) {
	ctx := context.Background()
	a, _ := extcrypto.NewGuid().Fn(ctx)
	b, _ := extcrypto.NewGuid().Fn(ctx)
	if a == b || len(a.(string)) != 36 {
		t.Errorf("NewGuid() = %v, %v", a, b)
	}
}

func TestHMAC(t *testing.T) {
	got, err := extcrypto.HMAC().Fn(context.Background(), "The quick brown fox jumps over the lazy dog", "key")
	want := "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if err != nil || got != want {
		t.Errorf("HMAC = %v, %v; want %s", got, err, want)
	}
}

func TestDateAddHours(t *testing.T) {
	base := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	for _, def := range ext.All() {
		if def.Name != "DateAdd" {
			continue
		}
		v, err := def.Fn(context.Background(), "h", 3.0, base)
		if err != nil || !v.(time.Time).Equal(base.Add(3*time.Hour)) {
			t.Errorf("DateAdd(h) = %v, %v", v, err)
		}
	}
}
