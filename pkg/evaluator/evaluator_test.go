package evaluator_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/evaluator"
	"github.com/sandrolain/gordl/pkg/functions"
	"github.com/sandrolain/gordl/pkg/runtime"
	"github.com/sandrolain/gordl/pkg/types"
)

var (
	salesScope  = types.Scope{Kind: types.ScopeDataSet, Name: "Sales", ID: 3, DataSet: 3}
	regionScope = types.Scope{Kind: types.ScopeGroup, Name: "RegionGroup", ID: 12, DataSet: 3}
	salesFields = []string{"Amount", "Region"}
)

// env places expressions in a data region over Sales, optionally inside the
// RegionGroup grouping.
type env struct {
	inGroup bool
	noRow   bool
	params  []string
}

func (e env) DataSet() (types.Scope, bool) {
	if e.noRow {
		return types.Scope{}, false
	}
	return salesScope, true
}

func (e env) Field(ds int, name string) (int, bool) {
	if ds != salesScope.ID {
		return 0, false
	}
	for i, f := range salesFields {
		if strings.EqualFold(f, name) {
			return i, true
		}
	}
	return 0, false
}

func (e env) Parameter(name string) (int, bool) {
	for i, p := range e.params {
		if strings.EqualFold(p, name) {
			return i, true
		}
	}
	return 0, false
}

func (e env) ReportItem(string) (int, bool) { return 0, false }

func (e env) Scope() types.Scope {
	switch {
	case e.noRow:
		return types.ReportScope
	case e.inGroup:
		return regionScope
	default:
		return salesScope
	}
}

func (e env) NamedScope(name string) (types.Scope, bool) {
	switch name {
	case "Sales":
		return salesScope, true
	case "RegionGroup":
		return regionScope, true
	}
	return types.Scope{}, false
}

func (e env) RowContext() bool { return !e.noRow }

func salesRows() *runtime.RowCollection {
	rows := runtime.NewRowCollection(salesScope, salesFields)
	rows.Append(10, "E")
	rows.Append(20, "E")
	rows.Append(5, "W")
	return rows
}

func compile(t *testing.T, c *compiler.Compiler, src string, typ types.ValueType, e compiler.Env) *compiler.Program {
	t.Helper()
	p := c.Compile(src, typ, e)
	if p.Failed() {
		t.Fatalf("Compile(%q): %v", src, p.Errors())
	}
	return p
}

func errCode(err error) types.ErrorCode {
	var te *types.Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func TestSumPerGroup(t *testing.T) {
	ctx := context.Background()
	c := compiler.New()
	ev := evaluator.New()
	exec := runtime.NewExecution()
	rows := salesRows()

	key := compile(t, c, "=Fields!Region.Value", types.TypeString, env{})
	sum := compile(t, c, "=Sum(Amount)", types.TypeFloat, env{inGroup: true})

	agg := sum.Root().(*compiler.Aggregate)
	if !agg.Scope.Same(regionScope) {
		t.Fatalf("Sum bound to %s, want %s", agg.Scope, regionScope)
	}

	groups, err := ev.Group(ctx, exec, rows.Root(), regionScope, []*compiler.Program{key})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	want := map[string]float64{"E": 30, "W": 5}
	for _, g := range groups {
		region := g.Key[0].(string)
		for _, r := range g.Rows {
			got, err := ev.Eval(ctx, sum, r, exec)
			if err != nil {
				t.Fatal(err)
			}
			if got != want[region] {
				t.Errorf("Sum for %s = %v, want %v", region, got, want[region])
			}
		}
	}
}

func TestFieldByPosition(t *testing.T) {
	ctx := context.Background()
	p := compile(t, compiler.New(), "=Fields!Region.Value", types.TypeVariant, env{})
	rows := runtime.NewRowCollection(salesScope, salesFields)
	r := rows.Append(nil, "V")
	got, err := evaluator.New().Eval(ctx, p, r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "V" {
		t.Errorf("got %v, want V", got)
	}
}

func TestUnknownFieldIsNeutral(t *testing.T) {
	ctx := context.Background()
	c := compiler.New()
	r := salesRows().At(0)

	for _, tt := range []struct {
		typ  types.ValueType
		want any
	}{
		{types.TypeString, ""},
		{types.TypeFloat, 0.0},
		{types.TypeInteger, int64(0)},
		{types.TypeBoolean, false},
		{types.TypeVariant, nil},
	} {
		t.Run(tt.typ.String(), func(t *testing.T) {
			p := c.Compile("=Fields!Nope.Value", tt.typ, env{})
			if !p.Failed() || p.Errors()[0].Code != types.ErrUnresolvedSymbol {
				t.Fatalf("want unresolved symbol, got %v", p.Errors())
			}
			got, err := evaluator.New().Eval(ctx, p, r, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}

			_, err = evaluator.New(evaluator.WithStrictErrors(true)).Eval(ctx, p, r, nil)
			if errCode(err) != types.ErrErrorProgram {
				t.Errorf("strict err = %v, want %s", err, types.ErrErrorProgram)
			}
		})
	}
}

func TestScalarExpressions(t *testing.T) {
	ctx := context.Background()
	c := compiler.New()
	ev := evaluator.New()

	tests := []struct {
		src  string
		want any
	}{
		{"=1 + 2 * 3", 7.0},
		{`=7 \ 2`, int64(3)},
		{"=7 Mod 3", 1.0},
		{"=2 ^ 3", 8.0},
		{"=-(4)", -4.0},
		{`="a" & 1`, "a1"},
		{`="a" + "b"`, "ab"},
		{"=Not True", false},
		{"=1 < 2 And 3 > 4", false},
		{"=1 < 2 Or 3 > 4", true},
		{`="b" > "a"`, true},
		{"=1 <> 1", false},
		{`=Iif(1 > 0, "y", "n")`, "y"},
		{`=Iif(True, 1, 1 / 0)`, 1.0},
		{`=Switch(False, 1, True, 2)`, 2.0},
		{`=Choose(2, "a", "b")`, "b"},
		{`=Choose(5, "a", "b")`, nil},
		{"=IsNothing(Nothing)", true},
		{`=Len("héllo")`, int64(5)},
		{`=Left("hello", 2)`, "he"},
		{`=Right("hello", 3)`, "llo"},
		{`=Mid("hello", 2, 3)`, "ell"},
		{`=Mid("hello", 4)`, "lo"},
		{`=UCase("ab") & LCase("CD")`, "ABcd"},
		{`=Trim("  x ")`, "x"},
		{`=Replace("a-b-c", "-", "+")`, "a+b+c"},
		{`=InStr("hello", "l")`, int64(3)},
		{`=InStr("hello", "z")`, int64(0)},
		{`=CStr(1.5)`, "1.5"},
		{`=CDbl("2.5")`, 2.5},
		{`=CInt("42")`, int64(42)},
		{`=CInt(2.5)`, int64(2)},
		{`=CBool("true")`, true},
		{"=Abs(-3)", 3.0},
		{"=Round(2.5)", 2.0},
		{"=Round(3.14159, 2)", 3.14},
		{"=Floor(2.7)", 2.0},
		{"=Ceiling(2.1)", 3.0},
		{`=Year(CDate("2024-03-15"))`, int64(2024)},
		{`=Month("2024-03-15")`, int64(3)},
		{`=Day("2024-03-15")`, int64(15)},
		{`=Format(1234.5, "N2")`, "1,234.50"},
		{`=Format(0.256, "P1")`, "25.6%"},
		{`=Format(3.14159, "0.00")`, "3.14"},
		{`=Format(1234567, "#,##0")`, "1,234,567"},
		{`=Format(-5, "C")`, "-$5.00"},
		{`=Format(7, "D3")`, "007"},
		{`=Format(CDate("2024-03-05"), "dd/MM/yyyy")`, "05/03/2024"},
		{`="Page " & Globals!PageNumber`, "Page 2"},
	}
	exec := runtime.NewExecution(runtime.WithGlobal(types.GlobalPageNumber, 2))
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := compile(t, c, tt.src, types.TypeVariant, env{noRow: true})
			got, err := ev.Eval(ctx, p, nil, exec)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestNowAndToday(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)
	ev := evaluator.New(evaluator.WithClock(func() time.Time { return fixed }))
	c := compiler.New()

	got, _ := ev.Eval(ctx, compile(t, c, "=Now()", types.TypeDateTime, env{noRow: true}), nil, nil)
	if !got.(time.Time).Equal(fixed) {
		t.Errorf("Now = %v, want %v", got, fixed)
	}
	got, _ = ev.Eval(ctx, compile(t, c, "=Today()", types.TypeDateTime, env{noRow: true}), nil, nil)
	if want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC); !got.(time.Time).Equal(want) {
		t.Errorf("Today = %v, want %v", got, want)
	}
}

func TestRuntimeErrors(t *testing.T) {
	ctx := context.Background()
	c := compiler.New()

	tests := []struct {
		src  string
		code types.ErrorCode
	}{
		{"=1 / 0", types.ErrDivideByZero},
		{`=1 Mod 0`, types.ErrDivideByZero},
		{`="x" * 2`, types.ErrTypeMismatch},
		{`=CDbl("abc")`, types.ErrTypeMismatch},
		{`=True < "x"`, types.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := compile(t, c, tt.src, types.TypeFloat, env{noRow: true})

			got, err := evaluator.New().Eval(ctx, p, nil, nil)
			if err != nil || got != 0.0 {
				t.Errorf("lenient: got %v, %v; want 0, nil", got, err)
			}

			_, err = evaluator.New(evaluator.WithStrictErrors(true)).Eval(ctx, p, nil, nil)
			if errCode(err) != tt.code {
				t.Errorf("strict err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCoercionMismatch(t *testing.T) {
	p := compile(t, compiler.New(), `="abc"`, types.TypeInteger, env{noRow: true})
	_, err := evaluator.New(evaluator.WithStrictErrors(true)).Eval(context.Background(), p, nil, nil)
	if errCode(err) != types.ErrTypeMismatch {
		t.Errorf("err = %v, want %s", err, types.ErrTypeMismatch)
	}
}

func TestDataSetAggregates(t *testing.T) {
	ctx := context.Background()
	c := compiler.New()
	ev := evaluator.New()
	rows := salesRows()
	exec := runtime.NewExecution()
	r := rows.At(0)

	tests := []struct {
		src  string
		want any
	}{
		{"=Sum(Amount)", int64(35)},
		{"=Count(Amount)", int64(3)},
		{"=CountDistinct(Region)", int64(2)},
		{"=CountRows()", int64(3)},
		{"=Min(Amount)", int64(5)},
		{"=Max(Region)", "W"},
		{"=First(Region)", "E"},
		{"=Last(Amount)", int64(5)},
		{`=Sum(Amount, "Sales") / CountRows("Sales")`, 35.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ev.Eval(ctx, compile(t, c, tt.src, types.TypeVariant, env{}), r, exec)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}

	avg, _ := ev.Eval(ctx, compile(t, c, "=Avg(Amount)", types.TypeFloat, env{}), r, exec)
	if math.Abs(avg.(float64)-35.0/3) > 1e-9 {
		t.Errorf("Avg = %v", avg)
	}
	v, _ := ev.Eval(ctx, compile(t, c, "=Var(Amount)", types.TypeFloat, env{}), r, exec)
	if math.Abs(v.(float64)-58.333333333) > 1e-6 {
		t.Errorf("Var = %v, want 58.33", v)
	}
	sd, _ := ev.Eval(ctx, compile(t, c, "=StDev(Amount)", types.TypeFloat, env{}), r, exec)
	if math.Abs(sd.(float64)-math.Sqrt(v.(float64))) > 1e-9 {
		t.Errorf("StDev = %v", sd)
	}
}

func TestExactSum(t *testing.T) {
	rows := runtime.NewRowCollection(salesScope, salesFields)
	rows.Append(0.1, "E")
	rows.Append(0.1, "E")
	rows.Append(decimal.RequireFromString("0.1"), "E")

	p := compile(t, compiler.New(), "=Sum(Amount)", types.TypeFloat, env{})
	got, err := evaluator.New().Eval(context.Background(), p, rows.At(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0.3 {
		t.Errorf("Sum = %v, want 0.3", got)
	}
}

func TestRowPositionAggregates(t *testing.T) {
	ctx := context.Background()
	c := compiler.New()
	ev := evaluator.New()
	rows := salesRows()
	exec := runtime.NewExecution()

	rowNumber := compile(t, c, "=RowNumber()", types.TypeInteger, env{})
	running := compile(t, c, "=RunningValue(Amount, Sum)", types.TypeInteger, env{})
	prev := compile(t, c, "=Previous(Amount)", types.TypeVariant, env{})

	wantRunning := []int64{10, 30, 35}
	wantPrev := []any{nil, int64(10), int64(20)}
	for i, r := range rows.Rows() {
		n, _ := ev.Eval(ctx, rowNumber, r, exec)
		if n != int64(i+1) {
			t.Errorf("row %d: RowNumber = %v", i, n)
		}
		rv, _ := ev.Eval(ctx, running, r, exec)
		if rv != wantRunning[i] {
			t.Errorf("row %d: RunningValue = %v, want %d", i, rv, wantRunning[i])
		}
		pv, _ := ev.Eval(ctx, prev, r, exec)
		if pv != wantPrev[i] {
			t.Errorf("row %d: Previous = %v, want %v", i, pv, wantPrev[i])
		}
	}
}

func TestRowNumberWithinGroup(t *testing.T) {
	ctx := context.Background()
	c := compiler.New()
	ev := evaluator.New()
	exec := runtime.NewExecution()
	rows := salesRows()

	key := compile(t, c, "=Region", types.TypeString, env{})
	groups, err := ev.Group(ctx, exec, rows.Root(), regionScope, []*compiler.Program{key})
	if err != nil {
		t.Fatal(err)
	}
	inGroup := compile(t, c, "=RowNumber()", types.TypeInteger, env{inGroup: true})
	overall := compile(t, c, `=RowNumber("Sales")`, types.TypeInteger, env{inGroup: true})

	w := groups[1].Rows[0]
	if got, _ := ev.Eval(ctx, inGroup, w, exec); got != int64(1) {
		t.Errorf("RowNumber in group = %v, want 1", got)
	}
	if got, _ := ev.Eval(ctx, overall, w, exec); got != int64(3) {
		t.Errorf("RowNumber in dataset = %v, want 3", got)
	}
}

func TestAggregateMemo(t *testing.T) {
	ctx := context.Background()
	rows := salesRows()
	exec := runtime.NewExecution()
	ev := evaluator.New()
	p := compile(t, compiler.New(), "=Sum(Amount)", types.TypeInteger, env{})

	first, _ := ev.Eval(ctx, p, rows.At(0), exec)
	rows.At(2).Data[0] = 100
	again, _ := ev.Eval(ctx, p, rows.At(1), exec)
	if first != again {
		t.Errorf("memoized value changed: %v then %v", first, again)
	}

	exec.ResetMemo()
	fresh, _ := ev.Eval(ctx, p, rows.At(1), exec)
	if fresh != int64(130) {
		t.Errorf("after reset = %v, want 130", fresh)
	}

	// A second execution never sees the first one's state.
	other, _ := ev.Eval(ctx, p, rows.At(0), runtime.NewExecution())
	if other != int64(130) {
		t.Errorf("new execution = %v, want 130", other)
	}
}

func TestAggregateFromOtherDataSet(t *testing.T) {
	ctx := context.Background()
	rows := salesRows()
	exec := runtime.NewExecution()
	exec.AddDataSet(rows)

	// No current row: the dataset is found through the execution.
	p := compile(t, compiler.New(), `=Sum(Fields!Amount.Value, "Sales")`, types.TypeInteger, env{})
	got, err := evaluator.New(evaluator.WithStrictErrors(true)).Eval(ctx, p, nil, exec)
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(35) {
		t.Errorf("got %v, want 35", got)
	}
}

func TestScopeNotActive(t *testing.T) {
	p := compile(t, compiler.New(), "=Sum(Amount)", types.TypeInteger, env{inGroup: true})
	r := salesRows().At(0) // not grouped
	_, err := evaluator.New(evaluator.WithStrictErrors(true)).Eval(context.Background(), p, r, nil)
	if errCode(err) != types.ErrScopeNotActive {
		t.Errorf("err = %v, want %s", err, types.ErrScopeNotActive)
	}
}

func TestParametersAndCustomFunctions(t *testing.T) {
	reg, err := functions.NewRegistry(functions.CustomFunctionDef{
		Name: "Twice", MinArgs: 1, MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			return args[0].(float64) * 2, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	c := compiler.New(compiler.WithFunctions(reg))
	p := compile(t, c, "=Twice(Parameters!Year) + 1", types.TypeInteger, env{noRow: true, params: []string{"Year"}})

	exec := runtime.NewExecution(runtime.WithParameters(1000.0))
	got, err := evaluator.New().Eval(context.Background(), p, nil, exec)
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(2001) {
		t.Errorf("got %v, want 2001", got)
	}
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	rows := salesRows()
	pred := compile(t, compiler.New(), "=Amount >= 10", types.TypeBoolean, env{})
	out, err := evaluator.New().Filter(ctx, runtime.NewExecution(), rows.Root(), pred)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 || !out.Scope.Same(salesScope) {
		t.Errorf("filtered %d rows in %s, want 2 in Sales", out.Len(), out.Scope)
	}
}

func TestConcurrentExecutions(t *testing.T) {
	ctx := context.Background()
	p := compile(t, compiler.New(), "=Sum(Amount)", types.TypeInteger, env{})
	ev := evaluator.New()

	done := make(chan any, 8)
	for range 8 {
		go func() {
			rows := salesRows()
			v, _ := ev.Eval(ctx, p, rows.At(0), runtime.NewExecution())
			done <- v
		}()
	}
	for range 8 {
		if v := <-done; v != int64(35) {
			t.Errorf("got %v, want 35", v)
		}
	}
}
