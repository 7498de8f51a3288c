package runtime_test

import (
	"sync"
	"testing"

	"github.com/sandrolain/gordl/pkg/runtime"
	"github.com/sandrolain/gordl/pkg/types"
)

var sales = types.Scope{Kind: types.ScopeDataSet, Name: "Sales", ID: 3, DataSet: 3}

func TestRowCollection_Append(t *testing.T) {
	rows := runtime.NewRowCollection(sales, []string{"Amount", "Region"})
	rows.Append(10, "E")
	rows.Append(20, "E")
	r := rows.Append(5, "W")

	if rows.Len() != 3 {
		t.Fatalf("Len = %d, want 3", rows.Len())
	}
	if r.RowNumber != 3 || r.Index() != 2 {
		t.Errorf("row number/index = %d/%d, want 3/2", r.RowNumber, r.Index())
	}
	if r.Group != rows.Root() || r.Rows != rows {
		t.Error("row must belong to the collection root entry")
	}
	if got := r.Value(1); got != "W" {
		t.Errorf("Value(1) = %v, want W", got)
	}
	if got := r.Value(9); got != nil {
		t.Errorf("Value(9) = %v, want nil", got)
	}
}

func TestNewRowFrom_SharesData(t *testing.T) {
	rows := runtime.NewRowCollection(sales, []string{"Amount"})
	src := rows.Append(10)
	src.Level = 2

	cp := runtime.NewRowFrom(src, 0)
	if cp.Level != 0 {
		t.Errorf("Level = %d, want 0", cp.Level)
	}
	if cp.Group != nil {
		t.Error("copied row must not inherit the group")
	}
	cp.Data[0] = 99
	if src.Data[0] != 99 {
		t.Error("Data must be aliased, not copied")
	}
}

func TestGroupEntry_Find(t *testing.T) {
	rows := runtime.NewRowCollection(sales, nil)
	region := types.Scope{Kind: types.ScopeGroup, Name: "Region", ID: 12, DataSet: 3}
	city := types.Scope{Kind: types.ScopeGroup, Name: "City", ID: 15, DataSet: 3}

	e := runtime.NewGroupEntry(region, []any{"E"}, rows.Root())
	c := runtime.NewGroupEntry(city, []any{"Rome"}, e)

	if got, ok := c.Find(region); !ok || got != e {
		t.Error("Find(region) did not return the region entry")
	}
	if got, ok := c.Find(sales); !ok || got != rows.Root() {
		t.Error("Find(dataset) did not return the root")
	}
	other := types.Scope{Kind: types.ScopeGroup, Name: "Region", ID: 99}
	if _, ok := c.Find(other); ok {
		t.Error("scopes must match by ID, not by name")
	}
	if c.Root() != rows.Root() || c.Depth() != 2 {
		t.Errorf("Root/Depth mismatch: depth %d", c.Depth())
	}
}

func TestExecution_Slots(t *testing.T) {
	exec := runtime.NewExecution(
		runtime.WithParameters(2024, "IT"),
		runtime.WithGlobal(types.GlobalPageNumber, 3),
	)
	if exec.Parameter(1) != "IT" || exec.Parameter(5) != nil {
		t.Error("parameter slots mismatch")
	}
	exec.SetParameter(4, true)
	if exec.Parameter(4) != true {
		t.Error("SetParameter did not grow the slots")
	}
	if exec.Global(types.GlobalPageNumber) != 3 {
		t.Error("global slot mismatch")
	}
	if exec.Global(types.GlobalExecutionTime) == nil {
		t.Error("ExecutionTime must default to now")
	}
	exec.SetItem(40, "total")
	if exec.Item(40) != "total" {
		t.Error("item value mismatch")
	}
}

func TestExecution_MemoIsPerEntry(t *testing.T) {
	exec := runtime.NewExecution()
	rows := runtime.NewRowCollection(sales, nil)
	node := new(int)
	a := runtime.NewGroupEntry(sales, nil, rows.Root())

	exec.SetMemo(node, rows.Root(), 1)
	if _, ok := exec.Memo(node, a); ok {
		t.Error("memo leaked across entries")
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exec.SetMemo(node, a, i)
			exec.Memo(node, a)
		}()
	}
	wg.Wait()

	exec.ResetMemo()
	if _, ok := exec.Memo(node, rows.Root()); ok {
		t.Error("ResetMemo kept values")
	}
}

func TestExecution_CallCodeWithoutModules(t *testing.T) {
	exec := runtime.NewExecution()
	if _, err := exec.CallCode(t.Context(), nil, nil); err == nil {
		t.Error("expected error without code modules")
	}
	if err := exec.Close(t.Context()); err != nil {
		t.Errorf("Close: %v", err)
	}
}
