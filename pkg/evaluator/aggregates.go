package evaluator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/runtime"
	"github.com/sandrolain/gordl/pkg/types"
)

// scopeEntry finds the group entry matching the bound scope of a.
func scopeEntry(a *compiler.Aggregate, f frame) (*runtime.GroupEntry, error) {
	if f.row != nil && f.row.Group != nil {
		if a.Scope.Kind == types.ScopeReport {
			return f.row.Group.Root(), nil
		}
		if g, ok := f.row.Group.Find(a.Scope); ok {
			return g, nil
		}
	}
	if a.Scope.Kind == types.ScopeDataSet {
		if rows, ok := f.exec.DataSet(a.Scope.ID); ok {
			return rows.Root(), nil
		}
	}
	return nil, types.NewError(types.ErrScopeNotActive,
		fmt.Sprintf("%s: scope %s is not active for the current row", a.Func, a.Scope), a.Pos())
}

func (e *Evaluator) evalAggregate(ctx context.Context, a *compiler.Aggregate, f frame) (any, error) {
	if a.Func == compiler.AggPrevious {
		return e.previous(ctx, a, f)
	}

	entry, err := scopeEntry(a, f)
	if err != nil {
		return nil, err
	}

	switch a.Func {
	case compiler.AggRowNumber:
		return int64(len(upToCurrent(entry, f.row))), nil
	case compiler.AggRunningValue:
		rows := upToCurrent(entry, f.row)
		vals, err := e.collect(ctx, a.Arg, rows, f.exec)
		if err != nil {
			return nil, err
		}
		return accumulate(a.Running, vals, len(rows))
	}

	if v, ok := f.exec.Memo(a, entry); ok {
		return v, nil
	}
	var vals []any
	if a.Arg != nil {
		vals, err = e.collect(ctx, a.Arg, entry.Rows, f.exec)
		if err != nil {
			return nil, err
		}
	}
	v, err := accumulate(a.Func, vals, len(entry.Rows))
	if err != nil {
		return nil, err
	}
	f.exec.SetMemo(a, entry, v)
	return v, nil
}

// previous evaluates the argument for the row before the current one in its
// group.
func (e *Evaluator) previous(ctx context.Context, a *compiler.Aggregate, f frame) (any, error) {
	if f.row == nil || f.row.Group == nil {
		return nil, types.NewError(types.ErrScopeNotActive, "Previous evaluated without a current row", a.Pos())
	}
	i := f.row.Index()
	if i == 0 || i > len(f.row.Group.Rows) {
		return nil, nil
	}
	return e.eval(ctx, a.Arg, frame{row: f.row.Group.Rows[i-1], exec: f.exec})
}

// upToCurrent returns the rows of entry up to and including the current
// row. Rows of an entry keep collection order, so the cut is found by row
// number. Entries of another dataset are returned whole.
func upToCurrent(entry *runtime.GroupEntry, row *runtime.Row) []*runtime.Row {
	if row == nil || len(entry.Rows) == 0 || entry.Rows[0].Rows != row.Rows {
		return entry.Rows
	}
	n := sort.Search(len(entry.Rows), func(i int) bool {
		return entry.Rows[i].RowNumber > row.RowNumber
	})
	return entry.Rows[:n]
}

func (e *Evaluator) collect(ctx context.Context, arg compiler.Node, rows []*runtime.Row, exec *runtime.Execution) ([]any, error) {
	vals := make([]any, len(rows))
	for i, r := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v, err := e.eval(ctx, arg, frame{row: r, exec: exec})
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// accumulate applies fn to vals. Nothing values are skipped except by
// First and Last. count is the number of rows in scope.
func accumulate(fn compiler.AggFunc, vals []any, count int) (any, error) {
	switch fn {
	case compiler.AggCountRows:
		return int64(count), nil

	case compiler.AggCount:
		n := int64(0)
		for _, v := range vals {
			if v != nil {
				n++
			}
		}
		return n, nil

	case compiler.AggCountDistinct:
		seen := make(map[any]struct{})
		for _, v := range vals {
			if v != nil {
				seen[keyOf(v)] = struct{}{}
			}
		}
		return int64(len(seen)), nil

	case compiler.AggFirst:
		if len(vals) == 0 {
			return nil, nil
		}
		return vals[0], nil

	case compiler.AggLast:
		if len(vals) == 0 {
			return nil, nil
		}
		return vals[len(vals)-1], nil

	case compiler.AggMin, compiler.AggMax:
		var best any
		for _, v := range vals {
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c, ok := compareValues(v, best)
			if !ok {
				return nil, mismatch(-1, "%s: cannot compare %s with %s", fn, describe(v), describe(best))
			}
			if (fn == compiler.AggMin && c < 0) || (fn == compiler.AggMax && c > 0) {
				best = v
			}
		}
		return normalize(best), nil

	case compiler.AggSum, compiler.AggAvg:
		sum, n, allInt, err := sumOf(fn, vals)
		if err != nil || n == 0 {
			return nil, err
		}
		if fn == compiler.AggAvg {
			return sum.Div(decimal.NewFromInt(int64(n))).InexactFloat64(), nil
		}
		if allInt {
			return sum.IntPart(), nil
		}
		return sum.InexactFloat64(), nil

	case compiler.AggVar, compiler.AggStDev:
		return variance(fn, vals)

	default:
		return nil, fmt.Errorf("unsupported aggregate %s", fn)
	}
}

// sumOf adds the non-Nothing values exactly.
func sumOf(fn compiler.AggFunc, vals []any) (sum decimal.Decimal, n int, allInt bool, err error) {
	allInt = true
	for _, v := range vals {
		if v == nil {
			continue
		}
		d, ok := toDecimal(v)
		if !ok || !isNumeric(v) {
			return decimal.Zero, 0, false, mismatch(-1, "%s: %s is not numeric", fn, describe(v))
		}
		if _, ok := normalize(v).(int64); !ok {
			allInt = false
		}
		sum = sum.Add(d)
		n++
	}
	return sum, n, allInt, nil
}

// variance computes the sample variance, or its square root for StDev.
func variance(fn compiler.AggFunc, vals []any) (any, error) {
	var (
		n    int
		mean float64
		m2   float64
	)
	for _, v := range vals {
		if v == nil {
			continue
		}
		if !isNumeric(v) {
			return nil, mismatch(-1, "%s: %s is not numeric", fn, describe(v))
		}
		x, _ := toFloat(v)
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	if n < 2 {
		return nil, nil
	}
	v := m2 / float64(n-1)
	if fn == compiler.AggStDev {
		return math.Sqrt(v), nil
	}
	return v, nil
}
