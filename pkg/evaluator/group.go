package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/runtime"
	"github.com/sandrolain/gordl/pkg/types"
)

// Group partitions the rows of parent into one entry per distinct key, in
// order of first appearance. The key of a row is the values of keys
// evaluated for it. Member rows are copies of the parent rows that share
// their Data; each copy has the new entry as its Group.
//
// scope must be the scope descriptor of the grouping the keys belong to, so
// that aggregates bound to that grouping find the entries.
func (e *Evaluator) Group(ctx context.Context, exec *runtime.Execution, parent *runtime.GroupEntry, scope types.Scope, keys []*compiler.Program) ([]*runtime.GroupEntry, error) {
	if scope.Kind != types.ScopeGroup {
		return nil, fmt.Errorf("group: %s is not a group scope", scope)
	}
	var (
		out   []*runtime.GroupEntry
		index = make(map[string]*runtime.GroupEntry)
	)
	for i, r := range parent.Rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		key, err := e.EvalMany(ctx, keys, r, exec)
		if err != nil {
			return nil, err
		}
		id := groupKey(key)
		g, ok := index[id]
		if !ok {
			g = runtime.NewGroupEntry(scope, key, parent)
			index[id] = g
			out = append(out, g)
		}
		g.Add(runtime.NewRowFrom(r, r.Level))
	}
	return out, nil
}

func groupKey(vals []any) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(0)
		}
		fmt.Fprintf(&b, "%T:%v", keyOf(v), keyOf(v))
	}
	return b.String()
}

// Filter returns a copy of entry holding the rows for which pred evaluates
// to true. The copy has the same scope and key; member rows are shared.
func (e *Evaluator) Filter(ctx context.Context, exec *runtime.Execution, entry *runtime.GroupEntry, pred *compiler.Program) (*runtime.GroupEntry, error) {
	out := &runtime.GroupEntry{Scope: entry.Scope, Key: entry.Key, Parent: entry.Parent}
	for _, r := range entry.Rows {
		v, err := e.Eval(ctx, pred, r, exec)
		if err != nil {
			return nil, err
		}
		if b, _ := toBool(v); b {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}
