package report

import (
	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/types"
)

// dataRegion is implemented by nodes bound to a dataset: the data regions
// and the dataset itself for calculated fields.
type dataRegion interface {
	Node
	boundDataSet() (*DataSet, bool)
}

// scopeEncloser is implemented by data regions holding several nested
// groupings. It returns the scope enclosing one of them.
type scopeEncloser interface {
	enclosingScope(id int) (types.Scope, bool)
}

// scopeProvider is implemented by nodes that open an aggregation scope for
// the expressions below them.
type scopeProvider interface {
	Node
	aggScope() (types.Scope, bool)
}

// env is the compiler.Env of an expression: the names visible from its
// owner node, looked up through the ancestor chain and the compilation
// registries.
type env struct {
	c     *Compilation
	owner Node
}

var _ compiler.Env = (*env)(nil)

func newEnv(c *Compilation, owner Node) *env {
	return &env{c: c, owner: owner}
}

// ancestors calls fn for the owner and each of its ancestors, innermost
// first, until fn returns false.
func (e *env) ancestors(fn func(Node) bool) {
	for n := e.owner; n != nil; n = n.Parent() {
		if !fn(n) {
			return
		}
	}
}

func (e *env) region() (*DataSet, bool) {
	var (
		ds    *DataSet
		found bool
	)
	e.ancestors(func(n Node) bool {
		if r, ok := n.(dataRegion); ok {
			ds, found = r.boundDataSet()
			return false
		}
		return true
	})
	return ds, found
}

func (e *env) DataSet() (types.Scope, bool) {
	ds, ok := e.region()
	if !ok {
		return types.Scope{}, false
	}
	return ds.Scope(), true
}

func (e *env) Field(dataSet int, name string) (int, bool) {
	ds, ok := e.c.dataSetIDs[dataSet]
	if !ok {
		return 0, false
	}
	return ds.FieldIndex(name)
}

func (e *env) Parameter(name string) (int, bool) {
	p, ok := e.c.params[key(name)]
	if !ok {
		return 0, false
	}
	return p.slot, true
}

func (e *env) ReportItem(name string) (int, bool) {
	it, ok := e.c.items[key(name)]
	if !ok {
		return 0, false
	}
	return it.ID(), true
}

// Scope returns the scope of the innermost provider. The keys and filters
// of a grouping are evaluated per row of the enclosing scope, so a grouping
// found on the way up does not count as the scope of its own expressions.
func (e *env) Scope() types.Scope {
	scope := types.ReportScope
	skip := 0
	e.ancestors(func(n Node) bool {
		if g, ok := n.(*Grouping); ok && skip == 0 {
			skip = g.ID()
		}
		p, ok := n.(scopeProvider)
		if !ok {
			return true
		}
		var s types.Scope
		if enc, isEncloser := n.(scopeEncloser); isEncloser && skip != 0 {
			s, ok = enc.enclosingScope(skip)
		} else {
			s, ok = p.aggScope()
		}
		if !ok || (s.Kind == types.ScopeGroup && s.ID == skip) {
			return true
		}
		scope = s
		return false
	})
	return scope
}

func (e *env) NamedScope(name string) (types.Scope, bool) {
	if g, ok := e.c.groups[key(name)]; ok {
		return g.Scope(), true
	}
	if ds, ok := e.c.dataSets[key(name)]; ok {
		return ds.Scope(), true
	}
	return types.Scope{}, false
}

func (e *env) RowContext() bool {
	inPage := false
	e.ancestors(func(n Node) bool {
		if _, ok := n.(*PageSection); ok {
			inPage = true
			return false
		}
		return true
	})
	return !inPage
}
