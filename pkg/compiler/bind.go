package compiler

import (
	"fmt"
	"strings"

	"github.com/sandrolain/gordl/pkg/types"
)

// binder resolves the names of one parsed expression.
type binder struct {
	c      *Compiler
	env    Env
	prog   *Program
	offset int

	// dataSet overrides the dataset used for field references while binding
	// the argument of an aggregate with an explicit scope; -1 when unset.
	dataSet     int
	inAggregate bool
}

func (b *binder) errorf(code types.ErrorCode, n *types.ASTNode, format string, args ...any) Node {
	b.prog.errs = append(b.prog.errs, types.NewError(code, fmt.Sprintf(format, args...), b.offset+n.Position))
	return &Literal{at: at(b.offset + n.Position)}
}

func (b *binder) record(kind BindingKind, name string, index int, scope types.Scope, n *types.ASTNode) {
	b.prog.bindings = append(b.prog.bindings, Binding{
		Kind:  kind,
		Name:  name,
		Index: index,
		Scope: scope,
		Pos:   b.offset + n.Position,
	})
}

func (b *binder) pos(n *types.ASTNode) at {
	return at(b.offset + n.Position)
}

func (b *binder) bind(n *types.ASTNode) Node {
	switch n.Type {
	case types.NodeString:
		return &Literal{at: b.pos(n), Value: n.Value}
	case types.NodeNumber:
		return &Literal{at: b.pos(n), Value: n.NumValue}
	case types.NodeBoolean:
		return &Literal{at: b.pos(n), Value: n.BoolVal}
	case types.NodeNothing:
		return &Literal{at: b.pos(n)}
	case types.NodeUnary:
		return &Unary{at: b.pos(n), Op: n.Value, X: b.bind(n.LHS)}
	case types.NodeBinary:
		return &Binary{at: b.pos(n), Op: n.Value, X: b.bind(n.LHS), Y: b.bind(n.RHS)}
	case types.NodeMember:
		return b.bindMember(n)
	case types.NodeName:
		return b.bindName(n)
	case types.NodeCall:
		return b.bindCall(n)
	default:
		return b.errorf(types.ErrSyntaxError, n, "unsupported expression node %s", n.Type)
	}
}

func valueProperty(p string) bool {
	return p == "" || strings.EqualFold(p, "Value")
}

// bindMember resolves Collection!Name[.Property].
func (b *binder) bindMember(n *types.ASTNode) Node {
	coll := strings.ToLower(n.Collection)
	switch coll {
	case "fields":
		if !valueProperty(n.Property) {
			return b.errorf(types.ErrUnknownProperty, n, "unknown property %s of Fields!%s", n.Property, n.Value)
		}
		return b.bindField(n, n.Value, true)

	case "parameters":
		if !valueProperty(n.Property) {
			return b.errorf(types.ErrUnknownProperty, n, "unknown property %s of Parameters!%s", n.Property, n.Value)
		}
		if node, ok := b.bindParameter(n, n.Value); ok {
			return node
		}
		return b.errorf(types.ErrUnresolvedSymbol, n, "unknown parameter %q", n.Value)

	case "globals", "user":
		if n.Property != "" {
			return b.errorf(types.ErrUnknownProperty, n, "unknown property %s of %s!%s", n.Property, n.Collection, n.Value)
		}
		g, ok := lookupGlobal(n.Value, coll == "user")
		if !ok {
			return b.errorf(types.ErrUnresolvedSymbol, n, "unknown global %s!%s", n.Collection, n.Value)
		}
		return b.global(n, g)

	case "reportitems":
		if !valueProperty(n.Property) {
			return b.errorf(types.ErrUnknownProperty, n, "unknown property %s of ReportItems!%s", n.Property, n.Value)
		}
		id, ok := b.env.ReportItem(n.Value)
		if !ok {
			return b.errorf(types.ErrUnresolvedSymbol, n, "unknown report item %q", n.Value)
		}
		b.record(BindReportItem, n.Value, id, types.Scope{}, n)
		return &ItemRef{at: b.pos(n), Name: n.Value, ID: id}

	default:
		return b.errorf(types.ErrUnresolvedSymbol, n, "unknown collection %q", n.Collection)
	}
}

// bindName resolves a bare name. Precedence: dataset field, parameter,
// global, aggregate-implied name.
func (b *binder) bindName(n *types.ASTNode) Node {
	if node, ok := b.tryField(n, n.Value); ok {
		return node
	}
	if node, ok := b.bindParameter(n, n.Value); ok {
		return node
	}
	if g, ok := lookupGlobal(n.Value, false); ok {
		return b.global(n, g)
	}
	if g, ok := lookupGlobal(n.Value, true); ok {
		return b.global(n, g)
	}
	if def, ok := impliedAggregate(n.Value); ok {
		return b.bindAggregate(n, def)
	}
	return b.errorf(types.ErrUnresolvedSymbol, n, "unresolved name %q", n.Value)
}

func (b *binder) global(n *types.ASTNode, g types.Global) Node {
	b.record(BindGlobal, g.String(), int(g), types.Scope{}, n)
	return &GlobalRef{at: b.pos(n), Global: g}
}

func (b *binder) bindParameter(n *types.ASTNode, name string) (Node, bool) {
	slot, ok := b.env.Parameter(name)
	if !ok {
		return nil, false
	}
	b.record(BindParameter, name, slot, types.Scope{}, n)
	return &ParamRef{at: b.pos(n), Name: name, Slot: slot}, true
}

// currentDataSet returns the dataset field references resolve against.
func (b *binder) currentDataSet() (int, bool) {
	if b.dataSet >= 0 {
		return b.dataSet, true
	}
	ds, ok := b.env.DataSet()
	if !ok {
		return 0, false
	}
	return ds.ID, true
}

// tryField resolves name as a field without reporting failures.
func (b *binder) tryField(n *types.ASTNode, name string) (Node, bool) {
	ds, ok := b.currentDataSet()
	if !ok {
		return nil, false
	}
	if _, ok := b.env.Field(ds, name); !ok {
		return nil, false
	}
	return b.bindField(n, name, false), true
}

// bindField binds an explicit (Fields!) or implicit field reference.
func (b *binder) bindField(n *types.ASTNode, name string, explicit bool) Node {
	ref := name
	if explicit {
		ref = "Fields!" + name
	}
	if !b.env.RowContext() {
		return b.errorf(types.ErrScopeViolation, n, "field reference %s is not allowed in a page header or footer", ref)
	}
	ds, ok := b.currentDataSet()
	if !ok {
		return b.errorf(types.ErrUnresolvedSymbol, n, "no dataset in scope for %s", ref)
	}
	idx, ok := b.env.Field(ds, name)
	if !ok {
		return b.errorf(types.ErrUnresolvedSymbol, n, "unknown field %q", name)
	}
	b.prog.rowScope = true
	b.record(BindField, name, idx, types.Scope{Kind: types.ScopeDataSet, ID: ds, DataSet: ds}, n)
	return &FieldRef{at: b.pos(n), Name: name, Index: idx, DataSet: ds}
}

func (b *binder) bindCall(n *types.ASTNode) Node {
	if n.Qualifier != "" {
		if !strings.EqualFold(n.Qualifier, "Code") {
			return b.errorf(types.ErrUndefinedFunction, n, "unknown function %s.%s", n.Qualifier, n.Value)
		}
		fn, ok := b.c.opts.Code.Lookup(n.Value)
		if !ok {
			return b.errorf(types.ErrUndefinedFunction, n, "unknown code function Code.%s", n.Value)
		}
		if len(n.Arguments) != fn.Arity() {
			return b.errorf(types.ErrArgumentCount, n, "Code.%s expects %d arguments, got %d", n.Value, fn.Arity(), len(n.Arguments))
		}
		b.record(BindCode, fn.Name, fn.Module, types.Scope{}, n)
		return &CodeCall{at: b.pos(n), Fn: fn, Args: b.bindArgs(n.Arguments)}
	}

	if def, ok := aggregates[strings.ToLower(n.Value)]; ok {
		return b.bindAggregate(n, def)
	}

	if fn, ok := LookupBuiltin(n.Value); ok {
		if !fn.accepts(len(n.Arguments)) {
			return b.errorf(types.ErrArgumentCount, n, "%s: wrong number of arguments (%d)", fn.Name, len(n.Arguments))
		}
		return &Call{at: b.pos(n), Fn: fn, Args: b.bindArgs(n.Arguments)}
	}

	if def, ok := b.c.opts.Functions.Lookup(n.Value); ok {
		if !def.Accepts(len(n.Arguments)) {
			return b.errorf(types.ErrArgumentCount, n, "%s: wrong number of arguments (%d)", def.Name, len(n.Arguments))
		}
		b.record(BindCustom, def.Name, 0, types.Scope{}, n)
		return &CustomCall{at: b.pos(n), Def: def, Args: b.bindArgs(n.Arguments)}
	}

	return b.errorf(types.ErrUndefinedFunction, n, "unknown function %q", n.Value)
}

func (b *binder) bindArgs(args []*types.ASTNode) []Node {
	out := make([]Node, len(args))
	for i, a := range args {
		out[i] = b.bind(a)
	}
	return out
}

// bindAggregate binds an aggregate call, or a bare aggregate-implied name
// when n is a NodeName.
func (b *binder) bindAggregate(n *types.ASTNode, def *aggregateDef) Node {
	if !b.env.RowContext() {
		return b.errorf(types.ErrScopeViolation, n, "aggregate %s is not allowed in a page header or footer", def.name)
	}
	if b.inAggregate {
		return b.errorf(types.ErrNestedAggregate, n, "aggregate %s cannot be nested in another aggregate", def.name)
	}

	args := n.Arguments
	maxArgs := def.exprArgs
	if def.scoped {
		maxArgs++
	}
	if len(args) < def.exprArgs || len(args) > maxArgs {
		return b.errorf(types.ErrArgumentCount, n, "%s: wrong number of arguments (%d)", def.name, len(args))
	}

	scope := b.env.Scope()
	if len(args) > def.exprArgs {
		s, ok := b.explicitScope(args[len(args)-1])
		if !ok {
			return &Literal{at: b.pos(n)}
		}
		scope = s
	}

	agg := &Aggregate{at: b.pos(n), Func: def.fn, Scope: scope}

	if def.fn == AggRunningValue {
		running, ok := b.runningFunc(args[1])
		if !ok {
			return &Literal{at: b.pos(n)}
		}
		agg.Running = running
	}

	if def.exprArgs > 0 {
		saved, savedIn := b.dataSet, b.inAggregate
		if scope.Kind != types.ScopeReport {
			b.dataSet = scope.DataSet
		}
		b.inAggregate = true
		agg.Arg = b.bind(args[0])
		b.dataSet, b.inAggregate = saved, savedIn
	}

	b.prog.rowScope = true
	b.record(BindAggregate, def.name, 0, scope, n)
	return agg
}

// explicitScope resolves a scope argument, which must be a string literal
// naming a group or dataset.
func (b *binder) explicitScope(arg *types.ASTNode) (types.Scope, bool) {
	if arg.Type != types.NodeString {
		b.errorf(types.ErrUnknownScope, arg, "aggregate scope must be a string literal")
		return types.Scope{}, false
	}
	s, ok := b.env.NamedScope(arg.Value)
	if !ok {
		b.errorf(types.ErrUnknownScope, arg, "unknown aggregate scope %q", arg.Value)
		return types.Scope{}, false
	}
	return s, true
}

// runningFunc resolves the accumulator argument of RunningValue.
func (b *binder) runningFunc(arg *types.ASTNode) (AggFunc, bool) {
	if arg.Type == types.NodeName {
		if def, ok := aggregates[strings.ToLower(arg.Value)]; ok && def.runnable {
			return def.fn, true
		}
	}
	b.errorf(types.ErrUndefinedFunction, arg, "RunningValue needs an aggregate function name such as Sum or Count")
	return 0, false
}
