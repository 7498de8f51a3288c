package report

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

// Node is a node of the report document tree.
type Node interface {
	// ID is unique within the compilation and increases in construction
	// order.
	ID() int
	Parent() Node
	// Element is the local name of the XML element the node was built from.
	Element() string
	Pos() diag.Pos

	base() *node
	children() []Node
	expressions() []*Expression
}

// validator is implemented by nodes with cross-node checks that need the
// whole document, run once during the final pass.
type validator interface {
	validate()
}

type node struct {
	id       int
	comp     *Compilation
	parent   Node
	element  string
	pos      diag.Pos
	resolved bool
}

func (n *node) ID() int          { return n.id }
func (n *node) Parent() Node     { return n.parent }
func (n *node) Element() string  { return n.element }
func (n *node) Pos() diag.Pos    { return n.pos }
func (n *node) base() *node      { return n }
func (n *node) children() []Node { return nil }

func (n *node) expressions() []*Expression { return nil }

// Resolved reports whether the final pass has visited the node.
func (n *node) Resolved() bool { return n.resolved }

// finalPass resolves n and its subtree. Each node is resolved at most once;
// calling it again is a no-op.
func finalPass(n Node) {
	b := n.base()
	if b.resolved {
		return
	}
	if b.comp.phase != phaseResolve {
		panic(fmt.Sprintf("report: final pass on %s#%d outside the resolve phase", b.element, b.id))
	}
	b.resolved = true
	for _, e := range n.expressions() {
		e.compile(b.comp)
	}
	if v, ok := n.(validator); ok {
		v.validate()
	}
	for _, c := range n.children() {
		finalPass(c)
	}
}

// Walk calls fn for n and every node below it in document order until fn
// returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children() {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// handlers maps the local names of recognised child elements to their
// builders.
type handlers map[string]func(*element)

// build runs the structural build loop for n: every child element is
// dispatched by name, unknown ones are reported and skipped.
func (c *Compilation) build(n Node, el *element, h handlers, attrs ...string) {
	for _, a := range el.attrs {
		if a.Name.Space != "" || a.Name.Local == "xmlns" {
			continue
		}
		if !slices.Contains(attrs, a.Name.Local) {
			c.report(diag.Ignorable, types.ErrAttributeIgnored, n, el.pos,
				"attribute %q of %s is not recognised", a.Name.Local, el.name)
		}
	}
	for _, ch := range el.children {
		if f, ok := h[ch.name]; ok {
			f(ch)
			continue
		}
		c.report(diag.Ignorable, types.ErrElementIgnored, n, ch.pos,
			"element %s is not recognised inside %s", ch.name, el.name)
	}
}

// list builds the children of a list wrapper element, keeping those named
// item and reporting the rest.
func list[T any](c *Compilation, n Node, el *element, item string, fn func(*element) T) []T {
	var out []T
	c.build(n, el, handlers{
		item: func(ch *element) { out = append(out, fn(ch)) },
	})
	return slices.Clip(out)
}

func (c *Compilation) report(sev diag.Severity, code types.ErrorCode, n Node, pos diag.Pos, format string, args ...any) {
	c.sink.Report(sev, code, n.ID(), n.Element(), pos, format, args...)
}

// missing records a required child absent from n.
func (c *Compilation) missing(n Node, what string) {
	c.report(diag.Degraded, types.ErrMissingRequired, n, n.Pos(),
		"%s requires %s", n.Element(), what)
}

// required records a missing or empty required list. seen tells whether
// the wrapper element was present.
func (c *Compilation) required(n Node, what string, seen bool, count int) {
	switch {
	case !seen:
		c.missing(n, what)
	case count == 0:
		c.report(diag.Degraded, types.ErrEmptyList, n, n.Pos(),
			"%s requires at least one entry in %s", n.Element(), what)
	}
}

func (c *Compilation) duplicate(n Node, kind, name string, prev Node) {
	c.report(diag.Recoverable, types.ErrDuplicateName, n, n.Pos(),
		"%s %q is already defined at %s; keeping the first definition", kind, name, prev.Pos())
}

// name reads the Name attribute of el. When mandatory and absent, a
// missing-required diagnostic is recorded.
func (c *Compilation) name(n Node, el *element, mandatory bool) string {
	v, ok := el.attr("Name")
	if (!ok || strings.TrimSpace(v) == "") && mandatory {
		c.missing(n, "a Name attribute")
	}
	return strings.TrimSpace(v)
}

func (c *Compilation) invalid(n Node, el *element, want string, def any) {
	c.report(diag.Recoverable, types.ErrInvalidValue, n, el.pos,
		"%s: %q is not a valid %s; using %v", el.name, el.value(), want, def)
}

func (c *Compilation) boolValue(n Node, el *element, def bool) bool {
	v, err := strconv.ParseBool(el.value())
	if err != nil {
		c.invalid(n, el, "boolean", def)
		return def
	}
	return v
}

func (c *Compilation) base64Value(n Node, el *element) []byte {
	s := strings.Join(strings.Fields(el.value()), "")
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		c.invalid(n, el, "base64 payload", "nothing")
		return nil
	}
	return b
}

// expr creates the expression held by the leaf element el on behalf of
// owner. It is compiled during the final pass.
func (c *Compilation) expr(owner Node, el *element, typ types.ValueType) *Expression {
	e := &Expression{
		Source: el.rawValue(),
		Type:   typ,
		owner:  owner,
		pos:    el.pos,
	}
	return e
}

// appendNode appends p to out unless it is nil.
func appendNode[P interface {
	*E
	Node
}, E any](out []Node, p P) []Node {
	if p == nil {
		return out
	}
	return append(out, p)
}

func appendNodes[P interface {
	*E
	Node
}, E any](out []Node, ps []P) []Node {
	for _, p := range ps {
		out = appendNode(out, p)
	}
	return out
}

func appendItems(out []Node, items []ReportItem) []Node {
	for _, it := range items {
		out = append(out, it)
	}
	return out
}

// exprs returns the non-nil expressions of list.
func exprs(list ...*Expression) []*Expression {
	out := make([]*Expression, 0, len(list))
	for _, e := range list {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
