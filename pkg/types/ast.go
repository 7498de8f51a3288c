package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types produced by the expression parser.
const (
	// Literals
	NodeString  NodeType = "string"
	NodeNumber  NodeType = "number"
	NodeBoolean NodeType = "boolean"
	NodeNothing NodeType = "nothing" // Nothing

	// References
	NodeName   NodeType = "name"   // bare identifier
	NodeMember NodeType = "member" // Collection!Name[.Property]

	// Operators
	NodeBinary NodeType = "binary" // +, -, *, /, &, =, And, ...
	NodeUnary  NodeType = "unary"  // -, Not

	// Calls
	NodeCall NodeType = "call" // Fn(args) or Code.fn(args)
)

// ASTNode represents a node in the Abstract Syntax Tree of one expression.
//
// ASTs are immutable once the parser returns them and may be shared between
// compilations through the parse cache.
type ASTNode struct {
	Type     NodeType
	Value    string  // literal text, identifier, operator or function name
	NumValue float64 // set by the parser for NodeNumber
	BoolVal  bool    // set by the parser for NodeBoolean
	Position int     // byte offset in the expression source

	// Member references: Collection!Value.Property
	Collection string
	Property   string

	// Qualifier for calls: "Code" in Code.fn(...)
	Qualifier string

	LHS       *ASTNode   // left operand (binary) or operand (unary)
	RHS       *ASTNode   // right operand (binary)
	Arguments []*ASTNode // call arguments
}

// NewASTNode creates a new AST node of the specified type.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}

// Walk calls fn for n and every node below it in depth-first order.
// Walking stops descending into a subtree when fn returns false.
func (n *ASTNode) Walk(fn func(*ASTNode) bool) {
	if n == nil || !fn(n) {
		return
	}
	n.LHS.Walk(fn)
	n.RHS.Walk(fn)
	for _, a := range n.Arguments {
		a.Walk(fn)
	}
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}
