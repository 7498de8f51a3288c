package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandrolain/gordl/pkg/types"
)

// Parser implements a recursive descent parser for report expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	errors  []error
	depth   int
	opts    CompileOptions
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns it.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrUnexpectedEnd, "Empty expression")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", p.current.Value))
	}

	return types.NewExpression(node, p.lexer.input), nil
}

// Operator precedence table (binding power)
// Higher values bind more tightly
var precedence = map[TokenType]int{
	TokenOr:           10, // Or, OrElse
	TokenAnd:          20, // And, AndAlso
	TokenEqual:        30, // =
	TokenNotEqual:     30, // <>
	TokenLess:         30, // <
	TokenLessEqual:    30, // <=
	TokenGreater:      30, // >
	TokenGreaterEqual: 30, // >=
	TokenConcat:       40, // &
	TokenPlus:         50, // +
	TokenMinus:        50, // -
	TokenMod:          55, // Mod
	TokenIntDiv:       60, // \
	TokenMult:         70, // *
	TokenDiv:          70, // /
	TokenPow:          80, // ^
}

const (
	bpNot   = 25 // Not binds looser than comparisons
	bpUnary = 75 // unary minus binds looser than ^
)

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		if p.current.Type == TokenError {
			return p.lexer.Error()
		}
		if p.current.Type == TokenEOF {
			return p.error(types.ErrUnexpectedEnd, fmt.Sprintf("Expected %s but reached end of expression", tt))
		}
		return p.error(types.ErrSyntaxError, fmt.Sprintf("Expected %s but got %s", tt.String(), p.current.Type.String()))
	}
	p.advance()
	return nil
}

// error creates a parser error.
func (p *Parser) error(code types.ErrorCode, message string) error {
	err := &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
	p.errors = append(p.errors, err)
	return err
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrSyntaxError, "Expression nesting too deep")
	}

	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenString:
		p.advance()
		node := types.NewASTNode(types.NodeString, token.Position)
		node.Value = token.Value
		return node, nil
	case TokenNumber:
		return p.parseNumber()
	case TokenBoolean:
		p.advance()
		node := types.NewASTNode(types.NodeBoolean, token.Position)
		node.Value = token.Value
		node.BoolVal = strings.EqualFold(token.Value, "true")
		return node, nil
	case TokenNothing:
		p.advance()
		return types.NewASTNode(types.NodeNothing, token.Position), nil
	case TokenName, TokenNameEsc:
		return p.parseName()
	case TokenParenOpen:
		p.advance()
		node, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return node, nil
	case TokenMinus, TokenNot:
		p.advance()
		bp := bpUnary
		if token.Type == TokenNot {
			bp = bpNot
		}
		operand, err := p.parseExpression(bp)
		if err != nil {
			return nil, err
		}
		node := types.NewASTNode(types.NodeUnary, token.Position)
		node.Value = token.Type.String()
		node.LHS = operand
		return node, nil
	case TokenPlus:
		p.advance()
		return p.parseExpression(bpUnary)
	case TokenError:
		return nil, p.lexer.Error()
	case TokenEOF:
		return nil, p.error(types.ErrUnexpectedEnd, "Unexpected end of expression")
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", token.Value))
	}
}

// parseInfix parses a binary operator (led - left denotation).
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current
	p.advance()

	right, err := p.parseExpression(p.getPrecedence(token.Type))
	if err != nil {
		return nil, err
	}

	node := types.NewASTNode(types.NodeBinary, token.Position)
	node.Value = token.Type.String()
	node.LHS = left
	node.RHS = right
	return node, nil
}

func (p *Parser) parseNumber() (*types.ASTNode, error) {
	token := p.current
	n, err := strconv.ParseFloat(token.Value, 64)
	if err != nil {
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Invalid number: %s", token.Value))
	}
	p.advance()
	node := types.NewASTNode(types.NodeNumber, token.Position)
	node.Value = token.Value
	node.NumValue = n
	return node, nil
}

// parseName parses a bare name, a member reference (Collection!Name.Property),
// a call (Fn(args)) or a qualified call (Code.fn(args)).
func (p *Parser) parseName() (*types.ASTNode, error) {
	token := p.current
	p.advance()

	switch p.current.Type {
	case TokenBang:
		p.advance()
		if p.current.Type != TokenName && p.current.Type != TokenNameEsc {
			return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected member name after %s!", token.Value))
		}
		node := types.NewASTNode(types.NodeMember, token.Position)
		node.Collection = token.Value
		node.Value = p.current.Value
		p.advance()
		if p.current.Type == TokenDot {
			p.advance()
			if p.current.Type != TokenName {
				return nil, p.error(types.ErrSyntaxError, "Expected property name after '.'")
			}
			node.Property = p.current.Value
			p.advance()
		}
		return node, nil

	case TokenParenOpen:
		node := types.NewASTNode(types.NodeCall, token.Position)
		node.Value = token.Value
		return p.parseArguments(node)

	case TokenDot:
		p.advance()
		if p.current.Type != TokenName {
			return nil, p.error(types.ErrSyntaxError, "Expected function name after '.'")
		}
		node := types.NewASTNode(types.NodeCall, token.Position)
		node.Qualifier = token.Value
		node.Value = p.current.Value
		p.advance()
		if p.current.Type != TokenParenOpen {
			return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected '(' after %s.%s", node.Qualifier, node.Value))
		}
		return p.parseArguments(node)
	}

	node := types.NewASTNode(types.NodeName, token.Position)
	node.Value = token.Value
	return node, nil
}

// parseArguments parses a parenthesized, comma separated argument list.
// The current token is the opening parenthesis.
func (p *Parser) parseArguments(call *types.ASTNode) (*types.ASTNode, error) {
	p.advance()
	if p.current.Type == TokenParenClose {
		p.advance()
		return call, nil
	}
	for {
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		call.Arguments = append(call.Arguments, arg)
		if p.current.Type == TokenComma {
			p.advance()
			continue
		}
		if err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return call, nil
	}
}
