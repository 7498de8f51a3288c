package parser

import "strings"

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString  // "hello"
	TokenNumber  // 123, 3.14, 1e-10
	TokenBoolean // True, False
	TokenNothing // Nothing
	TokenName    // identifier
	TokenNameEsc // [name with spaces]

	// Grouping and punctuation
	TokenParenOpen  // (
	TokenParenClose // )
	TokenComma      // ,
	TokenDot        // .
	TokenBang       // !

	// Arithmetic operators
	TokenPlus   // +
	TokenMinus  // -
	TokenMult   // *
	TokenDiv    // /
	TokenIntDiv // \
	TokenPow    // ^
	TokenConcat // &

	// Comparison operators
	TokenEqual        // =
	TokenNotEqual     // <>
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Keyword operators
	TokenAnd // And, AndAlso
	TokenOr  // Or, OrElse
	TokenNot // Not
	TokenMod // Mod
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenString:
		return "(string)"
	case TokenNumber:
		return "(number)"
	case TokenBoolean:
		return "(boolean)"
	case TokenNothing:
		return "Nothing"
	case TokenName, TokenNameEsc:
		return "(name)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	case TokenBang:
		return "!"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenIntDiv:
		return `\`
	case TokenPow:
		return "^"
	case TokenConcat:
		return "&"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "<>"
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenAnd:
		return "And"
	case TokenOr:
		return "Or"
	case TokenNot:
		return "Not"
	case TokenMod:
		return "Mod"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in an expression.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting position in the input string
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'(':  TokenParenOpen,
	')':  TokenParenClose,
	',':  TokenComma,
	'.':  TokenDot,
	'!':  TokenBang,
	'+':  TokenPlus,
	'-':  TokenMinus,
	'*':  TokenMult,
	'/':  TokenDiv,
	'\\': TokenIntDiv,
	'^':  TokenPow,
	'&':  TokenConcat,
	'=':  TokenEqual,
	'<':  TokenLess,
	'>':  TokenGreater,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'<': {{'>', TokenNotEqual}, {'=', TokenLessEqual}},
	'>': {{'=', TokenGreaterEqual}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword. Keywords are case
// insensitive. Returns 0 if the string is not a recognized keyword.
func lookupKeyword(s string) TokenType {
	switch strings.ToLower(s) {
	case "and", "andalso":
		return TokenAnd
	case "or", "orelse":
		return TokenOr
	case "not":
		return TokenNot
	case "mod":
		return TokenMod
	case "true", "false":
		return TokenBoolean
	case "nothing":
		return TokenNothing
	default:
		return 0
	}
}
