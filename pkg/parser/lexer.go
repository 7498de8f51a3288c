package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gordl/pkg/types"
)

const eof = -1

// Lexer converts an expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.acceptAll(isWhitespace)
	l.ignore()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Check for two-character symbols first (e.g., <>, <=)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	if ch == '"' {
		l.ignore()
		return l.scanString(ch)
	}

	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	if ch == '[' {
		l.ignore()
		return l.scanEscapedName(']')
	}

	if isNameStart(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error(types.ErrSyntaxError, "Unexpected character "+string(ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. A doubled quote stands for
// one literal quote character.
func (l *Lexer) scanString(quote rune) Token {
	escaped := false
Loop:
	for {
		switch l.nextRune() {
		case quote:
			if l.acceptRune(quote) {
				escaped = true
				continue
			}
			break Loop
		case eof:
			return l.error(types.ErrStringNotClosed, "Unterminated string literal")
		}
	}

	// The closing quote is a single byte.
	t := Token{
		Type:     TokenString,
		Value:    l.input[l.start : l.current-1],
		Position: l.start,
	}
	if escaped {
		t.Value = strings.ReplaceAll(t.Value, `""`, `"`)
	}
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			// A dot not followed by digits is a member access.
			l.current--
			return l.newToken(TokenNumber)
		}
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrSyntaxError, "Malformed exponent")
		}
	}

	return l.newToken(TokenNumber)
}

// scanEscapedName reads a bracketed name from the current position.
// The opening bracket has already been consumed.
func (l *Lexer) scanEscapedName(closing rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case closing:
			break Loop
		case eof, '\n':
			return l.error(types.ErrUnexpectedEnd, "Unterminated name")
		}
	}

	l.backup()
	t := l.newToken(TokenNameEsc)
	l.acceptRune(closing)
	l.ignore()
	return t
}

// scanName reads a name or keyword from the current position.
func (l *Lexer) scanName() Token {
	l.acceptAll(isNamePart)
	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
