package parser

import (
	"errors"
	"testing"

	"github.com/sandrolain/gordl/pkg/types"
)

func lexAll(input string) []Token {
	l := NewLexer(input)
	var out []Token
	for {
		tok := l.Next()
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return out
		}
		out = append(out, tok)
	}
}

func TestLexer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "leading whitespace",
			input: " \t\n\r\vabc",
			want:  []Token{{TokenName, "abc", 5}},
		},
		{
			name:  "string",
			input: `"hello world"`,
			want:  []Token{{TokenString, "hello world", 1}},
		},
		{
			name:  "doubled quote",
			input: `"say ""hi"""`,
			want:  []Token{{TokenString, `say "hi"`, 1}},
		},
		{
			name:  "empty string",
			input: `""`,
			want:  []Token{{TokenString, "", 1}},
		},
		{
			name:  "numbers",
			input: "42 3.14 1e5 2E-3",
			want: []Token{
				{TokenNumber, "42", 0},
				{TokenNumber, "3.14", 3},
				{TokenNumber, "1e5", 8},
				{TokenNumber, "2E-3", 12},
			},
		},
		{
			name:  "member reference",
			input: "Fields!Amount.Value",
			want: []Token{
				{TokenName, "Fields", 0},
				{TokenBang, "!", 6},
				{TokenName, "Amount", 7},
				{TokenDot, ".", 13},
				{TokenName, "Value", 14},
			},
		},
		{
			name:  "escaped name",
			input: "Fields![Order Date]",
			want: []Token{
				{TokenName, "Fields", 0},
				{TokenBang, "!", 6},
				{TokenNameEsc, "Order Date", 8},
			},
		},
		{
			name:  "two character operators",
			input: "a<>b<=c>=d",
			want: []Token{
				{TokenName, "a", 0},
				{TokenNotEqual, "<>", 1},
				{TokenName, "b", 3},
				{TokenLessEqual, "<=", 4},
				{TokenName, "c", 6},
				{TokenGreaterEqual, ">=", 7},
				{TokenName, "d", 9},
			},
		},
		{
			name:  "keywords ignore case",
			input: "x ANDALSO Not y orelse TRUE mod nothing",
			want: []Token{
				{TokenName, "x", 0},
				{TokenAnd, "ANDALSO", 2},
				{TokenNot, "Not", 10},
				{TokenName, "y", 14},
				{TokenOr, "orelse", 16},
				{TokenBoolean, "TRUE", 23},
				{TokenMod, "mod", 28},
				{TokenNothing, "nothing", 32},
			},
		},
		{
			name:  "number followed by member dot",
			input: "1.x",
			want: []Token{
				{TokenNumber, "1", 0},
				{TokenDot, ".", 1},
				{TokenName, "x", 2},
			},
		},
		{
			name:  "arithmetic",
			input: `a\b^2&"s"`,
			want: []Token{
				{TokenName, "a", 0},
				{TokenIntDiv, `\`, 1},
				{TokenName, "b", 2},
				{TokenPow, "^", 3},
				{TokenNumber, "2", 4},
				{TokenConcat, "&", 5},
				{TokenString, "s", 7},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexAll(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("tokens = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLexer_EOFRepeats(t *testing.T) {
	l := NewLexer("a")
	l.Next()
	for range 3 {
		if tok := l.Next(); tok.Type != TokenEOF || tok.Position != 1 {
			t.Fatalf("Next() = %+v, want EOF at 1", tok)
		}
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  types.ErrorCode
	}{
		{"unterminated string", `"hello`, types.ErrStringNotClosed},
		{"unterminated name", "[hello", types.ErrUnexpectedEnd},
		{"malformed exponent", "1e+", types.ErrSyntaxError},
		{"unexpected character", "@", types.ErrSyntaxError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)
			var tok Token
			for tok = l.Next(); tok.Type != TokenError && tok.Type != TokenEOF; tok = l.Next() {
			}
			if tok.Type != TokenError {
				t.Fatalf("expected an error token, got %v", tok.Type)
			}
			var e *types.Error
			if !errors.As(l.Error(), &e) || e.Code != tt.code {
				t.Errorf("Error() = %v, want %s", l.Error(), tt.code)
			}
		})
	}
}
