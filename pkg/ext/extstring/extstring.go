// Package extstring provides string functions beyond the built-in set of
// report expressions. Register them with ext.With or ext.WithAll.
package extstring

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gordl/pkg/ext/extutil"
	"github.com/sandrolain/gordl/pkg/functions"
)

// All returns all extended string function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		StartsWith(),
		EndsWith(),
		Contains(),
		InStrRev(),
		StrReverse(),
		PadLeft(),
		PadRight(),
		StrDup(),
		ProperCase(),
	}
}

// StartsWith returns the definition for StartsWith(str, prefix).
func StartsWith() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "StartsWith",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			return strings.HasPrefix(extutil.String(args[0]), extutil.String(args[1])), nil
		},
	}
}

// EndsWith returns the definition for EndsWith(str, suffix).
func EndsWith() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "EndsWith",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			return strings.HasSuffix(extutil.String(args[0]), extutil.String(args[1])), nil
		},
	}
}

// Contains returns the definition for Contains(str, search [, ignoreCase]).
func Contains() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "Contains",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, search := extutil.String(args[0]), extutil.String(args[1])
			if len(args) == 3 {
				if fold, _ := args[2].(bool); fold {
					str, search = strings.ToLower(str), strings.ToLower(search)
				}
			}
			return strings.Contains(str, search), nil
		},
	}
}

// InStrRev returns the definition for InStrRev(str, search).
// The result is the 1-based position of the last occurrence, 0 when absent.
func InStrRev() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "InStrRev",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, search := extutil.String(args[0]), extutil.String(args[1])
			idx := strings.LastIndex(str, search)
			if idx < 0 {
				return int64(0), nil
			}
			return int64(utf8.RuneCountInString(str[:idx]) + 1), nil
		},
	}
}

// StrReverse returns the definition for StrReverse(str).
func StrReverse() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "StrReverse",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			r := []rune(extutil.String(args[0]))
			for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
				r[i], r[j] = r[j], r[i]
			}
			return string(r), nil
		},
	}
}

// PadLeft returns the definition for PadLeft(str, width [, pad]).
func PadLeft() functions.CustomFunctionDef {
	return padDef("PadLeft", true)
}

// PadRight returns the definition for PadRight(str, width [, pad]).
func PadRight() functions.CustomFunctionDef {
	return padDef("PadRight", false)
}

func padDef(name string, left bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str := extutil.String(args[0])
			width, err := extutil.Int(args[1])
			if err != nil {
				return nil, fmt.Errorf("width: %w", err)
			}
			pad := " "
			if len(args) == 3 {
				pad = extutil.String(args[2])
				if pad == "" {
					return nil, fmt.Errorf("pad must not be empty")
				}
			}
			n := width - utf8.RuneCountInString(str)
			if n <= 0 {
				return str, nil
			}
			fill := []rune(strings.Repeat(pad, n))[:n]
			if left {
				return string(fill) + str, nil
			}
			return str + string(fill), nil
		},
	}
}

// StrDup returns the definition for StrDup(count, str).
func StrDup() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "StrDup",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			n, err := extutil.Int(args[0])
			if err != nil {
				return nil, fmt.Errorf("count: %w", err)
			}
			if n < 0 {
				return nil, fmt.Errorf("count must not be negative, got %d", n)
			}
			return strings.Repeat(extutil.String(args[1]), n), nil
		},
	}
}

// ProperCase returns the definition for ProperCase(str): the first letter
// of each word upper case, the rest lower case.
func ProperCase() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "ProperCase",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			var b strings.Builder
			start := true
			for _, r := range extutil.String(args[0]) {
				switch {
				case unicode.IsSpace(r):
					start = true
					b.WriteRune(r)
				case start:
					b.WriteRune(unicode.ToUpper(r))
					start = false
				default:
					b.WriteRune(unicode.ToLower(r))
				}
			}
			return b.String(), nil
		},
	}
}
