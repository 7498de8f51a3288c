// Package exttypes provides type predicates and Nothing handling for report
// expressions.
package exttypes

import (
	"context"
	"time"

	"github.com/sandrolain/gordl/pkg/ext/extutil"
	"github.com/sandrolain/gordl/pkg/functions"
)

// All returns all type function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		IsNumeric(),
		IsDate(),
		IsString(),
		IsBoolean(),
		Coalesce(),
	}
}

// IsNumeric returns the definition for IsNumeric(v). Numeric strings count
// as numeric.
func IsNumeric() functions.CustomFunctionDef {
	return predicate("IsNumeric", func(v any) bool {
		if s, ok := v.(string); ok {
			_, err := extutil.Float(s)
			return s != "" && err == nil
		}
		return extutil.IsNumber(v)
	})
}

// IsDate returns the definition for IsDate(v). Date strings count as dates.
func IsDate() functions.CustomFunctionDef {
	return predicate("IsDate", func(v any) bool {
		switch v.(type) {
		case time.Time:
			return true
		case string:
			_, err := extutil.Time(v)
			return err == nil
		}
		return false
	})
}

// IsString returns the definition for IsString(v).
func IsString() functions.CustomFunctionDef {
	return predicate("IsString", func(v any) bool {
		_, ok := v.(string)
		return ok
	})
}

// IsBoolean returns the definition for IsBoolean(v).
func IsBoolean() functions.CustomFunctionDef {
	return predicate("IsBoolean", func(v any) bool {
		_, ok := v.(bool)
		return ok
	})
}

// Coalesce returns the definition for Coalesce(v1, v2, ...): the first
// argument that is not Nothing.
func Coalesce() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "Coalesce",
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			for _, a := range args {
				if a != nil {
					return a, nil
				}
			}
			return nil, nil
		},
	}
}

func predicate(name string, test func(any) bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			return test(args[0]), nil
		},
	}
}
