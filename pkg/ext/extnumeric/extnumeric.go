// Package extnumeric provides numeric functions beyond the built-in set of
// report expressions. Decimal arguments keep their exact representation
// where the operation allows it.
package extnumeric

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/sandrolain/gordl/pkg/ext/extutil"
	"github.com/sandrolain/gordl/pkg/functions"
)

// All returns all extended numeric function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Sign(),
		Fix(),
		Clamp(),
		Sqrt(),
		Pow(),
		Log(),
		Log10(),
		Exp(),
		Pi(),
	}
}

// Sign returns the definition for Sign(n): -1, 0 or 1.
func Sign() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "Sign",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			switch x := args[0].(type) {
			case int64:
				switch {
				case x > 0:
					return int64(1), nil
				case x < 0:
					return int64(-1), nil
				}
				return int64(0), nil
			case decimal.Decimal:
				return int64(x.Sign()), nil
			}
			f, err := extutil.Float(args[0])
			if err != nil {
				return nil, err
			}
			switch {
			case f > 0:
				return int64(1), nil
			case f < 0:
				return int64(-1), nil
			}
			return int64(0), nil
		},
	}
}

// Fix returns the definition for Fix(n): n truncated toward zero.
func Fix() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "Fix",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			switch x := args[0].(type) {
			case int64:
				return x, nil
			case decimal.Decimal:
				return x.Truncate(0), nil
			}
			f, err := extutil.Float(args[0])
			if err != nil {
				return nil, err
			}
			return math.Trunc(f), nil
		},
	}
}

// Clamp returns the definition for Clamp(n, min, max).
func Clamp() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "Clamp",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			if d, ok := args[0].(decimal.Decimal); ok {
				lo, err1 := decimalArg(args[1])
				hi, err2 := decimalArg(args[2])
				if err1 != nil || err2 != nil {
					return nil, fmt.Errorf("bounds must be numbers")
				}
				if lo.GreaterThan(hi) {
					return nil, fmt.Errorf("min %s is greater than max %s", lo, hi)
				}
				return decimal.Min(decimal.Max(d, lo), hi), nil
			}
			n, err := extutil.Float(args[0])
			if err != nil {
				return nil, err
			}
			lo, err1 := extutil.Float(args[1])
			hi, err2 := extutil.Float(args[2])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("bounds must be numbers")
			}
			if lo > hi {
				return nil, fmt.Errorf("min %v is greater than max %v", lo, hi)
			}
			return math.Min(math.Max(n, lo), hi), nil
		},
	}
}

// Sqrt returns the definition for Sqrt(n).
func Sqrt() functions.CustomFunctionDef {
	return unary("Sqrt", func(f float64) (float64, error) {
		if f < 0 {
			return 0, fmt.Errorf("square root of negative number %v", f)
		}
		return math.Sqrt(f), nil
	})
}

// Log returns the definition for Log(n [, base]).
// Without base, returns the natural logarithm.
func Log() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "Log",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			n, err := extutil.Float(args[0])
			if err != nil {
				return nil, err
			}
			if n <= 0 {
				return nil, fmt.Errorf("logarithm of non-positive number %v", n)
			}
			if len(args) == 1 {
				return math.Log(n), nil
			}
			base, err := extutil.Float(args[1])
			if err != nil {
				return nil, fmt.Errorf("base: %w", err)
			}
			if base <= 0 || base == 1 {
				return nil, fmt.Errorf("invalid logarithm base %v", base)
			}
			return math.Log(n) / math.Log(base), nil
		},
	}
}

// Log10 returns the definition for Log10(n).
func Log10() functions.CustomFunctionDef {
	return unary("Log10", func(f float64) (float64, error) {
		if f <= 0 {
			return 0, fmt.Errorf("logarithm of non-positive number %v", f)
		}
		return math.Log10(f), nil
	})
}

// Exp returns the definition for Exp(n).
func Exp() functions.CustomFunctionDef {
	return unary("Exp", func(f float64) (float64, error) { return math.Exp(f), nil })
}

// Pow returns the definition for Pow(base, exponent).
func Pow() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "Pow",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			b, err1 := extutil.Float(args[0])
			e, err2 := extutil.Float(args[1])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("arguments must be numbers")
			}
			r := math.Pow(b, e)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return nil, fmt.Errorf("%v to the power of %v is not finite", b, e)
			}
			return r, nil
		},
	}
}

// Pi returns the definition for Pi().
func Pi() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: "Pi",
		Fn: func(context.Context, ...any) (any, error) {
			return math.Pi, nil
		},
	}
}

func unary(name string, fn func(float64) (float64, error)) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			f, err := extutil.Float(args[0])
			if err != nil {
				return nil, err
			}
			return fn(f)
		},
	}
}

func decimalArg(v any) (decimal.Decimal, error) {
	if d, ok := v.(decimal.Decimal); ok {
		return d, nil
	}
	f, err := extutil.Float(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(f), nil
}
