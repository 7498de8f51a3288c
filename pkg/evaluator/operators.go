package evaluator

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/types"
)

func (e *Evaluator) evalBinary(ctx context.Context, n *compiler.Binary, f frame) (any, error) {
	// And/Or short-circuit like AndAlso/OrElse.
	if n.Op == "And" || n.Op == "Or" {
		x, err := e.eval(ctx, n.X, f)
		if err != nil {
			return nil, err
		}
		xb, ok := toBool(x)
		if !ok {
			return nil, mismatch(n.X.Pos(), "%s operand is %s, not Boolean", n.Op, describe(x))
		}
		if n.Op == "And" && !xb {
			return false, nil
		}
		if n.Op == "Or" && xb {
			return true, nil
		}
		y, err := e.eval(ctx, n.Y, f)
		if err != nil {
			return nil, err
		}
		yb, ok := toBool(y)
		if !ok {
			return nil, mismatch(n.Y.Pos(), "%s operand is %s, not Boolean", n.Op, describe(y))
		}
		return yb, nil
	}

	x, err := e.eval(ctx, n.X, f)
	if err != nil {
		return nil, err
	}
	y, err := e.eval(ctx, n.Y, f)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "&":
		return toString(x) + toString(y), nil
	case "=", "<>", "<", "<=", ">", ">=":
		return compareOp(n, x, y)
	default:
		return arith(n, x, y)
	}
}

func compareOp(n *compiler.Binary, x, y any) (any, error) {
	c, ok := compareValues(x, y)
	if !ok {
		switch n.Op {
		case "=":
			return false, nil
		case "<>":
			return true, nil
		}
		return nil, mismatch(n.Pos(), "cannot compare %s with %s", describe(x), describe(y))
	}
	switch n.Op {
	case "=":
		return c == 0, nil
	case "<>":
		return c != 0, nil
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func divideByZero(pos int) error {
	return types.NewError(types.ErrDivideByZero, "division by zero", pos)
}

// integral reports whether v takes part in integer arithmetic. Nothing
// counts as 0.
func integral(v any) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case int64:
		return x, true
	}
	return 0, false
}

func arith(n *compiler.Binary, x, y any) (any, error) {
	x, y = normalize(x), normalize(y)

	if n.Op == "+" {
		xs, xStr := x.(string)
		ys, yStr := y.(string)
		if xStr && yStr {
			return xs + ys, nil
		}
	}

	_, xDec := x.(decimal.Decimal)
	_, yDec := y.(decimal.Decimal)
	if xDec || yDec {
		return decimalArith(n, x, y)
	}

	if xi, ok := integral(x); ok {
		if yi, ok := integral(y); ok {
			switch n.Op {
			case "+":
				return xi + yi, nil
			case "-":
				return xi - yi, nil
			case "*":
				return xi * yi, nil
			case `\`:
				if yi == 0 {
					return nil, divideByZero(n.Pos())
				}
				return xi / yi, nil
			case "Mod":
				if yi == 0 {
					return nil, divideByZero(n.Pos())
				}
				return xi % yi, nil
			}
		}
	}

	xf, ok := toFloat(x)
	if !ok {
		return nil, mismatch(n.X.Pos(), "operator %s: %s is not numeric", n.Op, describe(x))
	}
	yf, ok := toFloat(y)
	if !ok {
		return nil, mismatch(n.Y.Pos(), "operator %s: %s is not numeric", n.Op, describe(y))
	}

	switch n.Op {
	case "+":
		return xf + yf, nil
	case "-":
		return xf - yf, nil
	case "*":
		return xf * yf, nil
	case "/":
		if yf == 0 {
			return nil, divideByZero(n.Pos())
		}
		return xf / yf, nil
	case `\`:
		xi, yi := int64(math.RoundToEven(xf)), int64(math.RoundToEven(yf))
		if yi == 0 {
			return nil, divideByZero(n.Pos())
		}
		return xi / yi, nil
	case "Mod":
		if yf == 0 {
			return nil, divideByZero(n.Pos())
		}
		return math.Mod(xf, yf), nil
	case "^":
		return math.Pow(xf, yf), nil
	default:
		return nil, mismatch(n.Pos(), "unknown operator %s", n.Op)
	}
}

func decimalArith(n *compiler.Binary, x, y any) (any, error) {
	xd, ok := toDecimal(x)
	if !ok {
		return nil, mismatch(n.X.Pos(), "operator %s: %s is not numeric", n.Op, describe(x))
	}
	yd, ok := toDecimal(y)
	if !ok {
		return nil, mismatch(n.Y.Pos(), "operator %s: %s is not numeric", n.Op, describe(y))
	}
	switch n.Op {
	case "+":
		return xd.Add(yd), nil
	case "-":
		return xd.Sub(yd), nil
	case "*":
		return xd.Mul(yd), nil
	case "/":
		if yd.IsZero() {
			return nil, divideByZero(n.Pos())
		}
		return xd.Div(yd), nil
	case `\`:
		if yd.RoundBank(0).IsZero() {
			return nil, divideByZero(n.Pos())
		}
		return xd.RoundBank(0).Div(yd.RoundBank(0)).Truncate(0).IntPart(), nil
	case "Mod":
		if yd.IsZero() {
			return nil, divideByZero(n.Pos())
		}
		return xd.Mod(yd), nil
	case "^":
		return math.Pow(xd.InexactFloat64(), yd.InexactFloat64()), nil
	default:
		return nil, mismatch(n.Pos(), "unknown operator %s", n.Op)
	}
}

func unary(n *compiler.Unary, x any) (any, error) {
	x = normalize(x)
	if n.Op == "Not" {
		b, ok := toBool(x)
		if !ok {
			return nil, mismatch(n.Pos(), "Not operand is %s, not Boolean", describe(x))
		}
		return !b, nil
	}
	switch v := x.(type) {
	case nil:
		return int64(0), nil
	case int64:
		return -v, nil
	case float64:
		return -v, nil
	case decimal.Decimal:
		return v.Neg(), nil
	}
	f, ok := toFloat(x)
	if !ok {
		return nil, mismatch(n.Pos(), "cannot negate %s", describe(x))
	}
	return -f, nil
}
