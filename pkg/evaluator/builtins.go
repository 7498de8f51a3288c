package evaluator

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandrolain/gordl/pkg/compiler"
)

func (e *Evaluator) evalBuiltin(ctx context.Context, n *compiler.Call, f frame) (any, error) {
	// Conditional functions evaluate only the selected branch.
	switch n.Fn.Op {
	case compiler.OpIif:
		c, err := e.evalBool(ctx, n.Args[0], f)
		if err != nil {
			return nil, err
		}
		if c {
			return e.eval(ctx, n.Args[1], f)
		}
		return e.eval(ctx, n.Args[2], f)

	case compiler.OpSwitch:
		for i := 0; i+1 < len(n.Args); i += 2 {
			c, err := e.evalBool(ctx, n.Args[i], f)
			if err != nil {
				return nil, err
			}
			if c {
				return e.eval(ctx, n.Args[i+1], f)
			}
		}
		return nil, nil

	case compiler.OpChoose:
		idx, err := e.eval(ctx, n.Args[0], f)
		if err != nil {
			return nil, err
		}
		i, ok := toInt(idx)
		if !ok {
			return nil, mismatch(n.Args[0].Pos(), "Choose index is %s, not numeric", describe(idx))
		}
		if i < 1 || int(i) >= len(n.Args) {
			return nil, nil
		}
		return e.eval(ctx, n.Args[i], f)
	}

	args, err := e.evalArgs(ctx, n.Args, f)
	if err != nil {
		return nil, err
	}

	switch n.Fn.Op {
	case compiler.OpIsNothing:
		return args[0] == nil, nil
	case compiler.OpLen:
		return int64(utf8.RuneCountInString(toString(args[0]))), nil
	case compiler.OpLeft, compiler.OpRight:
		s := []rune(toString(args[0]))
		k, err := intArg(n, args, 1)
		if err != nil {
			return nil, err
		}
		k = min(max(k, 0), len(s))
		if n.Fn.Op == compiler.OpLeft {
			return string(s[:k]), nil
		}
		return string(s[len(s)-k:]), nil
	case compiler.OpMid:
		return mid(n, args)
	case compiler.OpUCase:
		return strings.ToUpper(toString(args[0])), nil
	case compiler.OpLCase:
		return strings.ToLower(toString(args[0])), nil
	case compiler.OpTrim:
		return strings.TrimSpace(toString(args[0])), nil
	case compiler.OpReplace:
		return strings.ReplaceAll(toString(args[0]), toString(args[1]), toString(args[2])), nil
	case compiler.OpInStr:
		s, sub := toString(args[0]), toString(args[1])
		i := strings.Index(s, sub)
		if i < 0 {
			return int64(0), nil
		}
		return int64(utf8.RuneCountInString(s[:i]) + 1), nil
	case compiler.OpCStr:
		return toString(args[0]), nil
	case compiler.OpCDbl:
		v, ok := toFloat(args[0])
		if !ok {
			return nil, mismatch(n.Pos(), "CDbl: cannot convert %s", describe(args[0]))
		}
		return v, nil
	case compiler.OpCInt:
		v, ok := toInt(args[0])
		if !ok {
			return nil, mismatch(n.Pos(), "CInt: cannot convert %s", describe(args[0]))
		}
		return v, nil
	case compiler.OpCBool:
		v, ok := toBool(args[0])
		if !ok {
			return nil, mismatch(n.Pos(), "CBool: cannot convert %s", describe(args[0]))
		}
		return v, nil
	case compiler.OpCDate:
		v, ok := toTime(args[0])
		if !ok {
			return nil, mismatch(n.Pos(), "CDate: cannot convert %s", describe(args[0]))
		}
		return v, nil
	case compiler.OpAbs, compiler.OpFloor, compiler.OpCeiling:
		return numeric1(n, args[0])
	case compiler.OpRound:
		x, ok := toFloat(args[0])
		if !ok {
			return nil, mismatch(n.Pos(), "Round: %s is not numeric", describe(args[0]))
		}
		digits := 0
		if len(args) > 1 {
			d, err := intArg(n, args, 1)
			if err != nil {
				return nil, err
			}
			digits = d
		}
		return roundHalfEven(x, digits), nil
	case compiler.OpNow:
		return e.opts.Now(), nil
	case compiler.OpToday:
		now := e.opts.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case compiler.OpYear, compiler.OpMonth, compiler.OpDay:
		t, ok := toTime(args[0])
		if !ok {
			return nil, mismatch(n.Pos(), "%s: %s is not a date", n.Fn.Name, describe(args[0]))
		}
		switch n.Fn.Op {
		case compiler.OpYear:
			return int64(t.Year()), nil
		case compiler.OpMonth:
			return int64(t.Month()), nil
		default:
			return int64(t.Day()), nil
		}
	case compiler.OpFormat:
		return format(args[0], toString(args[1])), nil
	default:
		return nil, mismatch(n.Pos(), "unsupported function %s", n.Fn.Name)
	}
}

func (e *Evaluator) evalBool(ctx context.Context, n compiler.Node, f frame) (bool, error) {
	v, err := e.eval(ctx, n, f)
	if err != nil {
		return false, err
	}
	b, ok := toBool(v)
	if !ok {
		return false, mismatch(n.Pos(), "condition is %s, not Boolean", describe(v))
	}
	return b, nil
}

func intArg(n *compiler.Call, args []any, i int) (int, error) {
	v, ok := toInt(args[i])
	if !ok {
		return 0, mismatch(n.Args[i].Pos(), "%s argument %d: %s is not numeric", n.Fn.Name, i+1, describe(args[i]))
	}
	return int(v), nil
}

// mid implements Mid(s, start[, length]) with a 1-based start.
func mid(n *compiler.Call, args []any) (any, error) {
	s := []rune(toString(args[0]))
	start, err := intArg(n, args, 1)
	if err != nil {
		return nil, err
	}
	start = max(start-1, 0)
	if start >= len(s) {
		return "", nil
	}
	end := len(s)
	if len(args) > 2 {
		l, err := intArg(n, args, 2)
		if err != nil {
			return nil, err
		}
		end = min(start+max(l, 0), len(s))
	}
	return string(s[start:end]), nil
}

func numeric1(n *compiler.Call, v any) (any, error) {
	v = normalize(v)
	if i, ok := v.(int64); ok {
		if n.Fn.Op == compiler.OpAbs && i < 0 {
			return -i, nil
		}
		return i, nil
	}
	x, ok := toFloat(v)
	if !ok {
		return nil, mismatch(n.Pos(), "%s: %s is not numeric", n.Fn.Name, describe(v))
	}
	switch n.Fn.Op {
	case compiler.OpAbs:
		return math.Abs(x), nil
	case compiler.OpFloor:
		return math.Floor(x), nil
	default:
		return math.Ceil(x), nil
	}
}

// roundHalfEven rounds num to decimals digits, ties to even.
func roundHalfEven(num float64, decimals int) float64 {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return num
	}
	shift := math.Pow(10, float64(decimals))
	return math.RoundToEven(num*shift) / shift
}
