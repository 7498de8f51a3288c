package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandrolain/gordl/pkg/types"
)

// Values flowing through the evaluator are nil (Nothing), bool, int64,
// float64, decimal.Decimal, string and time.Time. Row data may carry any Go
// integer or float kind; those are normalized on first use.

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}

func isNumeric(v any) bool {
	switch normalize(v).(type) {
	case int64, float64, decimal.Decimal:
		return true
	}
	return false
}

// toFloat converts v to float64. Nothing is 0, booleans are 1 and 0, and
// numeric strings are parsed.
func toFloat(v any) (float64, bool) {
	switch x := normalize(v).(type) {
	case nil:
		return 0, true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case decimal.Decimal:
		return x.InexactFloat64(), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// toInt converts v to int64, rounding half to even.
func toInt(v any) (int64, bool) {
	if i, ok := normalize(v).(int64); ok {
		return i, true
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(math.RoundToEven(f)), true
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := normalize(v).(type) {
	case decimal.Decimal:
		return x, true
	case int64:
		return decimal.NewFromInt(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	}
	f, ok := toFloat(v)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func toBool(v any) (bool, bool) {
	switch x := normalize(v).(type) {
	case nil:
		return false, true
	case bool:
		return x, true
	case int64:
		return x != 0, true
	case float64:
		return x != 0, true
	case decimal.Decimal:
		return !x.IsZero(), true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err == nil {
			return b, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f != 0, true
		}
	}
	return false, false
}

func toString(v any) string {
	switch x := normalize(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func toTime(v any) (time.Time, bool) {
	switch x := normalize(v).(type) {
	case nil:
		return time.Time{}, true
	case time.Time:
		return x, true
	case string:
		if t, ok := types.TypeDateTime.ParseConstant(x); ok {
			return t.(time.Time), true
		}
	}
	return time.Time{}, false
}

// describe names the dynamic type of v for error messages.
func describe(v any) string {
	switch normalize(v).(type) {
	case nil:
		return "Nothing"
	case bool:
		return "Boolean"
	case int64:
		return "Integer"
	case float64, decimal.Decimal:
		return "Float"
	case string:
		return "String"
	case time.Time:
		return "DateTime"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// coerce converts v to the declared type t.
func coerce(v any, t types.ValueType) (any, error) {
	switch t {
	case types.TypeBoolean:
		if b, ok := toBool(v); ok {
			return b, nil
		}
	case types.TypeInteger:
		if i, ok := toInt(v); ok {
			return i, nil
		}
	case types.TypeFloat:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case types.TypeString:
		return toString(v), nil
	case types.TypeDateTime:
		if tm, ok := toTime(v); ok {
			return tm, nil
		}
	default:
		v = normalize(v)
		if d, ok := v.(decimal.Decimal); ok {
			return d.InexactFloat64(), nil
		}
		return v, nil
	}
	return nil, mismatch(-1, "cannot convert %s to %s", describe(v), t)
}

// compareValues orders two values: -1, 0 or 1. Nothing sorts first. ok is
// false when the values are not comparable.
func compareValues(x, y any) (c int, ok bool) {
	x, y = normalize(x), normalize(y)
	if x == nil || y == nil {
		switch {
		case x == nil && y == nil:
			return 0, true
		case x == nil:
			return -1, true
		default:
			return 1, true
		}
	}

	if isNumeric(x) && isNumeric(y) {
		xi, xInt := x.(int64)
		yi, yInt := y.(int64)
		if xInt && yInt {
			return cmpOrdered(xi, yi), true
		}
		xd, _ := toDecimal(x)
		yd, _ := toDecimal(y)
		return xd.Cmp(yd), true
	}

	switch xv := x.(type) {
	case string:
		if yv, ok := y.(string); ok {
			return strings.Compare(xv, yv), true
		}
		if isNumeric(y) {
			if xf, ok := toFloat(xv); ok {
				yf, _ := toFloat(y)
				return cmpOrdered(xf, yf), true
			}
		}
	case bool:
		if yv, ok := y.(bool); ok {
			switch {
			case xv == yv:
				return 0, true
			case !xv:
				return -1, true
			default:
				return 1, true
			}
		}
	case time.Time:
		if yv, ok := y.(time.Time); ok {
			return xv.Compare(yv), true
		}
	}
	if s, ok := y.(string); ok && isNumeric(x) {
		if yf, ok := toFloat(s); ok {
			xf, _ := toFloat(x)
			return cmpOrdered(xf, yf), true
		}
	}
	return 0, false
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// keyOf returns a comparable representation of v for grouping and
// distinct counting.
func keyOf(v any) any {
	switch x := normalize(v).(type) {
	case int64:
		return float64(x)
	case decimal.Decimal:
		return x.InexactFloat64()
	case time.Time:
		return x.UnixNano()
	case nil, bool, string, float64:
		return x
	default:
		return fmt.Sprintf("%T:%v", x, x)
	}
}
