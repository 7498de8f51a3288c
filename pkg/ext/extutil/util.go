// Package extutil converts expression values for the ext sub-packages.
//
// Values reaching a host function are nil (Nothing), bool, int64, float64,
// decimal.Decimal, string or time.Time.
package extutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Float converts a numeric value to float64. Nothing is 0.
func Float(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case float64:
		return x, nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("argument must be a number, got %T", v)
	}
}

// Int converts a numeric value to int, truncating fractions.
func Int(v any) (int, error) {
	if i, ok := v.(int64); ok {
		return int(i), nil
	}
	f, err := Float(v)
	return int(f), err
}

// String converts a scalar value to its string form. Nothing is "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// Time converts a date value. Strings are parsed as RFC 3339 or as a
// plain date.
func Time(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%q is not a date", x)
	default:
		return time.Time{}, fmt.Errorf("argument must be a date, got %T", v)
	}
}

// IsNumber reports whether v is one of the numeric value kinds.
func IsNumber(v any) bool {
	switch v.(type) {
	case int64, int, float64, decimal.Decimal:
		return true
	}
	return false
}
