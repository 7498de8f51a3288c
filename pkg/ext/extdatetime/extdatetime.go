// Package extdatetime provides date functions beyond the built-in set of
// report expressions.
//
// Intervals are named "yyyy" (year), "q" (quarter), "m" (month), "d" (day),
// "ww" (week), "h" (hour), "n" (minute) and "s" (second).
package extdatetime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandrolain/gordl/pkg/ext/extutil"
	"github.com/sandrolain/gordl/pkg/functions"
)

// All returns all extended date function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		DateAdd(),
		DateDiff(),
		DateSerial(),
		Hour(),
		Minute(),
		Second(),
		Weekday(),
		MonthName(),
	}
}

// DateAdd returns the definition for DateAdd(interval, amount, date).
func DateAdd() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "DateAdd",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			n, err := extutil.Int(args[1])
			if err != nil {
				return nil, fmt.Errorf("amount: %w", err)
			}
			t, err := extutil.Time(args[2])
			if err != nil {
				return nil, err
			}
			switch strings.ToLower(extutil.String(args[0])) {
			case "yyyy":
				return t.AddDate(n, 0, 0), nil
			case "q":
				return t.AddDate(0, 3*n, 0), nil
			case "m":
				return t.AddDate(0, n, 0), nil
			case "d":
				return t.AddDate(0, 0, n), nil
			case "ww":
				return t.AddDate(0, 0, 7*n), nil
			case "h":
				return t.Add(time.Duration(n) * time.Hour), nil
			case "n":
				return t.Add(time.Duration(n) * time.Minute), nil
			case "s":
				return t.Add(time.Duration(n) * time.Second), nil
			}
			return nil, fmt.Errorf("unsupported interval %q", args[0])
		},
	}
}

// DateDiff returns the definition for DateDiff(interval, from, to): the
// number of interval boundaries crossed between the two dates.
func DateDiff() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "DateDiff",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			from, err := extutil.Time(args[1])
			if err != nil {
				return nil, err
			}
			to, err := extutil.Time(args[2])
			if err != nil {
				return nil, err
			}
			months := int64(to.Year()-from.Year())*12 + int64(to.Month()-from.Month())
			d := to.Sub(from)
			switch strings.ToLower(extutil.String(args[0])) {
			case "yyyy":
				return int64(to.Year() - from.Year()), nil
			case "q":
				return int64(to.Year()-from.Year())*4 + int64(quarter(to)-quarter(from)), nil
			case "m":
				return months, nil
			case "d":
				return int64(startOfDay(to).Sub(startOfDay(from)).Hours() / 24), nil
			case "ww":
				return int64(startOfDay(to).Sub(startOfDay(from)).Hours() / (24 * 7)), nil
			case "h":
				return int64(d / time.Hour), nil
			case "n":
				return int64(d / time.Minute), nil
			case "s":
				return int64(d / time.Second), nil
			}
			return nil, fmt.Errorf("unsupported interval %q", args[0])
		},
	}
}

// DateSerial returns the definition for DateSerial(year, month, day).
// Out of range months and days carry over as in time.Date.
func DateSerial() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "DateSerial",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			var parts [3]int
			for i := range parts {
				n, err := extutil.Int(args[i])
				if err != nil {
					return nil, err
				}
				parts[i] = n
			}
			return time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC), nil
		},
	}
}

// Hour returns the definition for Hour(date).
func Hour() functions.CustomFunctionDef {
	return component("Hour", func(t time.Time) any { return int64(t.Hour()) })
}

// Minute returns the definition for Minute(date).
func Minute() functions.CustomFunctionDef {
	return component("Minute", func(t time.Time) any { return int64(t.Minute()) })
}

// Second returns the definition for Second(date).
func Second() functions.CustomFunctionDef {
	return component("Second", func(t time.Time) any { return int64(t.Second()) })
}

// Weekday returns the definition for Weekday(date): 1 for Sunday to 7 for
// Saturday.
func Weekday() functions.CustomFunctionDef {
	return component("Weekday", func(t time.Time) any { return int64(t.Weekday()) + 1 })
}

// MonthName returns the definition for MonthName(date).
func MonthName() functions.CustomFunctionDef {
	return component("MonthName", func(t time.Time) any { return t.Month().String() })
}

func component(name string, get func(time.Time) any) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			if args[0] == nil {
				return nil, nil
			}
			t, err := extutil.Time(args[0])
			if err != nil {
				return nil, err
			}
			return get(t), nil
		},
	}
}

func quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
