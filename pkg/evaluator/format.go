package evaluator

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// format renders v with a .NET style format string: standard numeric
// formats (N, F, C, P, D, E with optional precision), custom numeric
// patterns built from 0 # , . %, and standard or custom date patterns.
func format(v any, pattern string) string {
	v = normalize(v)
	if pattern == "" {
		return toString(v)
	}
	switch x := v.(type) {
	case time.Time:
		return formatTime(x, pattern)
	case int64, float64, decimal.Decimal:
		d, _ := toDecimal(x)
		return formatNumber(d, pattern)
	default:
		return toString(v)
	}
}

func formatNumber(d decimal.Decimal, pattern string) string {
	if s, ok := standardNumber(d, pattern); ok {
		return s
	}

	// Custom pattern.
	percent := strings.Contains(pattern, "%")
	if percent {
		d = d.Mul(decimal.NewFromInt(100))
	}
	num := strings.Trim(pattern, "%")
	if i := strings.IndexByte(num, '.'); i >= 0 {
		frac := num[i+1:]
		minDec := strings.Count(frac, "0")
		maxDec := minDec + strings.Count(frac, "#")
		s := trimZeros(d.StringFixed(int32(maxDec)), maxDec-minDec)
		return finishNumber(s, strings.Contains(num[:i], ","), percent)
	}
	return finishNumber(d.StringFixed(0), strings.Contains(num, ","), percent)
}

func standardNumber(d decimal.Decimal, pattern string) (string, bool) {
	spec := strings.ToUpper(pattern[:1])
	prec := -1
	if len(pattern) > 1 {
		p, err := strconv.Atoi(pattern[1:])
		if err != nil {
			return "", false
		}
		prec = p
	}
	precision := func(def int) int32 {
		if prec < 0 {
			return int32(def)
		}
		return int32(prec)
	}
	switch spec {
	case "N":
		return finishNumber(d.StringFixed(precision(2)), true, false), true
	case "F":
		return d.StringFixed(precision(2)), true
	case "C":
		s := finishNumber(d.Abs().StringFixed(precision(2)), true, false)
		if d.IsNegative() {
			return "-$" + s, true
		}
		return "$" + s, true
	case "P":
		return finishNumber(d.Mul(decimal.NewFromInt(100)).StringFixed(precision(2)), true, true), true
	case "D":
		s := d.Truncate(0).Abs().String()
		if w := int(precision(0)); len(s) < w {
			s = strings.Repeat("0", w-len(s)) + s
		}
		if d.Truncate(0).IsNegative() {
			return "-" + s, true
		}
		return s, true
	case "E":
		f := d.InexactFloat64()
		return strconv.FormatFloat(f, 'E', int(precision(6)), 64), true
	}
	return "", false
}

// trimZeros removes up to n trailing zeros of the fraction of s.
func trimZeros(s string, n int) string {
	for ; n > 0 && strings.HasSuffix(s, "0"); n-- {
		s = s[:len(s)-1]
	}
	return strings.TrimSuffix(s, ".")
}

func finishNumber(s string, group, percent bool) string {
	if group {
		s = groupThousands(s)
	}
	if percent {
		s += "%"
	}
	return s
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

var standardDates = map[string]string{
	"d": "1/2/2006",
	"D": "Monday, January 2, 2006",
	"t": "3:04 PM",
	"T": "3:04:05 PM",
	"f": "Monday, January 2, 2006 3:04 PM",
	"F": "Monday, January 2, 2006 3:04:05 PM",
	"g": "1/2/2006 3:04 PM",
	"G": "1/2/2006 3:04:05 PM",
	"s": "2006-01-02T15:04:05",
	"u": "2006-01-02 15:04:05Z",
}

// dateTokens maps custom date tokens to Go layout elements, longest first.
var dateTokens = []struct{ tok, layout string }{
	{"yyyy", "2006"},
	{"MMMM", "January"},
	{"dddd", "Monday"},
	{"MMM", "Jan"},
	{"ddd", "Mon"},
	{"yy", "06"},
	{"MM", "01"},
	{"dd", "02"},
	{"HH", "15"},
	{"hh", "03"},
	{"mm", "04"},
	{"ss", "05"},
	{"tt", "PM"},
	{"M", "1"},
	{"d", "2"},
	{"h", "3"},
}

func formatTime(t time.Time, pattern string) string {
	if layout, ok := standardDates[pattern]; ok {
		return t.Format(layout)
	}
	var b strings.Builder
	for i := 0; i < len(pattern); {
		matched := false
		for _, dt := range dateTokens {
			if strings.HasPrefix(pattern[i:], dt.tok) {
				b.WriteString(t.Format(dt.layout))
				i += len(dt.tok)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		switch pattern[i] {
		case 'H':
			b.WriteString(strconv.Itoa(t.Hour()))
		case 'm':
			b.WriteString(strconv.Itoa(t.Minute()))
		case 's':
			b.WriteString(strconv.Itoa(t.Second()))
		default:
			b.WriteByte(pattern[i])
		}
		i++
	}
	return b.String()
}
