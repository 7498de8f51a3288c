package types

import (
	"strconv"
	"strings"
	"time"
)

// ValueType is the declared result type of an expression or parameter.
type ValueType uint8

const (
	TypeVariant ValueType = iota
	TypeBoolean
	TypeInteger
	TypeFloat
	TypeString
	TypeDateTime
)

var valueTypeNames = [...]string{
	TypeVariant:  "Variant",
	TypeBoolean:  "Boolean",
	TypeInteger:  "Integer",
	TypeFloat:    "Float",
	TypeString:   "String",
	TypeDateTime: "DateTime",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "Unknown"
}

// Neutral returns the value an expression of type t evaluates to when it
// failed to compile.
func (t ValueType) Neutral() any {
	switch t {
	case TypeBoolean:
		return false
	case TypeInteger:
		return int64(0)
	case TypeFloat:
		return 0.0
	case TypeString:
		return ""
	case TypeDateTime:
		return time.Time{}
	default:
		return nil
	}
}

// ParseConstant converts the text of a non-formula value to type t.
// ok is false when the text is not a valid literal for t.
func (t ValueType) ParseConstant(s string) (v any, ok bool) {
	switch t {
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		return b, err == nil
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	case TypeDateTime:
		for _, layout := range DateLayouts {
			if tm, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return tm, true
			}
		}
		return time.Time{}, false
	default:
		return s, true
	}
}

// DateLayouts are the layouts accepted for date literals and conversions.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
}
