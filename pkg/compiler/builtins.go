package compiler

import (
	"strings"

	"github.com/sandrolain/gordl/pkg/types"
)

// BuiltinOp identifies a built-in scalar function. The evaluator dispatches
// on the op, never on the name.
type BuiltinOp uint8

const (
	OpIif BuiltinOp = iota
	OpSwitch
	OpChoose
	OpIsNothing
	OpLen
	OpLeft
	OpRight
	OpMid
	OpUCase
	OpLCase
	OpTrim
	OpReplace
	OpInStr
	OpCStr
	OpCDbl
	OpCInt
	OpCBool
	OpCDate
	OpAbs
	OpRound
	OpFloor
	OpCeiling
	OpNow
	OpToday
	OpYear
	OpMonth
	OpDay
	OpFormat
)

// Builtin describes a built-in scalar function.
type Builtin struct {
	Op      BuiltinOp
	Name    string
	MinArgs int
	MaxArgs int // -1 for unlimited
}

func (b *Builtin) accepts(n int) bool {
	return n >= b.MinArgs && (b.MaxArgs < 0 || n <= b.MaxArgs)
}

var builtins = map[string]*Builtin{}

func init() {
	for _, b := range []Builtin{
		{OpIif, "Iif", 3, 3},
		{OpSwitch, "Switch", 2, -1},
		{OpChoose, "Choose", 2, -1},
		{OpIsNothing, "IsNothing", 1, 1},
		{OpLen, "Len", 1, 1},
		{OpLeft, "Left", 2, 2},
		{OpRight, "Right", 2, 2},
		{OpMid, "Mid", 2, 3},
		{OpUCase, "UCase", 1, 1},
		{OpLCase, "LCase", 1, 1},
		{OpTrim, "Trim", 1, 1},
		{OpReplace, "Replace", 3, 3},
		{OpInStr, "InStr", 2, 2},
		{OpCStr, "CStr", 1, 1},
		{OpCDbl, "CDbl", 1, 1},
		{OpCInt, "CInt", 1, 1},
		{OpCBool, "CBool", 1, 1},
		{OpCDate, "CDate", 1, 1},
		{OpAbs, "Abs", 1, 1},
		{OpRound, "Round", 1, 2},
		{OpFloor, "Floor", 1, 1},
		{OpCeiling, "Ceiling", 1, 1},
		{OpNow, "Now", 0, 0},
		{OpToday, "Today", 0, 0},
		{OpYear, "Year", 1, 1},
		{OpMonth, "Month", 1, 1},
		{OpDay, "Day", 1, 1},
		{OpFormat, "Format", 2, 2},
	} {
		b := b
		builtins[strings.ToLower(b.Name)] = &b
	}
}

// LookupBuiltin returns the built-in function called name.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtins[strings.ToLower(name)]
	return b, ok
}

// AggFunc identifies an aggregate function.
type AggFunc uint8

const (
	AggSum AggFunc = iota
	AggAvg
	AggCount
	AggCountDistinct
	AggCountRows
	AggMin
	AggMax
	AggFirst
	AggLast
	AggStDev
	AggVar
	AggRunningValue
	AggRowNumber
	AggPrevious
)

type aggregateDef struct {
	fn   AggFunc
	name string
	// exprArgs is the number of leading non-scope arguments.
	exprArgs int
	// scoped reports whether a trailing scope argument is accepted.
	scoped bool
	// runnable reports whether the function may be the accumulator of a
	// RunningValue.
	runnable bool
}

var aggregates = map[string]*aggregateDef{}

var aggNames = map[AggFunc]string{}

func init() {
	for _, a := range []aggregateDef{
		{AggSum, "Sum", 1, true, true},
		{AggAvg, "Avg", 1, true, true},
		{AggCount, "Count", 1, true, true},
		{AggCountDistinct, "CountDistinct", 1, true, true},
		{AggCountRows, "CountRows", 0, true, false},
		{AggMin, "Min", 1, true, true},
		{AggMax, "Max", 1, true, true},
		{AggFirst, "First", 1, true, false},
		{AggLast, "Last", 1, true, false},
		{AggStDev, "StDev", 1, true, true},
		{AggVar, "Var", 1, true, true},
		{AggRunningValue, "RunningValue", 2, true, false},
		{AggRowNumber, "RowNumber", 0, true, false},
		{AggPrevious, "Previous", 1, false, false},
	} {
		a := a
		aggregates[strings.ToLower(a.name)] = &a
		aggNames[a.fn] = a.name
	}
}

func (f AggFunc) String() string {
	if n, ok := aggNames[f]; ok {
		return n
	}
	return "Unknown"
}

// impliedAggregate reports whether a bare name stands for a zero-argument
// aggregate call.
func impliedAggregate(name string) (*aggregateDef, bool) {
	a, ok := aggregates[strings.ToLower(name)]
	if !ok || a.exprArgs != 0 {
		return nil, false
	}
	return a, true
}

// lookupGlobal resolves a member of the Globals or User collection.
func lookupGlobal(name string, user bool) (types.Global, bool) {
	for g := types.Global(0); g < types.NumGlobals; g++ {
		if g.UserGlobal() == user && strings.EqualFold(g.String(), name) {
			return g, true
		}
	}
	return 0, false
}
