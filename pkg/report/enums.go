package report

import (
	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

// enumTable maps the literals of an enumeration to its values. The value of
// a literal is its index; def is substituted for unknown literals.
type enumTable[T ~uint8] struct {
	name     string
	literals []string
	def      T
}

func newEnum[T ~uint8](name string, def T, literals ...string) enumTable[T] {
	return enumTable[T]{name: name, literals: literals, def: def}
}

// lookup returns the value of literal s, matched exactly.
func (t enumTable[T]) lookup(s string) (T, bool) {
	for i, l := range t.literals {
		if l == s {
			return T(i), true
		}
	}
	return t.def, false
}

func (t enumTable[T]) String(v T) string {
	if int(v) < len(t.literals) {
		return t.literals[v]
	}
	return t.name + "(?)"
}

// parse reads the enumeration literal held by el.
func (t enumTable[T]) parse(c *Compilation, n Node, el *element) T {
	s := el.value()
	v, ok := t.lookup(s)
	if !ok {
		c.report(diag.Ignorable, types.ErrUnknownEnum, n, el.pos,
			"%s: unknown %s %q; using %s", el.name, t.name, s, t.String(t.def))
	}
	return v
}

type SortDirection uint8

const (
	Ascending SortDirection = iota
	Descending
)

var sortDirections = newEnum("SortDirection", Ascending, "Ascending", "Descending")

func (v SortDirection) String() string { return sortDirections.String(v) }

type FilterOperator uint8

const (
	OpEqual FilterOperator = iota
	OpLike
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpTopN
	OpBottomN
	OpTopPercent
	OpBottomPercent
	OpIn
	OpBetween
)

var filterOperators = newEnum("FilterOperator", OpEqual,
	"Equal", "Like", "NotEqual", "GreaterThan", "GreaterThanOrEqual",
	"LessThan", "LessThanOrEqual", "TopN", "BottomN", "TopPercent",
	"BottomPercent", "In", "Between")

func (v FilterOperator) String() string { return filterOperators.String(v) }

type ChartType uint8

const (
	ChartColumn ChartType = iota
	ChartBar
	ChartLine
	ChartPie
	ChartScatter
	ChartBubble
	ChartArea
	ChartDoughnut
	ChartStock
)

var chartTypes = newEnum("ChartType", ChartColumn,
	"Column", "Bar", "Line", "Pie", "Scatter", "Bubble", "Area", "Doughnut", "Stock")

func (v ChartType) String() string { return chartTypes.String(v) }

type ChartSubtype uint8

const (
	SubtypePlain ChartSubtype = iota
	SubtypeStacked
	SubtypePercentStacked
	SubtypeSmooth
	SubtypeExploded
	SubtypeLine
	SubtypeSmoothLine
	SubtypeHighLowClose
	SubtypeOpenHighLowClose
	SubtypeCandlestick
)

var chartSubtypes = newEnum("ChartSubtype", SubtypePlain,
	"Plain", "Stacked", "PercentStacked", "Smooth", "Exploded", "Line",
	"SmoothLine", "HighLowClose", "OpenHighLowClose", "Candlestick")

func (v ChartSubtype) String() string { return chartSubtypes.String(v) }

type PlotType uint8

const (
	PlotAuto PlotType = iota
	PlotLine
)

var plotTypes = newEnum("PlotType", PlotAuto, "Auto", "Line")

func (v PlotType) String() string { return plotTypes.String(v) }

type MarkerType uint8

const (
	MarkerNone MarkerType = iota
	MarkerSquare
	MarkerCircle
	MarkerDiamond
	MarkerTriangle
	MarkerCross
	MarkerAuto
)

var markerTypes = newEnum("MarkerType", MarkerNone,
	"None", "Square", "Circle", "Diamond", "Triangle", "Cross", "Auto")

func (v MarkerType) String() string { return markerTypes.String(v) }

type TickMarks uint8

const (
	TickNone TickMarks = iota
	TickInside
	TickOutside
	TickCross
)

var tickMarks = newEnum("TickMarks", TickNone, "None", "Inside", "Outside", "Cross")

func (v TickMarks) String() string { return tickMarks.String(v) }

type LegendPosition uint8

const (
	LegendRightTop LegendPosition = iota
	LegendTopLeft
	LegendTopCenter
	LegendTopRight
	LegendLeftTop
	LegendLeftCenter
	LegendLeftBottom
	LegendRightCenter
	LegendRightBottom
	LegendBottomRight
	LegendBottomCenter
	LegendBottomLeft
)

var legendPositions = newEnum("LegendPosition", LegendRightTop,
	"RightTop", "TopLeft", "TopCenter", "TopRight", "LeftTop", "LeftCenter",
	"LeftBottom", "RightCenter", "RightBottom", "BottomRight", "BottomCenter",
	"BottomLeft")

func (v LegendPosition) String() string { return legendPositions.String(v) }

// DataType is the declared type of a report parameter.
type DataType uint8

const (
	DataString DataType = iota
	DataBoolean
	DataDateTime
	DataInteger
	DataFloat
)

var dataTypes = newEnum("DataType", DataString, "String", "Boolean", "DateTime", "Integer", "Float")

func (v DataType) String() string { return dataTypes.String(v) }

// ValueType returns the expression type values of v are compiled to.
func (v DataType) ValueType() types.ValueType {
	switch v {
	case DataBoolean:
		return types.TypeBoolean
	case DataDateTime:
		return types.TypeDateTime
	case DataInteger:
		return types.TypeInteger
	case DataFloat:
		return types.TypeFloat
	default:
		return types.TypeString
	}
}

type TextAlign uint8

const (
	AlignGeneral TextAlign = iota
	AlignLeft
	AlignCenter
	AlignRight
)

var textAligns = newEnum("TextAlign", AlignGeneral, "General", "Left", "Center", "Right")

func (v TextAlign) String() string { return textAligns.String(v) }

type FontWeight uint8

const (
	WeightNormal FontWeight = iota
	WeightLighter
	WeightBold
	WeightBolder
	Weight100
	Weight200
	Weight300
	Weight400
	Weight500
	Weight600
	Weight700
	Weight800
	Weight900
)

var fontWeights = newEnum("FontWeight", WeightNormal,
	"Normal", "Lighter", "Bold", "Bolder",
	"100", "200", "300", "400", "500", "600", "700", "800", "900")

func (v FontWeight) String() string { return fontWeights.String(v) }

type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderDotted
	BorderDashed
	BorderSolid
	BorderDouble
	BorderGroove
	BorderRidge
	BorderInset
	BorderOutset
)

var borderStyles = newEnum("BorderStyle", BorderNone,
	"None", "Dotted", "Dashed", "Solid", "Double", "Groove", "Ridge", "Inset", "Outset")

func (v BorderStyle) String() string { return borderStyles.String(v) }

type ImageSource uint8

const (
	SourceExternal ImageSource = iota
	SourceEmbedded
	SourceDatabase
)

var imageSources = newEnum("ImageSource", SourceExternal, "External", "Embedded", "Database")

func (v ImageSource) String() string { return imageSources.String(v) }

type ImageSizing uint8

const (
	SizingAutoSize ImageSizing = iota
	SizingFit
	SizingFitProportional
	SizingClip
)

var imageSizings = newEnum("ImageSizing", SizingAutoSize, "AutoSize", "Fit", "FitProportional", "Clip")

func (v ImageSizing) String() string { return imageSizings.String(v) }

type CommandType uint8

const (
	CommandText CommandType = iota
	CommandStoredProcedure
	CommandTableDirect
)

var commandTypes = newEnum("CommandType", CommandText, "Text", "StoredProcedure", "TableDirect")

func (v CommandType) String() string { return commandTypes.String(v) }
