package types

// Global is a fixed slot of the execution context, filled by the renderer.
type Global uint8

const (
	GlobalPageNumber Global = iota
	GlobalTotalPages
	GlobalExecutionTime
	GlobalReportName
	GlobalReportFolder
	GlobalUserID
	GlobalLanguage

	NumGlobals
)

var globalNames = [...]string{
	GlobalPageNumber:    "PageNumber",
	GlobalTotalPages:    "TotalPages",
	GlobalExecutionTime: "ExecutionTime",
	GlobalReportName:    "ReportName",
	GlobalReportFolder:  "ReportFolder",
	GlobalUserID:        "UserID",
	GlobalLanguage:      "Language",
}

func (g Global) String() string {
	if g < NumGlobals {
		return globalNames[g]
	}
	return "Unknown"
}

// UserGlobal reports whether g belongs to the User collection rather than
// to Globals.
func (g Global) UserGlobal() bool {
	return g == GlobalUserID || g == GlobalLanguage
}
