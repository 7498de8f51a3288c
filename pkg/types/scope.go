package types

import "fmt"

// ScopeKind classifies an aggregation scope.
type ScopeKind uint8

const (
	ScopeReport ScopeKind = iota
	ScopeDataSet
	ScopeGroup
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeDataSet:
		return "dataset"
	case ScopeGroup:
		return "group"
	default:
		return "report"
	}
}

// Scope describes the aggregation boundary an aggregate accumulates over.
//
// ID is the identifier of the document node that defines the scope (the
// Grouping or DataSet), or 0 for the report scope. Compile-time bindings and
// runtime group entries are matched by ID, never by Name.
type Scope struct {
	Kind ScopeKind
	Name string
	ID   int
	// DataSet is the ID of the dataset the scope iterates; equal to ID for
	// dataset scopes.
	DataSet int
}

// ReportScope is the scope of aggregates with no enclosing dataset.
var ReportScope = Scope{Kind: ScopeReport}

// Same reports whether s and o denote the same scope.
func (s Scope) Same(o Scope) bool {
	return s.Kind == o.Kind && s.ID == o.ID
}

func (s Scope) String() string {
	if s.Kind == ScopeReport {
		return "report"
	}
	return fmt.Sprintf("%s %q (#%d)", s.Kind, s.Name, s.ID)
}
