// Package integrity checks the structural invariants of a goblin Model.
//
// The edit engine keeps these invariants by construction; the checker exists
// to catch bugs, and can be attached to a Model as its Verifier so every
// performed, undone or redone edit is checked.
package integrity

import (
	"github.com/dd0wney/goblin/pkg/goblin"
)

// ModelReader defines the read-only operations needed for integrity checks.
// *goblin.Model implements it.
type ModelReader interface {
	Hierarchies() []*goblin.Hierarchy
	FindConflicts(k *goblin.Constraint) []*goblin.Constraint
}

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ViolationType categorizes the type of invariant violation
type ViolationType int

const (
	BrokenTree ViolationType = iota
	IndexMismatch
	DetachedReference
	DomainViolation
	OverlappingTargets
	CardinalityViolation
	UnresolvedConflict
)

func (vt ViolationType) String() string {
	switch vt {
	case BrokenTree:
		return "BrokenTree"
	case IndexMismatch:
		return "IndexMismatch"
	case DetachedReference:
		return "DetachedReference"
	case DomainViolation:
		return "DomainViolation"
	case OverlappingTargets:
		return "OverlappingTargets"
	case CardinalityViolation:
		return "CardinalityViolation"
	case UnresolvedConflict:
		return "UnresolvedConflict"
	default:
		return "Unknown"
	}
}

// Violation represents a broken invariant
type Violation struct {
	Type       ViolationType
	Severity   Severity
	Hierarchy  string
	Concept    string
	Constraint string
	Message    string
	Details    map[string]any
}

// Check is the interface that all integrity checks implement.
type Check interface {
	// Validate checks the model and returns the violations found
	Validate(model ModelReader) ([]Violation, error)

	// Name returns a human-readable name for the check
	Name() string
}
