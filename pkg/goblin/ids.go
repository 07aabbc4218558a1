// Package goblin implements a transactional model of constrained concept
// hierarchies.
//
// A Model owns one or more Hierarchies. Each hierarchy is a rooted tree of
// Concepts; concepts carry Constraints that either restrict (valid values) or
// assert (implied value) the concepts a given ConstraintType may point at.
// Every mutation is conflict-checked, performed as a reversible edit.Action,
// and can be undone and redone.
//
// Concepts are never mutated in place. Moving or renaming a concept builds a
// new value and redirects the concept's tracker to it, so code holding a
// tracker (see Model.ConceptHandle) always sees the current version while
// code holding the old pointer sees a detached snapshot.
package goblin

// EntityID identifies a concept. Two equal ids name the same logical concept.
type EntityID struct {
	URI   string
	Label string
}

// NewEntityID creates an id with the given URI and display label.
func NewEntityID(uri, label string) EntityID {
	return EntityID{URI: uri, Label: label}
}

// String returns the label, or the URI if the label is empty.
func (id EntityID) String() string {
	if id.Label != "" {
		return id.Label
	}
	return id.URI
}

// IsZero reports whether the id is empty.
func (id EntityID) IsZero() bool {
	return id.URI == "" && id.Label == ""
}

// ConceptKind distinguishes how a concept came to exist.
type ConceptKind int

const (
	// RootConcept is the root of a hierarchy.
	RootConcept ConceptKind = iota
	// ContentConcept is derived from external content; its id is fixed.
	ContentConcept
	// DynamicConcept is created by the user and may be renamed.
	DynamicConcept
)

func (k ConceptKind) String() string {
	switch k {
	case RootConcept:
		return "root"
	case ContentConcept:
		return "content"
	case DynamicConcept:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Semantics is the meaning of a constraint.
type Semantics int

const (
	// ValidValues restricts the values a concept may take.
	ValidValues Semantics = iota
	// ImpliedValue asserts the value a concept takes.
	ImpliedValue
)

func (s Semantics) String() string {
	switch s {
	case ValidValues:
		return "valid-values"
	case ImpliedValue:
		return "implied-value"
	default:
		return "unknown"
	}
}

// SemanticsSet is a bit set of enabled semantics.
type SemanticsSet uint8

const (
	EnableValidValues  SemanticsSet = 1 << ValidValues
	EnableImpliedValue SemanticsSet = 1 << ImpliedValue
	EnableAll                       = EnableValidValues | EnableImpliedValue
)

// Has reports whether s is enabled.
func (set SemanticsSet) Has(s Semantics) bool {
	return set&(1<<s) != 0
}

// Cardinality governs how many implied values a source may hold per type.
type Cardinality int

const (
	SingleValue Cardinality = iota
	MultiValue
)

func (c Cardinality) String() string {
	if c == MultiValue {
		return "multi"
	}
	return "single"
}
