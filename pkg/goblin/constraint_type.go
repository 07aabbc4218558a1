package goblin

import (
	"github.com/dd0wney/goblin/pkg/indirect"
)

// ConstraintType names a relation between the concepts of one hierarchy (the
// sources) and the concepts below a root target (the values).
type ConstraintType struct {
	name        string
	h           *Hierarchy
	rootSource  *indirect.Tracker[*Concept]
	rootTarget  *indirect.Tracker[*Concept]
	semantics   SemanticsSet
	cardinality Cardinality
	root        *Constraint
}

func (t *ConstraintType) Name() string                { return t.name }
func (t *ConstraintType) Hierarchy() *Hierarchy       { return t.h }
func (t *ConstraintType) RootSource() *Concept        { return t.rootSource.Get() }
func (t *ConstraintType) RootTarget() *Concept        { return t.rootTarget.Get() }
func (t *ConstraintType) Semantics() SemanticsSet     { return t.semantics }
func (t *ConstraintType) Cardinality() Cardinality    { return t.cardinality }
func (t *ConstraintType) RootConstraint() *Constraint { return t.root }
func (t *ConstraintType) String() string              { return t.name }

// Enables reports whether constraints of the given semantics may be created.
func (t *ConstraintType) Enables(s Semantics) bool {
	return t.semantics.Has(s)
}

// MultiValued reports whether a source may hold several implied values.
func (t *ConstraintType) MultiValued() bool {
	return t.cardinality == MultiValue
}
