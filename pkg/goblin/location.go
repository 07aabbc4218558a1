package goblin

import "github.com/dd0wney/goblin/pkg/edit"

// EditKind says whether an edit's headline change concerned a concept or a
// constraint.
type EditKind int

const (
	ConceptEdit EditKind = iota
	ConstraintEdit
)

func (k EditKind) String() string {
	if k == ConstraintEdit {
		return "constraint"
	}
	return "concept"
}

// EditLocation tells a presentation layer where an undo or redo took effect.
// For constraint edits Concept is the constraint's source.
type EditLocation struct {
	Hierarchy  *Hierarchy
	Kind       EditKind
	Added      bool
	Concept    *Concept
	Constraint *Constraint
}

func locate(e edit.Edit) EditLocation {
	switch t := e.Target.(type) {
	case *conceptUnit:
		return EditLocation{
			Hierarchy: t.c.h,
			Kind:      ConceptEdit,
			Added:     e.Added,
			Concept:   t.c,
		}
	case constraintUnit:
		return EditLocation{
			Hierarchy:  t.k.ctype.h,
			Kind:       ConstraintEdit,
			Added:      e.Added,
			Concept:    t.k.Source(),
			Constraint: t.k,
		}
	default:
		return EditLocation{Added: e.Added}
	}
}
