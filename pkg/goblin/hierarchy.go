package goblin

import (
	"fmt"

	"github.com/dd0wney/goblin/pkg/indirect"
	"github.com/dd0wney/goblin/pkg/logging"
)

// Hierarchy is one rooted tree of concepts together with the constraint types
// whose sources live in it.
type Hierarchy struct {
	model           *Model
	root            *Concept
	types           []*ConstraintType
	index           map[EntityID]*Concept
	constraintCount int
}

// Root returns the root concept.
func (h *Hierarchy) Root() *Concept { return h.root }

// Name returns the display name of the root.
func (h *Hierarchy) Name() string { return h.root.String() }

func (h *Hierarchy) String() string { return h.Name() }

// Model returns the owning model.
func (h *Hierarchy) Model() *Model { return h.model }

// Concept looks up an attached concept by id.
func (h *Hierarchy) Concept(id EntityID) (*Concept, error) {
	if c, ok := h.index[id]; ok {
		return c, nil
	}
	return nil, ConceptNotFoundError(id)
}

// Contains reports whether a concept with the id is attached to h.
func (h *Hierarchy) Contains(id EntityID) bool {
	_, ok := h.index[id]
	return ok
}

// ConceptCount returns the number of attached concepts, root included.
func (h *Hierarchy) ConceptCount() int { return len(h.index) }

// ConstraintCount returns the number of attached constraints, root
// constraints included.
func (h *Hierarchy) ConstraintCount() int { return h.constraintCount }

// AllConcepts returns every concept in depth-first pre-order from the root.
func (h *Hierarchy) AllConcepts() []*Concept {
	return append([]*Concept{h.root}, h.root.Descendants()...)
}

// ConstraintTypes returns the registered constraint types in registration
// order.
func (h *Hierarchy) ConstraintTypes() []*ConstraintType {
	return append([]*ConstraintType(nil), h.types...)
}

// ConstraintType looks up a constraint type by name.
func (h *Hierarchy) ConstraintType(name string) (*ConstraintType, error) {
	for _, t := range h.types {
		if t.name == name {
			return t, nil
		}
	}
	return nil, ConstraintTypeNotFoundError(name)
}

// Constraints returns every attached constraint of the type and semantics,
// ordered by source in depth-first pre-order.
func (h *Hierarchy) Constraints(t *ConstraintType, s Semantics) []*Constraint {
	var out []*Constraint
	for _, c := range h.AllConcepts() {
		out = append(out, c.ConstraintsOfType(t, s)...)
	}
	return out
}

// AddConstraintType registers a constraint type and seeds its root
// constraint, an unrestricted valid-values constraint from rootSource to
// rootTarget. Registration is part of model setup and is not undoable.
func (h *Hierarchy) AddConstraintType(name string, rootSource, rootTarget *Concept, semantics SemanticsSet, cardinality Cardinality) (*ConstraintType, error) {
	m := h.model
	m.mu.Lock()
	defer m.mu.Unlock()

	op := "add-constraint-type"
	if name == "" {
		return nil, NewError(op).ConstraintType(name).Context("empty name").Cause(ErrConstraintTypeNotFound).Err()
	}
	if _, err := h.ConstraintType(name); err == nil {
		return nil, NewError(op).ConstraintType(name).Cause(ErrDuplicateID).Err()
	}
	if rootSource == nil || !rootSource.attached || rootSource.h != h {
		return nil, NewError(op).ConstraintType(name).
			Context(fmt.Sprintf("root source not attached to %s", h)).
			Cause(ErrNotAttached).Err()
	}
	if rootTarget == nil || !rootTarget.attached || rootTarget.h.model != m {
		return nil, NewError(op).ConstraintType(name).Context("root target").Cause(ErrNotAttached).Err()
	}
	if semantics&EnableAll == 0 {
		return nil, NewError(op).ConstraintType(name).Cause(ErrSemanticsDisabled).Err()
	}

	t := &ConstraintType{
		name:        name,
		h:           h,
		rootSource:  rootSource.handle(),
		rootTarget:  rootTarget.handle(),
		semantics:   semantics,
		cardinality: cardinality,
	}
	t.root = &Constraint{
		ctype:     t,
		semantics: ValidValues,
		source:    t.rootSource,
		targets:   []*indirect.Tracker[*Concept]{t.rootTarget},
		root:      true,
	}
	h.types = append(h.types, t)
	constraintUnit{t.root}.OnAdd(false)

	m.logger.Debug("constraint type registered",
		logging.Hierarchy(h.Name()),
		logging.ConstraintType(name),
		logging.Concept(rootSource.String()),
	)
	return t, nil
}
