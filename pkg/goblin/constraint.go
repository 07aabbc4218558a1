package goblin

import (
	"fmt"
	"strings"

	"github.com/dd0wney/goblin/pkg/edit"
	"github.com/dd0wney/goblin/pkg/indirect"
)

// Constraint relates a source concept to a set of target concepts under a
// constraint type. Targets are mutually non-overlapping: no target subsumes
// another.
//
// Constraints are immutable. Removing a target builds a new constraint with
// the remaining targets and redirects the old one's tracker to it.
type Constraint struct {
	ctype     *ConstraintType
	semantics Semantics
	source    *indirect.Tracker[*Concept]
	targets   []*indirect.Tracker[*Concept]
	root      bool
	attached  bool
}

func (k *Constraint) Type() *ConstraintType { return k.ctype }
func (k *Constraint) Semantics() Semantics  { return k.semantics }
func (k *Constraint) Root() bool            { return k.root }
func (k *Constraint) Attached() bool        { return k.attached }

// Source returns the current version of the source concept.
func (k *Constraint) Source() *Concept { return k.source.Get() }

// Targets returns the current versions of the target concepts.
func (k *Constraint) Targets() []*Concept {
	out := make([]*Concept, len(k.targets))
	for i, t := range k.targets {
		out[i] = t.Get()
	}
	return out
}

// Hierarchy returns the hierarchy of the source.
func (k *Constraint) Hierarchy() *Hierarchy { return k.ctype.h }

// Equivalent reports whether other has the same type, semantics, source and
// target set.
func (k *Constraint) Equivalent(other *Constraint) bool {
	if other == nil || k.ctype != other.ctype || k.semantics != other.semantics {
		return false
	}
	if k.Source().id != other.Source().id {
		return false
	}
	return sameTargets(k.Targets(), other.Targets())
}

func (k *Constraint) String() string {
	names := make([]string, len(k.targets))
	for i, t := range k.Targets() {
		names[i] = t.String()
	}
	return fmt.Sprintf("%s[%s](%s -> {%s})", k.ctype.name, k.semantics, k.Source(), strings.Join(names, ", "))
}

// targetsSubsume reports whether every target of inner lies below some
// target of k in the view.
func (k *Constraint) targetsSubsume(v treeView, inner []*Concept) bool {
	return setSubsumes(v, k.Targets(), inner)
}

func (k *Constraint) hasTarget(id EntityID) bool {
	for _, t := range k.Targets() {
		if t.id == id {
			return true
		}
	}
	return false
}

// without returns a constraint identical to k minus the targets in drop.
func (k *Constraint) without(drop map[EntityID]bool) *Constraint {
	trimmed := &Constraint{
		ctype:     k.ctype,
		semantics: k.semantics,
		source:    k.source,
	}
	for _, t := range k.targets {
		if !drop[t.Get().id] {
			trimmed.targets = append(trimmed.targets, t)
		}
	}
	return trimmed
}

// Remove deletes the constraint as an undoable action.
func (k *Constraint) Remove() error {
	m := k.ctype.h.model
	m.mu.Lock()
	defer m.mu.Unlock()

	if k.root {
		return NewError("remove").Constraint(k).Cause(ErrInvalidRootOperation).Err()
	}
	if !k.attached {
		return NewError("remove").Constraint(k).Cause(ErrNotAttached).Err()
	}
	m.perform(edit.NewRemove(constraintUnit{k}))
	return nil
}

// buildConstraint validates and constructs a detached constraint.
func (m *Model) buildConstraint(t *ConstraintType, s Semantics, source *Concept, targets []*Concept) (*Constraint, error) {
	op := "add-constraint"
	if t == nil {
		return nil, NewError(op).Concept(source.id).Cause(ErrConstraintTypeNotFound).Err()
	}
	if !source.attached {
		return nil, NewError(op).Concept(source.id).Cause(ErrNotAttached).Err()
	}
	if t.h != source.h {
		return nil, NewError(op).ConstraintType(t.name).
			Context(fmt.Sprintf("not defined in hierarchy %s", source.h)).
			Cause(ErrConstraintTypeNotFound).Err()
	}
	if !t.Enables(s) {
		return nil, NewError(op).ConstraintType(t.name).Context(s.String()).Cause(ErrSemanticsDisabled).Err()
	}
	if len(targets) == 0 {
		return nil, NewError(op).Concept(source.id).Cause(ErrNoTargets).Err()
	}

	rootSource := t.RootSource()
	if s == ValidValues && source.id == rootSource.id {
		return nil, NewError(op).Concept(source.id).
			Context("valid values at root source of " + t.name).
			Cause(ErrInvalidRootOperation).Err()
	}
	if !strictlyBelow(liveTree{}, rootSource, source) {
		return nil, NewError(op).Concept(source.id).
			Context("source outside " + rootSource.String()).
			Cause(ErrDomainViolation).Err()
	}

	rootTarget := t.RootTarget()
	k := &Constraint{
		ctype:     t,
		semantics: s,
		source:    source.handle(),
		targets:   make([]*indirect.Tracker[*Concept], 0, len(targets)),
	}
	for _, target := range targets {
		if target == nil || !target.attached {
			return nil, NewError(op).Concept(source.id).Context("target").Cause(ErrNotAttached).Err()
		}
		if !rootTarget.Subsumes(target) {
			return nil, NewError(op).Concept(target.id).
				Context("target outside " + rootTarget.String()).
				Cause(ErrDomainViolation).Err()
		}
		k.targets = append(k.targets, target.handle())
	}
	if a, b, ok := overlapping(liveTree{}, targets); ok {
		return nil, NewError(op).Concept(source.id).
			Context(fmt.Sprintf("%s overlaps %s", a, b)).
			Cause(ErrConflictingTargets).Err()
	}
	return k, nil
}

// overlapping finds a pair of targets where one subsumes the other.
func overlapping(v treeView, targets []*Concept) (*Concept, *Concept, bool) {
	for i := range targets {
		for j := i + 1; j < len(targets); j++ {
			a, b := targets[i], targets[j]
			if subsumesIn(v, a, b) || subsumesIn(v, b, a) {
				return a, b, true
			}
		}
	}
	return nil, nil, false
}

// setSubsumes reports whether every concept of inner lies below some concept
// of outer in the view.
func setSubsumes(v treeView, outer, inner []*Concept) bool {
	if sameTargets(outer, inner) {
		return true
	}
	for _, i := range inner {
		found := false
		for _, o := range outer {
			if subsumesIn(v, o, i) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sameTargets(a, b []*Concept) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[EntityID]int, len(a))
	for _, c := range a {
		ids[c.id]++
	}
	for _, c := range b {
		if ids[c.id] == 0 {
			return false
		}
		ids[c.id]--
	}
	return true
}
