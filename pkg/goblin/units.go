package goblin

import (
	"github.com/dd0wney/goblin/pkg/edit"
	"github.com/dd0wney/goblin/pkg/metrics"
)

// conceptUnit is the edit target for inserting or deleting a concept. slot
// remembers the concept's position among its siblings so that re-insertion
// restores the original order; the two halves of a same-parent replacement
// share one slot.
type conceptUnit struct {
	c    *Concept
	slot *int
}

func newConceptUnit(c *Concept) *conceptUnit {
	slot := -1
	return &conceptUnit{c: c, slot: &slot}
}

func (u *conceptUnit) OnAdd(replacing bool) {
	c := u.c
	m := c.model()
	t := m.concepts.Bind(c)
	c.attached = true
	c.h.index[c.id] = c

	if p := c.Parent(); p != nil {
		children := p.links.children
		if i := *u.slot; i >= 0 && i <= len(children) {
			children = append(children, nil)
			copy(children[i+1:], children[i:])
			children[i] = t
		} else {
			children = append(children, t)
		}
		p.links.children = children
		for _, l := range p.listeners() {
			l.ChildAdded(c, replacing)
		}
	}

	m.metrics.RecordAtomicEdit(metrics.EntityConcept, true)
	m.emit(Event{Kind: ConceptAdded, Hierarchy: c.h, Concept: c, Replacing: replacing})
}

func (u *conceptUnit) OnRemove(replacing bool) {
	c := u.c
	m := c.model()
	c.attached = false
	if c.h.index[c.id] == c {
		delete(c.h.index, c.id)
	}

	if p := c.Parent(); p != nil {
		t := c.handle()
		*u.slot = -1
		for i, x := range p.links.children {
			if x == t {
				*u.slot = i
				break
			}
		}
		p.removeChildHandle(t)
	}
	for _, l := range c.listeners() {
		l.ConceptRemoved(c, replacing)
	}

	m.metrics.RecordAtomicEdit(metrics.EntityConcept, false)
	m.emit(Event{Kind: ConceptRemoved, Hierarchy: c.h, Concept: c, Replacing: replacing})
}

// constraintUnit is the edit target for inserting or deleting a constraint.
type constraintUnit struct {
	k *Constraint
}

func (u constraintUnit) OnAdd(replacing bool) {
	k := u.k
	m := k.ctype.h.model
	src := k.Source()
	src.links.constraints = append(src.links.constraints, k)
	for _, t := range k.Targets() {
		t.links.inward = append(t.links.inward, k)
	}
	k.attached = true
	k.ctype.h.constraintCount++

	for _, l := range src.listeners() {
		l.ConstraintAdded(k)
	}
	m.metrics.RecordAtomicEdit(metrics.EntityConstraint, true)
	m.emit(Event{Kind: ConstraintAdded, Hierarchy: k.ctype.h, Concept: src, Constraint: k, Replacing: replacing})
}

func (u constraintUnit) OnRemove(replacing bool) {
	k := u.k
	m := k.ctype.h.model
	src := k.Source()
	src.links.constraints = removeConstraint(src.links.constraints, k)
	for _, t := range k.Targets() {
		t.links.inward = removeConstraint(t.links.inward, k)
	}
	k.attached = false
	k.ctype.h.constraintCount--

	for _, l := range src.listeners() {
		l.ConstraintRemoved(k)
	}
	m.metrics.RecordAtomicEdit(metrics.EntityConstraint, false)
	m.emit(Event{Kind: ConstraintRemoved, Hierarchy: k.ctype.h, Concept: src, Constraint: k, Replacing: replacing})
}

// redirector moves concept and constraint trackers between the two halves of
// a replacement.
type redirector struct {
	m *Model
}

func (r redirector) Redirect(from, to edit.Target) {
	switch f := from.(type) {
	case *conceptUnit:
		r.m.concepts.Redirect(f.c, to.(*conceptUnit).c)
	case constraintUnit:
		r.m.constraints.Redirect(f.k, to.(constraintUnit).k)
	}
}

// replaceConcept builds the replacement action for a moved or renamed concept.
func (m *Model) replaceConcept(old, repl *Concept) *edit.Replace {
	oldUnit := newConceptUnit(old)
	newUnit := newConceptUnit(repl)
	if old.parent == repl.parent {
		newUnit.slot = oldUnit.slot
	}
	return edit.NewReplace(oldUnit, newUnit, redirector{m})
}

// replaceConstraint builds the replacement action for a trimmed constraint.
func (m *Model) replaceConstraint(old, repl *Constraint) *edit.Replace {
	return edit.NewReplace(constraintUnit{old}, constraintUnit{repl}, redirector{m})
}
