package goblin

import (
	"github.com/dd0wney/goblin/pkg/indirect"
)

// Concept is one node of a hierarchy.
//
// The identity part of a concept (id, kind, parent) is immutable: moves and
// renames substitute a new Concept value. The relation record (children,
// constraints, listeners) is shared by every version of the same logical
// concept and keys the concept's tracker, so a reused id never shares a
// tracker with the concept that held it before.
type Concept struct {
	id       EntityID
	kind     ConceptKind
	h        *Hierarchy
	parent   *indirect.Tracker[*Concept] // nil for the root
	links    *conceptLinks
	attached bool
}

type conceptLinks struct {
	children    []*indirect.Tracker[*Concept]
	constraints []*Constraint
	inward      []*Constraint
	listeners   []ConceptListener
}

func newConcept(id EntityID, kind ConceptKind, h *Hierarchy, parent *indirect.Tracker[*Concept]) *Concept {
	return &Concept{
		id:     id,
		kind:   kind,
		h:      h,
		parent: parent,
		links:  &conceptLinks{},
	}
}

// replacement returns a detached copy sharing the relation record.
func (c *Concept) replacement(id EntityID, parent *indirect.Tracker[*Concept]) *Concept {
	return &Concept{
		id:     id,
		kind:   c.kind,
		h:      c.h,
		parent: parent,
		links:  c.links,
	}
}

func (c *Concept) ID() EntityID          { return c.id }
func (c *Concept) Kind() ConceptKind     { return c.kind }
func (c *Concept) Hierarchy() *Hierarchy { return c.h }
func (c *Concept) IsRoot() bool          { return c.kind == RootConcept }
func (c *Concept) String() string        { return c.id.String() }
func (c *Concept) model() *Model         { return c.h.model }

func (c *Concept) handle() *indirect.Tracker[*Concept] {
	return c.h.model.concepts.HandleFor(c)
}

// Attached reports whether this value is the current version of a concept
// that is part of its hierarchy. Values superseded by a move or rename, and
// removed concepts, are detached.
func (c *Concept) Attached() bool { return c.attached }

// Parent returns the current version of the parent, or nil for the root.
func (c *Concept) Parent() *Concept {
	if c.parent == nil {
		return nil
	}
	return c.parent.Get()
}

// Children returns the current versions of the children in insertion order.
func (c *Concept) Children() []*Concept {
	out := make([]*Concept, len(c.links.children))
	for i, t := range c.links.children {
		out[i] = t.Get()
	}
	return out
}

// HasChildren reports whether the concept has any children.
func (c *Concept) HasChildren() bool {
	return len(c.links.children) > 0
}

// Constraints returns the constraints owned by the concept.
func (c *Concept) Constraints() []*Constraint {
	return append([]*Constraint(nil), c.links.constraints...)
}

// InwardConstraints returns the constraints that name the concept as a target.
func (c *Concept) InwardConstraints() []*Constraint {
	return append([]*Constraint(nil), c.links.inward...)
}

// ConstraintOfType returns the first owned constraint with the given type and
// semantics, or nil.
func (c *Concept) ConstraintOfType(t *ConstraintType, s Semantics) *Constraint {
	for _, k := range c.links.constraints {
		if k.ctype == t && k.semantics == s {
			return k
		}
	}
	return nil
}

// ConstraintsOfType returns every owned constraint with the given type and
// semantics.
func (c *Concept) ConstraintsOfType(t *ConstraintType, s Semantics) []*Constraint {
	var out []*Constraint
	for _, k := range c.links.constraints {
		if k.ctype == t && k.semantics == s {
			out = append(out, k)
		}
	}
	return out
}

// Subsumes reports whether other is c or one of c's descendants.
func (c *Concept) Subsumes(other *Concept) bool {
	return subsumesIn(liveTree{}, c, other)
}

// SubsumedBy reports whether c is other or one of other's descendants.
func (c *Concept) SubsumedBy(other *Concept) bool {
	return other.Subsumes(c)
}

// SubsumedByAny reports whether any of others subsumes c.
func (c *Concept) SubsumedByAny(others []*Concept) bool {
	for _, o := range others {
		if o.Subsumes(c) {
			return true
		}
	}
	return false
}

// DescendantOf reports whether c is a strict descendant of other.
func (c *Concept) DescendantOf(other *Concept) bool {
	return c.id != other.id && other.Subsumes(c)
}

// Ancestors returns the chain of ancestors, nearest first.
func (c *Concept) Ancestors() []*Concept {
	var out []*Concept
	for p := c.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// Descendants returns every strict descendant in depth-first pre-order.
func (c *Concept) Descendants() []*Concept {
	var out []*Concept
	var walk func(*Concept)
	walk = func(x *Concept) {
		for _, ch := range x.Children() {
			out = append(out, ch)
			walk(ch)
		}
	}
	walk(c)
	return out
}

// AddListener registers a listener on the logical concept.
func (c *Concept) AddListener(l ConceptListener) {
	c.links.listeners = append(c.links.listeners, l)
}

// RemoveListener unregisters a listener previously added.
func (c *Concept) RemoveListener(l ConceptListener) {
	for i, x := range c.links.listeners {
		if x == l {
			c.links.listeners = append(c.links.listeners[:i], c.links.listeners[i+1:]...)
			return
		}
	}
}

func (c *Concept) listeners() []ConceptListener {
	return append([]ConceptListener(nil), c.links.listeners...)
}

func (c *Concept) removeChildHandle(t *indirect.Tracker[*Concept]) {
	for i, x := range c.links.children {
		if x == t {
			c.links.children = append(c.links.children[:i], c.links.children[i+1:]...)
			return
		}
	}
}

func removeConstraint(list []*Constraint, k *Constraint) []*Constraint {
	for i, x := range list {
		if x == k {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// treeView answers parent/children queries, optionally over a prospective
// shape that differs from the live tree.
type treeView interface {
	parentOf(c *Concept) *Concept
	childrenOf(c *Concept) []*Concept
}

type liveTree struct{}

func (liveTree) parentOf(c *Concept) *Concept     { return c.Parent() }
func (liveTree) childrenOf(c *Concept) []*Concept { return c.Children() }

// movedTree overlays a single pending move on the live tree.
type movedTree struct {
	moved     EntityID
	oldParent EntityID
	newParent *Concept
	concept   *Concept
}

func (v movedTree) parentOf(c *Concept) *Concept {
	if c.id == v.moved {
		return v.newParent
	}
	return c.Parent()
}

func (v movedTree) childrenOf(c *Concept) []*Concept {
	children := c.Children()
	if c.id == v.oldParent {
		out := children[:0:0]
		for _, ch := range children {
			if ch.id != v.moved {
				out = append(out, ch)
			}
		}
		children = out
	}
	if c.id == v.newParent.id {
		children = append(children, v.concept)
	}
	return children
}

// subsumesIn reports whether b is a or a descendant of a in the given view.
func subsumesIn(v treeView, a, b *Concept) bool {
	if a == nil || b == nil || a.h != b.h {
		return false
	}
	for x := b; x != nil; x = v.parentOf(x) {
		if x.id == a.id {
			return true
		}
	}
	return false
}

// strictlyBelow reports whether b is a strict descendant of a in the view.
func strictlyBelow(v treeView, a, b *Concept) bool {
	return a.id != b.id && subsumesIn(v, a, b)
}
