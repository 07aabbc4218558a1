package goblin

import (
	"github.com/dd0wney/goblin/pkg/edit"
)

// AddChild creates a dynamic child concept as an undoable edit.
func (c *Concept) AddChild(id EntityID) (*Concept, error) {
	return c.addChild(id, DynamicConcept)
}

// AddContentChild creates a child whose identity is fixed by external
// content.
func (c *Concept) AddContentChild(id EntityID) (*Concept, error) {
	return c.addChild(id, ContentConcept)
}

func (c *Concept) addChild(id EntityID, kind ConceptKind) (*Concept, error) {
	m := c.model()
	m.mu.Lock()
	defer m.mu.Unlock()

	if !c.attached {
		return nil, NewError("add-child").Concept(c.id).Cause(ErrNotAttached).Err()
	}
	if id.IsZero() {
		return nil, NewError("add-child").Concept(id).Context("empty id").Cause(ErrDuplicateID).Err()
	}
	if m.lookup(id) != nil {
		return nil, NewError("add-child").Concept(id).Cause(ErrDuplicateID).Err()
	}

	child := newConcept(id, kind, c.h, c.handle())
	m.perform(edit.NewAdd(newConceptUnit(child)))
	return child, nil
}

// Move re-parents the concept. It returns false without changing anything if
// newParent is already the parent or if conflicting constraints were not
// confirmed for removal.
func (c *Concept) Move(newParent *Concept) (bool, error) {
	m := c.model()
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.IsRoot() {
		return false, RootOperationError("move", c.id)
	}
	if !c.attached || newParent == nil || !newParent.attached {
		return false, NewError("move").Concept(c.id).Cause(ErrNotAttached).Err()
	}
	if newParent.h != c.h {
		return false, NewError("move").Concept(c.id).
			Context("target parent in hierarchy " + newParent.h.Name()).
			Cause(ErrInvalidMove).Err()
	}
	if c.Parent().id == newParent.id {
		return false, nil
	}
	if c.Subsumes(newParent) {
		return false, NewError("move").Concept(c.id).
			Context("under own subtree at " + newParent.String()).
			Cause(ErrInvalidMove).Err()
	}

	res := m.resolveMove(c, newParent)
	if !res.Resolvable {
		return false, nil
	}

	action := m.removeConstraints(res.Removals)
	action.Append(m.replaceConcept(c, c.replacement(c.id, newParent.handle())))
	m.perform(action)
	return true, nil
}

// ResetID renames a dynamic concept. It returns false if the id is unchanged.
func (c *Concept) ResetID(id EntityID) (bool, error) {
	m := c.model()
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case c.IsRoot():
		return false, RootOperationError("reset-id", c.id)
	case c.kind == ContentConcept:
		return false, NewError("reset-id").Concept(c.id).Cause(ErrFixedIdentity).Err()
	case !c.attached:
		return false, NewError("reset-id").Concept(c.id).Cause(ErrNotAttached).Err()
	case id == c.id:
		return false, nil
	case id.IsZero():
		return false, NewError("reset-id").Concept(c.id).Context("empty id").Cause(ErrDuplicateID).Err()
	case m.lookup(id) != nil:
		return false, NewError("reset-id").Concept(id).Cause(ErrDuplicateID).Err()
	}

	m.perform(m.replaceConcept(c, c.replacement(id, c.parent)))
	return true, nil
}

// Remove deletes a leaf concept together with the constraints it owns.
// Constraints aimed at it lose it as a target, and are removed if it was
// their only target.
func (c *Concept) Remove() error {
	m := c.model()
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := c.checkRemovable("remove"); err != nil {
		return err
	}
	if c.HasChildren() {
		return NewError("remove").Concept(c.id).Cause(ErrHasChildren).Err()
	}
	action, err := m.removalAction([]*Concept{c})
	if err != nil {
		return err
	}
	m.perform(action)
	return nil
}

// RemoveSubtree deletes the concept and all of its descendants as one edit.
func (c *Concept) RemoveSubtree() error {
	m := c.model()
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := c.checkRemovable("remove-subtree"); err != nil {
		return err
	}

	// Children before parents, so every concept is removed as a leaf.
	var order []*Concept
	var walk func(*Concept)
	walk = func(x *Concept) {
		for _, ch := range x.Children() {
			walk(ch)
		}
		order = append(order, x)
	}
	walk(c)

	action, err := m.removalAction(order)
	if err != nil {
		return err
	}
	m.perform(action)
	return nil
}

func (c *Concept) checkRemovable(op string) error {
	if c.IsRoot() {
		return RootOperationError(op, c.id)
	}
	if !c.attached {
		return NewError(op).Concept(c.id).Cause(ErrNotAttached).Err()
	}
	return nil
}

// removalAction builds the compound that removes concepts, given children
// first. Each affected constraint is handled once: removed when its source or
// all of its targets go, trimmed otherwise.
func (m *Model) removalAction(concepts []*Concept) (*edit.Compound, error) {
	removed := make(map[EntityID]bool, len(concepts))
	for _, c := range concepts {
		removed[c.id] = true
	}

	action := edit.NewCompound()
	seen := make(map[*Constraint]bool)
	for _, c := range concepts {
		for _, k := range append(c.Constraints(), c.InwardConstraints()...) {
			if seen[k] {
				continue
			}
			seen[k] = true
			if k.root {
				return nil, NewError("remove").Concept(c.id).
					Context("anchors constraint type " + k.ctype.name).
					Cause(ErrInvalidRootOperation).Err()
			}

			trimmed := k.without(removed)
			if removed[k.Source().id] || len(trimmed.targets) == 0 {
				action.Append(edit.NewRemove(constraintUnit{k}))
			} else {
				action.Append(m.replaceConstraint(k, trimmed))
			}
		}
	}
	for _, c := range concepts {
		action.Append(edit.NewRemove(newConceptUnit(c)))
	}
	return action, nil
}

func (m *Model) removeConstraints(ks []*Constraint) *edit.Compound {
	action := edit.NewCompound()
	for _, k := range ks {
		action.Append(edit.NewRemove(constraintUnit{k}))
	}
	return action
}

// AddValidValuesConstraint restricts the values of type t at c to targets,
// replacing any restriction of t that c already holds. It returns false if an
// equivalent restriction exists or conflicting constraints were not confirmed
// for removal.
func (c *Concept) AddValidValuesConstraint(t *ConstraintType, targets ...*Concept) (bool, error) {
	return c.addConstraint(t, ValidValues, targets)
}

// AddImpliedValueConstraint asserts that c takes the value target for type t.
// For single-valued types the new value replaces any existing one.
func (c *Concept) AddImpliedValueConstraint(t *ConstraintType, target *Concept) (bool, error) {
	return c.addConstraint(t, ImpliedValue, []*Concept{target})
}

func (c *Concept) addConstraint(t *ConstraintType, s Semantics, targets []*Concept) (bool, error) {
	m := c.model()
	m.mu.Lock()
	defer m.mu.Unlock()

	k, err := m.buildConstraint(t, s, c, targets)
	if err != nil {
		return false, err
	}
	for _, existing := range c.ConstraintsOfType(t, s) {
		if existing.Equivalent(k) {
			return false, nil
		}
	}

	res := m.resolveAddition(k)
	if !res.Resolvable {
		return false, nil
	}

	action := m.removeConstraints(res.Removals)
	if s == ValidValues || !t.MultiValued() {
		removing := make(map[*Constraint]bool, len(res.Removals))
		for _, r := range res.Removals {
			removing[r] = true
		}
		for _, old := range c.ConstraintsOfType(t, s) {
			if !removing[old] {
				action.Append(edit.NewRemove(constraintUnit{old}))
			}
		}
	}
	action.Append(edit.NewAdd(constraintUnit{k}))
	m.perform(edit.Simplify(action))
	return true, nil
}

// RemoveConstraintsOfType removes every constraint of type t and semantics s
// owned by c as one edit. It returns false if there were none.
func (c *Concept) RemoveConstraintsOfType(t *ConstraintType, s Semantics) (bool, error) {
	m := c.model()
	m.mu.Lock()
	defer m.mu.Unlock()

	if !c.attached {
		return false, NewError("remove-constraints").Concept(c.id).Cause(ErrNotAttached).Err()
	}
	var ks []*Constraint
	for _, k := range c.ConstraintsOfType(t, s) {
		if !k.root {
			ks = append(ks, k)
		}
	}
	if len(ks) == 0 {
		return false, nil
	}
	m.perform(edit.Simplify(m.removeConstraints(ks)))
	return true, nil
}
