// Package edit models reversible mutations and the undo/redo engine that
// replays them.
//
// Every mutation is an Action. Applying an action forward and then backward
// must leave the model in the state it started from. Three shapes exist:
//
//   - Atomic: add or remove a single Target
//   - Replace: remove an old Target and add its replacement, redirecting
//     indirection handles between the two steps
//   - Compound: an ordered sequence of actions
package edit

// Target is an entity that an atomic edit inserts into or deletes from the
// model. replacing is true when the call is one half of a Replace.
type Target interface {
	OnAdd(replacing bool)
	OnRemove(replacing bool)
}

// Redirector rebinds external handles from one version of an entity to
// another. It is invoked between the two halves of a Replace.
type Redirector interface {
	Redirect(from, to Target)
}

// RedirectFunc adapts a function to the Redirector interface.
type RedirectFunc func(from, to Target)

// Redirect calls f(from, to).
func (f RedirectFunc) Redirect(from, to Target) { f(from, to) }

// Action is a reversible edit. The set of implementations is closed.
type Action interface {
	// Apply plays the action forward or backward.
	Apply(forward bool)

	// Primary returns the headline atomic edit of the action when played in
	// the given direction: the last atomic unit in playback order.
	Primary(forward bool) *Atomic

	action()
}

// Atomic adds or removes one target.
type Atomic struct {
	add       bool
	target    Target
	replacing bool
}

// NewAdd creates an atomic action that inserts target when played forward.
func NewAdd(target Target) *Atomic {
	return &Atomic{add: true, target: target}
}

// NewRemove creates an atomic action that deletes target when played forward.
func NewRemove(target Target) *Atomic {
	return &Atomic{add: false, target: target}
}

// IsAdd reports whether the action inserts its target when played forward.
func (a *Atomic) IsAdd() bool { return a.add }

// Target returns the entity the action operates on.
func (a *Atomic) Target() Target { return a.target }

// Apply inserts the target when forward matches the add flag and deletes it
// otherwise.
func (a *Atomic) Apply(forward bool) {
	if forward == a.add {
		a.target.OnAdd(a.replacing)
	} else {
		a.target.OnRemove(a.replacing)
	}
}

// Primary returns the atomic action itself.
func (a *Atomic) Primary(forward bool) *Atomic { return a }

func (a *Atomic) action() {}

// Replace substitutes a new version of an entity for an old one.
type Replace struct {
	remove   *Atomic
	add      *Atomic
	redirect Redirector
}

// NewReplace creates an action replacing oldTarget by newTarget. Handles held
// on oldTarget are redirected to newTarget in between the removal and the
// insertion, and back again on reverse playback.
func NewReplace(oldTarget, newTarget Target, redirect Redirector) *Replace {
	return &Replace{
		remove:   &Atomic{add: false, target: oldTarget, replacing: true},
		add:      &Atomic{add: true, target: newTarget, replacing: true},
		redirect: redirect,
	}
}

// Old returns the entity being replaced.
func (r *Replace) Old() Target { return r.remove.target }

// New returns the replacement entity.
func (r *Replace) New() Target { return r.add.target }

// Apply plays the replacement. Forward: remove old, redirect old to new, add
// new. Backward: remove new, redirect new to old, re-add old.
func (r *Replace) Apply(forward bool) {
	if forward {
		r.remove.Apply(true)
		r.redirect.Redirect(r.remove.target, r.add.target)
		r.add.Apply(true)
		return
	}
	r.add.Apply(false)
	r.redirect.Redirect(r.add.target, r.remove.target)
	r.remove.Apply(false)
}

// Primary returns the unit played last: the insertion of the new entity going
// forward, the re-insertion of the old entity going backward.
func (r *Replace) Primary(forward bool) *Atomic {
	if forward {
		return r.add
	}
	return r.remove
}

func (r *Replace) action() {}

// Compound is an ordered sequence of actions. Backward playback visits the
// sequence in reverse.
type Compound struct {
	actions []Action
}

// NewCompound creates a compound action. Nil entries are dropped.
func NewCompound(actions ...Action) *Compound {
	c := &Compound{actions: make([]Action, 0, len(actions))}
	for _, a := range actions {
		c.Append(a)
	}
	return c
}

// Append adds an action to the end of the sequence.
func (c *Compound) Append(a Action) {
	if a == nil {
		return
	}
	c.actions = append(c.actions, a)
}

// Actions returns the sub-actions in forward order.
func (c *Compound) Actions() []Action {
	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Len returns the number of sub-actions.
func (c *Compound) Len() int { return len(c.actions) }

// Apply plays every sub-action, front-to-back going forward and back-to-front
// going backward.
func (c *Compound) Apply(forward bool) {
	if forward {
		for _, a := range c.actions {
			a.Apply(true)
		}
		return
	}
	for i := len(c.actions) - 1; i >= 0; i-- {
		c.actions[i].Apply(false)
	}
}

// Primary recurses into the sub-action played last.
func (c *Compound) Primary(forward bool) *Atomic {
	if len(c.actions) == 0 {
		return nil
	}
	if forward {
		return c.actions[len(c.actions)-1].Primary(true)
	}
	return c.actions[0].Primary(false)
}

func (c *Compound) action() {}

// Simplify returns the single sub-action of a one-element compound, or the
// compound itself.
func Simplify(c *Compound) Action {
	if len(c.actions) == 1 {
		return c.actions[0]
	}
	return c
}
