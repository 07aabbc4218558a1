package goblin

import (
	"time"

	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/dd0wney/goblin/pkg/metrics"
)

// Resolution is the outcome of a conflict check.
type Resolution struct {
	// Resolvable is false when the edit must not proceed.
	Resolvable bool
	// Removals lists the constraints to remove before the edit.
	Removals []*Constraint
}

// conflictSet collects constraints in discovery order without duplicates.
// Root constraints are never reported.
type conflictSet struct {
	seen map[*Constraint]bool
	list []*Constraint
}

func newConflictSet() *conflictSet {
	return &conflictSet{seen: make(map[*Constraint]bool)}
}

func (s *conflictSet) add(k *Constraint) {
	if k.root || s.seen[k] {
		return
	}
	s.seen[k] = true
	s.list = append(s.list, k)
}

// walkUp visits from and its ancestors. At the first concept holding a
// matching constraint that subsumes targets the walk stops; matching
// constraints that do not are conflicts.
func walkUp(v treeView, from *Concept, t *ConstraintType, sem Semantics, targets []*Concept, out *conflictSet) {
	for x := from; x != nil; x = v.parentOf(x) {
		ms := x.ConstraintsOfType(t, sem)
		if len(ms) == 0 {
			continue
		}
		compatible := false
		for _, m := range ms {
			if setSubsumes(v, m.Targets(), targets) {
				compatible = true
				break
			}
		}
		if compatible {
			return
		}
		for _, m := range ms {
			out.add(m)
		}
	}
}

// walkDown visits each branch below from. A branch stops at the first
// concept whose matching constraints all lie within targets; matching
// constraints outside targets are conflicts and the branch continues.
func walkDown(v treeView, from *Concept, t *ConstraintType, sem Semantics, targets []*Concept, out *conflictSet) {
	for _, ch := range v.childrenOf(from) {
		ms := ch.ConstraintsOfType(t, sem)
		if len(ms) > 0 {
			compatible := true
			for _, m := range ms {
				if !setSubsumes(v, targets, m.Targets()) {
					out.add(m)
					compatible = false
				}
			}
			if compatible {
				continue
			}
		}
		walkDown(v, ch, t, sem, targets, out)
	}
}

// walkDownImplied checks the implied values of from's descendants against a
// new restriction. A branch stops below a compatible restriction, which
// already bounds everything beneath it.
func walkDownImplied(v treeView, from *Concept, t *ConstraintType, targets []*Concept, out *conflictSet) {
	for _, ch := range v.childrenOf(from) {
		checkImplied(v, ch, t, targets, out)
		if vv := ch.ConstraintOfType(t, ValidValues); vv != nil && setSubsumes(v, targets, vv.Targets()) {
			continue
		}
		walkDownImplied(v, ch, t, targets, out)
	}
}

func checkImplied(v treeView, c *Concept, t *ConstraintType, targets []*Concept, out *conflictSet) {
	for _, iv := range c.ConstraintsOfType(t, ImpliedValue) {
		if !setSubsumes(v, targets, iv.Targets()) {
			out.add(iv)
		}
	}
}

// onSameBranch reports whether some target lies on the same branch as c, so a
// value can satisfy both c and the targets.
func onSameBranch(v treeView, targets []*Concept, c *Concept) bool {
	for _, x := range targets {
		if subsumesIn(v, x, c) || subsumesIn(v, c, x) {
			return true
		}
	}
	return false
}

// impliedAbove reports the implied values held by from and its ancestors
// that no new target shares a branch with.
func impliedAbove(v treeView, from *Concept, t *ConstraintType, targets []*Concept, out *conflictSet) {
	for x := from; x != nil; x = v.parentOf(x) {
		for _, iv := range x.ConstraintsOfType(t, ImpliedValue) {
			for _, it := range iv.Targets() {
				if !onSameBranch(v, targets, it) {
					out.add(iv)
					break
				}
			}
		}
	}
}

// restrictionsBelow reports the restrictions below from that share no branch
// with the implied target.
func restrictionsBelow(v treeView, from *Concept, t *ConstraintType, target *Concept, out *conflictSet) {
	for _, ch := range v.childrenOf(from) {
		for _, vv := range ch.ConstraintsOfType(t, ValidValues) {
			if !onSameBranch(v, vv.Targets(), target) {
				out.add(vv)
			}
		}
		restrictionsBelow(v, ch, t, target, out)
	}
}

// conflictsOf returns the constraints that disagree with k, placed at its
// source, in the given tree view. k need not be attached.
func conflictsOf(v treeView, k *Constraint) []*Constraint {
	out := newConflictSet()
	t := k.ctype
	src := k.Source()
	targets := k.Targets()

	switch k.semantics {
	case ValidValues:
		walkUp(v, v.parentOf(src), t, ValidValues, targets, out)
		walkDown(v, src, t, ValidValues, targets, out)
		checkImplied(v, src, t, targets, out)
		walkDownImplied(v, src, t, targets, out)
		impliedAbove(v, v.parentOf(src), t, targets, out)
	case ImpliedValue:
		walkUp(v, src, t, ValidValues, targets, out)
		for _, target := range targets {
			restrictionsBelow(v, src, t, target, out)
		}
		if !t.MultiValued() {
			walkUp(v, v.parentOf(src), t, ImpliedValue, targets, out)
			walkDown(v, src, t, ImpliedValue, targets, out)
		}
	}

	conflicts := out.list[:0:0]
	for _, c := range out.list {
		if c != k {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// moveViolations returns the constraints owned by or aimed at the moved
// subtree that would be invalid once the move is made.
func moveViolations(c, newParent *Concept) []*Constraint {
	v := movedTree{
		moved:     c.id,
		oldParent: c.Parent().id,
		newParent: newParent,
		concept:   c,
	}

	subtree := append([]*Concept{c}, c.Descendants()...)
	seen := make(map[*Constraint]bool)
	out := newConflictSet()
	for _, x := range subtree {
		for _, k := range append(x.Constraints(), x.InwardConstraints()...) {
			if k.root || seen[k] {
				continue
			}
			seen[k] = true
			if violatesIn(v, k) {
				out.add(k)
			}
		}
	}
	return out.list
}

func violatesIn(v treeView, k *Constraint) bool {
	t := k.ctype
	if !strictlyBelow(v, t.RootSource(), k.Source()) {
		return true
	}
	rootTarget := t.RootTarget()
	targets := k.Targets()
	for _, target := range targets {
		if !subsumesIn(v, rootTarget, target) {
			return true
		}
	}
	if _, _, ok := overlapping(v, targets); ok {
		return true
	}
	return len(conflictsOf(v, k)) > 0
}

// FindConflicts returns the attached constraints that disagree with k as if
// k were added at its source. It performs no confirmation.
func (m *Model) FindConflicts(k *Constraint) []*Constraint {
	return conflictsOf(liveTree{}, k)
}

func (m *Model) resolveAddition(k *Constraint) Resolution {
	start := time.Now()
	conflicts := conflictsOf(liveTree{}, k)
	if len(conflicts) == 0 {
		m.metrics.RecordConflictCheck(metrics.CheckAddition, metrics.OutcomeClear, 0, time.Since(start))
		return Resolution{Resolvable: true}
	}
	ok := m.confirmer.ConfirmConstraintAddition(conflicts)
	m.recordResolution(metrics.CheckAddition, k.String(), conflicts, ok, start)
	if !ok {
		return Resolution{}
	}
	return Resolution{Resolvable: true, Removals: conflicts}
}

func (m *Model) resolveMove(c, newParent *Concept) Resolution {
	start := time.Now()
	conflicts := moveViolations(c, newParent)
	if len(conflicts) == 0 {
		m.metrics.RecordConflictCheck(metrics.CheckMove, metrics.OutcomeClear, 0, time.Since(start))
		return Resolution{Resolvable: true}
	}
	ok := m.confirmer.ConfirmConceptMove(conflicts)
	m.recordResolution(metrics.CheckMove, c.String()+" -> "+newParent.String(), conflicts, ok, start)
	if !ok {
		return Resolution{}
	}
	return Resolution{Resolvable: true, Removals: conflicts}
}

func (m *Model) recordResolution(check, subject string, conflicts []*Constraint, confirmed bool, start time.Time) {
	outcome := metrics.OutcomeConfirmed
	if !confirmed {
		outcome = metrics.OutcomeDeclined
	}
	m.metrics.RecordConflictCheck(check, outcome, len(conflicts), time.Since(start))

	fields := []logging.Field{
		logging.Operation(check),
		logging.Constraint(subject),
		logging.Count(len(conflicts)),
	}
	if confirmed {
		m.logger.Info("conflicting constraints will be removed", fields...)
	} else {
		m.logger.Warn("edit declined due to conflicts", fields...)
	}
	m.emitHistory(HistoryEvent{
		Op:        string(outcome),
		Check:     check,
		Subject:   subject,
		Conflicts: len(conflicts),
		UndoDepth: m.engine.UndoDepth(),
		RedoDepth: m.engine.RedoDepth(),
	})
}
