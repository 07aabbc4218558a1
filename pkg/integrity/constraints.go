package integrity

import (
	"fmt"

	"github.com/dd0wney/goblin/pkg/goblin"
)

// ConstraintCheck verifies constraint wiring: ownership, inward links,
// domains, target overlap and per-type cardinality.
type ConstraintCheck struct{}

// Name returns the check name
func (cc *ConstraintCheck) Name() string { return "ConstraintCheck" }

// Validate checks every constraint owned by or pointing at each concept
func (cc *ConstraintCheck) Validate(model ModelReader) ([]Violation, error) {
	violations := make([]Violation, 0)

	for _, h := range model.Hierarchies() {
		owned := 0
		for _, c := range h.AllConcepts() {
			counts := make(map[cardinalityKey]int)
			for _, k := range c.Constraints() {
				owned++
				counts[cardinalityKey{k.Type(), k.Semantics()}]++
				violations = append(violations, cc.checkOwned(h, c, k)...)
			}
			violations = append(violations, cc.checkCardinality(h, c, counts)...)

			for _, k := range c.InwardConstraints() {
				if !k.Attached() || !contains(k.Source().Constraints(), k) || !containsConcept(k.Targets(), c) {
					violations = append(violations, newViolation(DetachedReference, h, c, k,
						"%s lists stale inward constraint %s", c, k))
				}
			}
		}
		if owned != h.ConstraintCount() {
			violations = append(violations, Violation{
				Type:      IndexMismatch,
				Severity:  Error,
				Hierarchy: h.Name(),
				Message:   fmt.Sprintf("hierarchy counts %d constraints, concepts own %d", h.ConstraintCount(), owned),
				Details: map[string]any{
					"counted": h.ConstraintCount(),
					"owned":   owned,
				},
			})
		}
	}

	return violations, nil
}

type cardinalityKey struct {
	t *goblin.ConstraintType
	s goblin.Semantics
}

func (cc *ConstraintCheck) checkOwned(h *goblin.Hierarchy, c *goblin.Concept, k *goblin.Constraint) []Violation {
	var violations []Violation
	add := func(vt ViolationType, format string, args ...any) {
		violations = append(violations, newViolation(vt, h, c, k, format, args...))
	}

	if !k.Attached() {
		add(DetachedReference, "%s owns detached constraint %s", c, k)
	}
	if k.Source() != c {
		add(DetachedReference, "constraint %s owned by %s names source %s", k, c, k.Source())
	}
	if k.Type().Hierarchy() != h {
		add(DomainViolation, "constraint %s has a type from hierarchy %s", k, k.Type().Hierarchy())
	}

	targets := k.Targets()
	if len(targets) == 0 {
		add(DomainViolation, "constraint %s has no targets", k)
	}
	for _, t := range targets {
		if !t.Attached() {
			add(DetachedReference, "constraint %s targets detached concept %s", k, t)
		}
		if !contains(t.InwardConstraints(), k) {
			add(DetachedReference, "target %s does not list inward constraint %s", t, k)
		}
	}

	rootSource, rootTarget := k.Type().RootSource(), k.Type().RootTarget()
	if k.Root() {
		if k.Semantics() != goblin.ValidValues || c != rootSource || len(targets) != 1 || targets[0] != rootTarget {
			add(DomainViolation, "root constraint %s does not span %s -> %s", k, rootSource, rootTarget)
		}
		return violations
	}

	if !k.Type().Enables(k.Semantics()) {
		add(DomainViolation, "constraint %s uses semantics disabled by its type", k)
	}
	if !c.DescendantOf(rootSource) {
		add(DomainViolation, "source %s is not below %s", c, rootSource)
	}
	for i, a := range targets {
		if !rootTarget.Subsumes(a) {
			add(DomainViolation, "target %s is outside %s", a, rootTarget)
		}
		for _, b := range targets[i+1:] {
			if a.Subsumes(b) || b.Subsumes(a) {
				violations = append(violations, Violation{
					Type:       OverlappingTargets,
					Severity:   Error,
					Hierarchy:  h.Name(),
					Concept:    c.String(),
					Constraint: k.String(),
					Message:    fmt.Sprintf("targets %s and %s of %s overlap", a, b, k),
				})
			}
		}
	}
	return violations
}

func (cc *ConstraintCheck) checkCardinality(h *goblin.Hierarchy, c *goblin.Concept, counts map[cardinalityKey]int) []Violation {
	var violations []Violation
	for key, n := range counts {
		if n <= 1 || (key.s == goblin.ImpliedValue && key.t.MultiValued()) {
			continue
		}
		violations = append(violations, Violation{
			Type:      CardinalityViolation,
			Severity:  Error,
			Hierarchy: h.Name(),
			Concept:   c.String(),
			Message:   fmt.Sprintf("%s holds %d %s constraints of type %s", c, n, key.s, key.t),
			Details: map[string]any{
				"type":      key.t.Name(),
				"semantics": key.s.String(),
				"count":     n,
			},
		})
	}
	return violations
}

func newViolation(vt ViolationType, h *goblin.Hierarchy, c *goblin.Concept, k *goblin.Constraint, format string, args ...any) Violation {
	return Violation{
		Type:       vt,
		Severity:   Error,
		Hierarchy:  h.Name(),
		Concept:    c.String(),
		Constraint: k.String(),
		Message:    fmt.Sprintf(format, args...),
	}
}

func contains(list []*goblin.Constraint, k *goblin.Constraint) bool {
	for _, x := range list {
		if x == k {
			return true
		}
	}
	return false
}

func containsConcept(list []*goblin.Concept, c *goblin.Concept) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
