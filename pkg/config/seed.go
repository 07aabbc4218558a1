package config

import (
	"errors"
	"fmt"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/identity"
	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/dd0wney/goblin/pkg/validation"
)

// ErrSeedRejected is returned when the model refuses a seed constraint,
// either because it conflicts with an earlier one and the model's confirmer
// declined, or because an equivalent constraint already exists.
var ErrSeedRejected = errors.New("seed constraint rejected")

// ErrUnknownConcept is returned when a seed entry names a concept that no
// earlier entry created.
var ErrUnknownConcept = errors.New("unknown concept name")

// Apply builds every configured hierarchy on m, allocating ids through alloc.
// Roots and concepts are created first, then constraint types, then
// constraints, so types and constraints may refer to any hierarchy. The edit
// history is cleared afterwards.
//
// On error the model holds whatever was built before the failing entry.
func (c *Config) Apply(m *goblin.Model, alloc identity.Allocator) error {
	timer := logging.StartTimer(m.Logger(), "seed applied", logging.Component("config"))

	hierarchies := make([]*goblin.Hierarchy, len(c.Hierarchies))
	for i, hc := range c.Hierarchies {
		id, err := alloc.Dynamic(hc.Root, hc.Label)
		if err != nil {
			return fmt.Errorf("hierarchies[%d].root: %w", i, err)
		}
		if hierarchies[i], err = m.AddHierarchy(id); err != nil {
			return fmt.Errorf("hierarchies[%d].root: %w", i, err)
		}
	}

	for i, hc := range c.Hierarchies {
		for j, req := range hc.Concepts {
			if err := addConcept(m, alloc, req); err != nil {
				return fmt.Errorf("hierarchies[%d].concepts[%d]: %w", i, j, err)
			}
		}
	}

	for i, hc := range c.Hierarchies {
		for j, req := range hc.ConstraintTypes {
			if err := addConstraintType(m, alloc, hierarchies[i], req); err != nil {
				return fmt.Errorf("hierarchies[%d].constraint_types[%d]: %w", i, j, err)
			}
		}
	}

	constraints := 0
	for i, hc := range c.Hierarchies {
		for j, req := range hc.Constraints {
			if err := addConstraint(m, alloc, hierarchies[i], req); err != nil {
				return fmt.Errorf("hierarchies[%d].constraints[%d]: %w", i, j, err)
			}
			constraints++
		}
	}

	m.ClearHistory()
	timer.End(logging.Int("hierarchies", len(hierarchies)), logging.Int("constraints", constraints))
	return nil
}

func resolve(m *goblin.Model, alloc identity.Allocator, name string) (*goblin.Concept, error) {
	id, ok := alloc.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownConcept, name)
	}
	return m.Concept(id)
}

func addConcept(m *goblin.Model, alloc identity.Allocator, req validation.ConceptRequest) error {
	parent, err := resolve(m, alloc, req.Parent)
	if err != nil {
		return err
	}
	if req.Content {
		id, err := alloc.Content(validation.ContentIDSpec{Name: req.Name, Label: req.Label})
		if err != nil {
			return err
		}
		_, err = parent.AddContentChild(id)
		return err
	}
	id, err := alloc.Dynamic(req.Name, req.Label)
	if err != nil {
		return err
	}
	_, err = parent.AddChild(id)
	return err
}

func addConstraintType(m *goblin.Model, alloc identity.Allocator, h *goblin.Hierarchy, req validation.ConstraintTypeRequest) error {
	source, err := resolve(m, alloc, req.RootSource)
	if err != nil {
		return err
	}
	target, err := resolve(m, alloc, req.RootTarget)
	if err != nil {
		return err
	}
	_, err = h.AddConstraintType(req.Name, source, target, ParseSemantics(req.Semantics), ParseCardinality(req.Cardinality))
	return err
}

func addConstraint(m *goblin.Model, alloc identity.Allocator, h *goblin.Hierarchy, req validation.ConstraintRequest) error {
	t, err := h.ConstraintType(req.Type)
	if err != nil {
		return err
	}
	source, err := resolve(m, alloc, req.Source)
	if err != nil {
		return err
	}
	targets := make([]*goblin.Concept, 0, len(req.Targets()))
	for _, name := range req.Targets() {
		target, err := resolve(m, alloc, name)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	var ok bool
	if req.ImpliedValue != "" {
		ok, err = source.AddImpliedValueConstraint(t, targets[0])
	} else {
		ok, err = source.AddValidValuesConstraint(t, targets...)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s on %s: %w", req.Type, req.Source, ErrSeedRejected)
	}
	return nil
}

// ParseSemantics converts semantics names to a set. Unknown names are ignored.
func ParseSemantics(names []string) goblin.SemanticsSet {
	var set goblin.SemanticsSet
	for _, n := range names {
		switch n {
		case validation.SemanticsValidValues:
			set |= goblin.EnableValidValues
		case validation.SemanticsImpliedValue:
			set |= goblin.EnableImpliedValue
		}
	}
	return set
}

// ParseCardinality converts a cardinality name. Anything but "multi" is
// single-valued.
func ParseCardinality(name string) goblin.Cardinality {
	if name == validation.CardinalityMulti {
		return goblin.MultiValue
	}
	return goblin.SingleValue
}
