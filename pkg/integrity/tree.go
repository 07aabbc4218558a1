package integrity

import (
	"fmt"

	"github.com/dd0wney/goblin/pkg/goblin"
)

// TreeCheck verifies that every hierarchy is a rooted tree of attached
// concepts whose id index matches the tree.
type TreeCheck struct{}

// Name returns the check name
func (tc *TreeCheck) Name() string { return "TreeCheck" }

// Validate walks every hierarchy from its root
func (tc *TreeCheck) Validate(model ModelReader) ([]Violation, error) {
	violations := make([]Violation, 0)

	for _, h := range model.Hierarchies() {
		root := h.Root()
		if root == nil {
			return nil, fmt.Errorf("hierarchy without root")
		}
		if !root.IsRoot() || root.Parent() != nil || !root.Attached() {
			violations = append(violations, Violation{
				Type:      BrokenTree,
				Severity:  Error,
				Hierarchy: h.Name(),
				Concept:   root.String(),
				Message:   fmt.Sprintf("root %s is not an attached parentless root concept", root),
			})
		}

		visited := map[goblin.EntityID]*goblin.Concept{root.ID(): root}
		var walk func(parent *goblin.Concept)
		walk = func(parent *goblin.Concept) {
			for _, child := range parent.Children() {
				if _, seen := visited[child.ID()]; seen {
					violations = append(violations, Violation{
						Type:      BrokenTree,
						Severity:  Error,
						Hierarchy: h.Name(),
						Concept:   child.String(),
						Message:   fmt.Sprintf("concept %s is reachable twice", child),
					})
					continue
				}
				visited[child.ID()] = child
				violations = append(violations, tc.checkChild(h, parent, child)...)
				walk(child)
			}
		}
		walk(root)

		for id, c := range visited {
			indexed, err := h.Concept(id)
			if err != nil || indexed != c {
				violations = append(violations, Violation{
					Type:      IndexMismatch,
					Severity:  Error,
					Hierarchy: h.Name(),
					Concept:   c.String(),
					Message:   fmt.Sprintf("concept %s is in the tree but not indexed", c),
				})
			}
		}
		if h.ConceptCount() != len(visited) {
			violations = append(violations, Violation{
				Type:      IndexMismatch,
				Severity:  Error,
				Hierarchy: h.Name(),
				Message:   fmt.Sprintf("index holds %d concepts, tree holds %d", h.ConceptCount(), len(visited)),
				Details: map[string]any{
					"indexed":   h.ConceptCount(),
					"reachable": len(visited),
				},
			})
		}
	}

	return violations, nil
}

func (tc *TreeCheck) checkChild(h *goblin.Hierarchy, parent, child *goblin.Concept) []Violation {
	var violations []Violation
	add := func(vt ViolationType, format string, args ...any) {
		violations = append(violations, Violation{
			Type:      vt,
			Severity:  Error,
			Hierarchy: h.Name(),
			Concept:   child.String(),
			Message:   fmt.Sprintf(format, args...),
		})
	}

	if !child.Attached() {
		add(DetachedReference, "child %s of %s is detached", child, parent)
	}
	if child.IsRoot() {
		add(BrokenTree, "root concept %s appears below %s", child, parent)
	}
	if child.Parent() != parent {
		add(BrokenTree, "child %s of %s names a different parent", child, parent)
	}
	if child.Hierarchy() != h {
		add(BrokenTree, "child %s of %s belongs to another hierarchy", child, parent)
	}
	return violations
}
