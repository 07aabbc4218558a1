package integrity

import (
	"fmt"
	"strings"
)

// ConflictCheck reports attached constraints that disagree with each other.
// Findings are warnings; the model resolves conflicts as edits happen.
type ConflictCheck struct{}

// Name returns the check name
func (cc *ConflictCheck) Name() string { return "ConflictCheck" }

// Validate asks the model for the conflicts of every non-root constraint
func (cc *ConflictCheck) Validate(model ModelReader) ([]Violation, error) {
	violations := make([]Violation, 0)

	for _, h := range model.Hierarchies() {
		for _, c := range h.AllConcepts() {
			for _, k := range c.Constraints() {
				if k.Root() {
					continue
				}
				conflicts := model.FindConflicts(k)
				if len(conflicts) == 0 {
					continue
				}
				names := make([]string, len(conflicts))
				for i, x := range conflicts {
					names[i] = x.String()
				}
				violations = append(violations, Violation{
					Type:       UnresolvedConflict,
					Severity:   Warning,
					Hierarchy:  h.Name(),
					Concept:    c.String(),
					Constraint: k.String(),
					Message:    fmt.Sprintf("%s conflicts with %s", k, strings.Join(names, ", ")),
					Details: map[string]any{
						"conflicts": names,
					},
				})
			}
		}
	}

	return violations, nil
}
