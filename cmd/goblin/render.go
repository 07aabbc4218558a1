package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/integrity"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	rootStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	contentStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#888888"))

	restrictStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	implyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	enumeratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			PaddingRight(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// renderModel draws every hierarchy followed by a blank line.
func renderModel(m *goblin.Model) string {
	var b strings.Builder
	for _, h := range m.Hierarchies() {
		b.WriteString(renderHierarchy(h))
		b.WriteString("\n\n")
	}
	return b.String()
}

// renderHierarchy draws the concept tree of h with each concept's
// constraints beside it, then the hierarchy's constraint types.
func renderHierarchy(h *goblin.Hierarchy) string {
	header := titleStyle.Render(fmt.Sprintf("%s (%d concepts, %d constraints)", h.Name(), h.ConceptCount(), h.ConstraintCount()))

	t := conceptTree(h.Root()).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)

	lines := []string{header, t.String()}
	for _, ct := range h.ConstraintTypes() {
		lines = append(lines, helpStyle.Render("  type "+describeType(ct)))
	}
	return strings.Join(lines, "\n")
}

func conceptTree(c *goblin.Concept) *tree.Tree {
	t := tree.Root(conceptLabel(c))
	for _, child := range c.Children() {
		if child.HasChildren() {
			t.Child(conceptTree(child))
		} else {
			t.Child(conceptLabel(child))
		}
	}
	return t
}

func conceptLabel(c *goblin.Concept) string {
	var label string
	switch c.Kind() {
	case goblin.RootConcept:
		label = rootStyle.Render(c.String())
	case goblin.ContentConcept:
		label = contentStyle.Render(c.String())
	default:
		label = c.String()
	}

	var notes []string
	for _, k := range c.Constraints() {
		if k.Root() {
			continue
		}
		notes = append(notes, describeConstraint(k))
	}
	if len(notes) > 0 {
		label += "  " + strings.Join(notes, " ")
	}
	return label
}

// describeConstraint renders "colour ∈ {Red, Blue}" for restrictions and
// "colour = Red" for implied values.
func describeConstraint(k *goblin.Constraint) string {
	names := make([]string, 0, len(k.Targets()))
	for _, t := range k.Targets() {
		names = append(names, t.String())
	}
	if k.Semantics() == goblin.ImpliedValue {
		return implyStyle.Render(fmt.Sprintf("[%s = %s]", k.Type().Name(), strings.Join(names, ", ")))
	}
	return restrictStyle.Render(fmt.Sprintf("[%s ∈ {%s}]", k.Type().Name(), strings.Join(names, ", ")))
}

func describeType(ct *goblin.ConstraintType) string {
	var semantics []string
	for _, s := range []goblin.Semantics{goblin.ValidValues, goblin.ImpliedValue} {
		if ct.Enables(s) {
			semantics = append(semantics, s.String())
		}
	}
	return fmt.Sprintf("%s: %s -> %s (%s, %s)",
		ct.Name(), ct.RootSource(), ct.RootTarget(), strings.Join(semantics, ", "), ct.Cardinality())
}

func describeConstraints(ks []*goblin.Constraint) string {
	lines := make([]string, len(ks))
	for i, k := range ks {
		lines[i] = fmt.Sprintf("  %s on %s", describeConstraint(k), k.Source())
	}
	return strings.Join(lines, "\n")
}

// renderResult lists violations, worst first.
func renderResult(result *integrity.ValidationResult) string {
	if result.Valid {
		return successStyle.Render("✅ model is consistent")
	}
	var lines []string
	for _, sev := range []integrity.Severity{integrity.Error, integrity.Warning, integrity.Info} {
		style := helpStyle
		switch sev {
		case integrity.Error:
			style = errorStyle
		case integrity.Warning:
			style = warnStyle
		}
		for _, v := range result.GetViolationsBySeverity(sev) {
			line := fmt.Sprintf("%s %s: %s", sev, v.Type, v.Message)
			if v.Hierarchy != "" {
				line += " (" + v.Hierarchy + ")"
			}
			lines = append(lines, style.Render(line))
		}
	}
	lines = append(lines, fmt.Sprintf("%d violation(s)", len(result.Violations)))
	return strings.Join(lines, "\n")
}
