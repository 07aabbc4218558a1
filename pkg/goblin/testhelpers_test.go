package goblin

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func tid(name string) EntityID {
	return NewEntityID("urn:test#"+name, name)
}

// world is a small two-hierarchy model used across tests.
//
//	Vehicle                  Colour
//	├── Car                  ├── Red
//	│   └── Sedan            │   ├── Crimson
//	├── Truck                │   └── Scarlet
//	│   └── Pickup           ├── Blue
//	└── Fleet                │   └── Navy
//	                         └── Green
type world struct {
	t *testing.T
	m *Model

	vehicles *Hierarchy
	colours  *Hierarchy

	colour *ConstraintType // Vehicle -> Colour, single-valued
	tows   *ConstraintType // Vehicle -> Vehicle, multi-valued
}

func newWorld(t *testing.T, opts ...Option) *world {
	t.Helper()
	w := &world{t: t, m: NewModel(opts...)}

	var err error
	w.vehicles, err = w.m.AddHierarchy(tid("Vehicle"))
	require.NoError(t, err)
	w.colours, err = w.m.AddHierarchy(tid("Colour"))
	require.NoError(t, err)

	w.add("Vehicle", "Car")
	w.add("Car", "Sedan")
	w.add("Vehicle", "Truck")
	w.add("Truck", "Pickup")
	w.add("Vehicle", "Fleet")
	w.add("Colour", "Red")
	w.add("Red", "Crimson")
	w.add("Red", "Scarlet")
	w.add("Colour", "Blue")
	w.add("Blue", "Navy")
	w.add("Colour", "Green")

	w.colour, err = w.vehicles.AddConstraintType("colour", w.vehicles.Root(), w.colours.Root(), EnableAll, SingleValue)
	require.NoError(t, err)
	w.tows, err = w.vehicles.AddConstraintType("tows", w.vehicles.Root(), w.vehicles.Root(), EnableAll, MultiValue)
	require.NoError(t, err)

	w.m.ClearHistory()
	return w
}

func (w *world) add(parent, name string) *Concept {
	w.t.Helper()
	c, err := w.c(parent).AddChild(tid(name))
	require.NoError(w.t, err)
	return c
}

// c returns the current version of the named concept.
func (w *world) c(name string) *Concept {
	w.t.Helper()
	c, err := w.m.Concept(tid(name))
	require.NoError(w.t, err)
	return c
}

func (w *world) cs(names ...string) []*Concept {
	out := make([]*Concept, len(names))
	for i, n := range names {
		out[i] = w.c(n)
	}
	return out
}

func (w *world) restrict(source string, targets ...string) bool {
	w.t.Helper()
	ok, err := w.c(source).AddValidValuesConstraint(w.colour, w.cs(targets...)...)
	require.NoError(w.t, err)
	return ok
}

func (w *world) imply(source, target string) bool {
	w.t.Helper()
	ok, err := w.c(source).AddImpliedValueConstraint(w.colour, w.c(target))
	require.NoError(w.t, err)
	return ok
}

func names(cs []*Concept) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

func targetNames(k *Constraint) []string {
	out := names(k.Targets())
	sort.Strings(out)
	return out
}

// snapshot renders the observable state of the model canonically. Sibling
// order is significant; constraint order within a concept is not.
func snapshot(m *Model) string {
	var b strings.Builder
	for _, h := range m.Hierarchies() {
		fmt.Fprintf(&b, "hierarchy %s (%d concepts, %d constraints)\n", h, h.ConceptCount(), h.ConstraintCount())
		for _, c := range h.AllConcepts() {
			parent := "-"
			if p := c.Parent(); p != nil {
				parent = p.String()
			}
			fmt.Fprintf(&b, "  %s parent=%s children=%v attached=%v\n", c, parent, names(c.Children()), c.Attached())

			var owned, inward []string
			for _, k := range c.Constraints() {
				owned = append(owned, k.String()+fmt.Sprint(targetNames(k)))
			}
			for _, k := range c.InwardConstraints() {
				inward = append(inward, k.String()+fmt.Sprint(targetNames(k)))
			}
			sort.Strings(owned)
			sort.Strings(inward)
			fmt.Fprintf(&b, "    owns %v\n    inward %v\n", owned, inward)
		}
		ids := make([]string, 0, len(h.index))
		for id := range h.index {
			ids = append(ids, id.String())
		}
		sort.Strings(ids)
		fmt.Fprintf(&b, "  index %v\n", ids)
	}
	return b.String()
}

// recordingConfirmer remembers the conflicts it was shown.
type recordingConfirmer struct {
	accept    bool
	additions [][]*Constraint
	moves     [][]*Constraint
}

func (r *recordingConfirmer) ConfirmConstraintAddition(conflicts []*Constraint) bool {
	r.additions = append(r.additions, conflicts)
	return r.accept
}

func (r *recordingConfirmer) ConfirmConceptMove(conflicts []*Constraint) bool {
	r.moves = append(r.moves, conflicts)
	return r.accept
}

func containsConstraint(list []*Constraint, k *Constraint) bool {
	for _, x := range list {
		if x == k {
			return true
		}
	}
	return false
}
