package integrity

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func id(name string) goblin.EntityID {
	return goblin.NewEntityID("urn:test#"+name, name)
}

type fixture struct {
	t        *testing.T
	m        *goblin.Model
	vehicles *goblin.Hierarchy
	colours  *goblin.Hierarchy
	colour   *goblin.ConstraintType
	tows     *goblin.ConstraintType
}

// setupModel builds Vehicle{Car{Sedan}, Truck} and Colour{Red{Crimson}, Blue{Navy}}
// with a single-valued colour type and a multi-valued tows type.
func setupModel(t *testing.T, opts ...goblin.Option) *fixture {
	t.Helper()
	f := &fixture{t: t, m: goblin.NewModel(opts...)}

	var err error
	if f.vehicles, err = f.m.AddHierarchy(id("Vehicle")); err != nil {
		t.Fatalf("AddHierarchy failed: %v", err)
	}
	if f.colours, err = f.m.AddHierarchy(id("Colour")); err != nil {
		t.Fatalf("AddHierarchy failed: %v", err)
	}
	for _, pair := range [][2]string{
		{"Vehicle", "Car"}, {"Car", "Sedan"}, {"Vehicle", "Truck"},
		{"Colour", "Red"}, {"Red", "Crimson"}, {"Colour", "Blue"}, {"Blue", "Navy"},
	} {
		f.add(pair[0], pair[1])
	}
	if f.colour, err = f.vehicles.AddConstraintType("colour", f.vehicles.Root(), f.colours.Root(), goblin.EnableAll, goblin.SingleValue); err != nil {
		t.Fatalf("AddConstraintType failed: %v", err)
	}
	if f.tows, err = f.vehicles.AddConstraintType("tows", f.vehicles.Root(), f.vehicles.Root(), goblin.EnableImpliedValue, goblin.MultiValue); err != nil {
		t.Fatalf("AddConstraintType failed: %v", err)
	}
	f.m.ClearHistory()
	return f
}

func (f *fixture) c(name string) *goblin.Concept {
	f.t.Helper()
	c, err := f.m.Concept(id(name))
	if err != nil {
		f.t.Fatalf("Concept(%s) failed: %v", name, err)
	}
	return c
}

func (f *fixture) add(parent, name string) {
	f.t.Helper()
	if _, err := f.c(parent).AddChild(id(name)); err != nil {
		f.t.Fatalf("AddChild(%s, %s) failed: %v", parent, name, err)
	}
}

func TestChecker_CleanModel(t *testing.T) {
	f := setupModel(t)
	if ok, err := f.c("Car").AddValidValuesConstraint(f.colour, f.c("Red"), f.c("Navy")); !ok || err != nil {
		t.Fatalf("AddValidValuesConstraint = %v, %v", ok, err)
	}
	if ok, err := f.c("Sedan").AddImpliedValueConstraint(f.colour, f.c("Crimson")); !ok || err != nil {
		t.Fatalf("AddImpliedValueConstraint = %v, %v", ok, err)
	}
	if ok, err := f.c("Truck").AddImpliedValueConstraint(f.tows, f.c("Car")); !ok || err != nil {
		t.Fatalf("AddImpliedValueConstraint = %v, %v", ok, err)
	}
	if ok, err := f.c("Truck").AddImpliedValueConstraint(f.tows, f.c("Sedan")); !ok || err != nil {
		t.Fatalf("AddImpliedValueConstraint = %v, %v", ok, err)
	}

	result, err := NewDefaultChecker().Validate(f.m)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid {
		t.Errorf("Expected clean model, got violations: %+v", result.Violations)
	}
	if result.CheckedAt.IsZero() {
		t.Error("Expected CheckedAt to be set")
	}
	if err := NewDefaultChecker().Verify(f.m); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestChecker_AsModelVerifier(t *testing.T) {
	var buf bytes.Buffer
	f := setupModel(t,
		goblin.WithVerifier(NewDefaultChecker()),
		goblin.WithLogger(logging.NewJSONLogger(&buf, logging.DebugLevel)),
		goblin.WithConfirmer(goblin.AcceptAll),
	)

	f.add("Truck", "Pickup")
	if ok, err := f.c("Car").AddValidValuesConstraint(f.colour, f.c("Red")); !ok || err != nil {
		t.Fatalf("AddValidValuesConstraint = %v, %v", ok, err)
	}
	if ok, err := f.c("Sedan").Move(f.c("Truck")); !ok || err != nil {
		t.Fatalf("Move = %v, %v", ok, err)
	}
	if err := f.c("Pickup").Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	for f.m.CanUndo() {
		if _, err := f.m.Undo(); err != nil {
			t.Fatalf("Undo failed: %v", err)
		}
	}

	if !strings.Contains(buf.String(), "edit undone") {
		t.Error("Expected undo to be logged")
	}
	if strings.Contains(buf.String(), "model integrity check failed") {
		t.Errorf("Expected no integrity failures, log:\n%s", buf.String())
	}
}

// stubCheck returns fixed results.
type stubCheck struct {
	violations []Violation
	err        error
}

func (s *stubCheck) Name() string { return "stub" }

func (s *stubCheck) Validate(ModelReader) ([]Violation, error) { return s.violations, s.err }

func TestChecker_Results(t *testing.T) {
	f := setupModel(t)
	checker := NewChecker()
	checker.AddCheck(&stubCheck{violations: []Violation{
		{Type: UnresolvedConflict, Severity: Warning, Message: "w"},
		{Type: BrokenTree, Severity: Error, Message: "broken"},
		{Type: BrokenTree, Severity: Info, Message: "i"},
	}})

	result, err := checker.Validate(f.m)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Error("Expected invalid result")
	}
	if got := len(result.GetViolationsBySeverity(Error)); got != 1 {
		t.Errorf("Expected 1 error, got %d", got)
	}
	if got := len(result.GetViolationsByType(BrokenTree)); got != 2 {
		t.Errorf("Expected 2 BrokenTree violations, got %d", got)
	}
	if len(checker.GetChecks()) != 1 {
		t.Errorf("Expected 1 check, got %d", len(checker.GetChecks()))
	}

	err = checker.Verify(f.m)
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("Expected ErrIntegrity, got %v", err)
	}
	if !strings.Contains(err.Error(), "BrokenTree: broken") {
		t.Errorf("Expected first error in message, got %v", err)
	}

	warnOnly := NewChecker()
	warnOnly.AddCheck(&stubCheck{violations: []Violation{{Severity: Warning}}})
	if err := warnOnly.Verify(f.m); err != nil {
		t.Errorf("Warnings should not fail Verify, got %v", err)
	}
}

func TestChecker_CheckError(t *testing.T) {
	f := setupModel(t)
	boom := errors.New("boom")
	checker := NewChecker()
	checker.AddChecks([]Check{&TreeCheck{}, &stubCheck{err: boom}})

	if _, err := checker.Validate(f.m); !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "stub:") {
		t.Errorf("Expected wrapped check error, got %v", err)
	}
	if err := checker.Verify(f.m); !errors.Is(err, boom) {
		t.Errorf("Expected Verify to surface check error, got %v", err)
	}
}

// conflictingReader reports every constraint as conflicting with the root
// constraint of its type.
type conflictingReader struct {
	*goblin.Model
}

func (r conflictingReader) FindConflicts(k *goblin.Constraint) []*goblin.Constraint {
	return []*goblin.Constraint{k.Type().RootConstraint()}
}

func TestConflictCheck(t *testing.T) {
	f := setupModel(t)
	if ok, err := f.c("Car").AddValidValuesConstraint(f.colour, f.c("Red")); !ok || err != nil {
		t.Fatalf("AddValidValuesConstraint = %v, %v", ok, err)
	}

	clean, err := (&ConflictCheck{}).Validate(f.m)
	if err != nil || len(clean) != 0 {
		t.Fatalf("Expected no conflicts, got %v, %v", clean, err)
	}

	violations, err := (&ConflictCheck{}).Validate(conflictingReader{f.m})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation (root constraints skipped), got %d", len(violations))
	}
	v := violations[0]
	if v.Type != UnresolvedConflict || v.Severity != Warning || v.Concept != "Car" {
		t.Errorf("Unexpected violation %+v", v)
	}
}

func TestTypeStrings(t *testing.T) {
	if Error.String() != "Error" || Severity(9).String() != "Unknown" {
		t.Error("Unexpected severity strings")
	}
	for vt := BrokenTree; vt <= UnresolvedConflict; vt++ {
		if vt.String() == "Unknown" {
			t.Errorf("ViolationType %d has no name", vt)
		}
	}
}

func randomEdit(f *fixture, step, seed int) {
	all := append(f.vehicles.AllConcepts(), f.colours.AllConcepts()...)
	vehicles := f.vehicles.AllConcepts()
	colours := f.colours.AllConcepts()
	a, b := all[(seed/7)%len(all)], all[(seed/97)%len(all)]
	v := vehicles[(seed/13)%len(vehicles)]
	col := colours[(seed/17)%len(colours)]
	col2 := colours[(seed/19)%len(colours)]

	switch seed % 8 {
	case 0:
		_, _ = a.AddChild(id(fmt.Sprintf("N%d", step)))
	case 1:
		_, _ = a.Move(b)
	case 2:
		_, _ = v.AddValidValuesConstraint(f.colour, col, col2)
	case 3:
		_, _ = v.AddImpliedValueConstraint(f.colour, col)
	case 4:
		_, _ = v.AddImpliedValueConstraint(f.tows, b)
	case 5:
		_ = a.RemoveSubtree()
	case 6:
		_, _ = a.ResetID(id(fmt.Sprintf("R%d", step)))
	case 7:
		_, _ = f.m.Undo()
	}
}

func TestIntegrityProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40

	properties := gopter.NewProperties(parameters)

	properties.Property("edits, undo and redo never break integrity", prop.ForAll(
		func(seeds []int) bool {
			f := setupModel(t, goblin.WithConfirmer(goblin.AcceptAll))
			checker := NewDefaultChecker()
			for step, seed := range seeds {
				randomEdit(f, step, seed)
				if err := checker.Verify(f.m); err != nil {
					t.Logf("after step %d: %v", step, err)
					return false
				}
			}
			for f.m.CanRedo() {
				if _, err := f.m.Redo(); err != nil {
					return false
				}
			}
			return checker.Verify(f.m) == nil
		},
		gen.SliceOfN(30, gen.IntRange(0, 1000000)),
	))

	properties.TestingRun(t)
}
