package goblin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddChild(t *testing.T) {
	w := newWorld(t)
	car := w.c("Car")

	var added []string
	car.AddListener(&ListenerFuncs{OnChildAdded: func(child *Concept, replacing bool) {
		added = append(added, child.String())
		assert.False(t, replacing)
	}})

	coupe, err := car.AddChild(tid("Coupe"))
	require.NoError(t, err)

	assert.Equal(t, DynamicConcept, coupe.Kind())
	assert.True(t, coupe.Attached())
	assert.Same(t, car, coupe.Parent())
	assert.Equal(t, []string{"Sedan", "Coupe"}, names(car.Children()))
	assert.Equal(t, []string{"Coupe"}, added)
	assert.True(t, w.vehicles.Contains(tid("Coupe")))
	assert.Equal(t, 1, w.m.UndoDepth())

	_, err = w.m.Undo()
	require.NoError(t, err)
	assert.False(t, coupe.Attached())
	assert.False(t, w.vehicles.Contains(tid("Coupe")))
	assert.Equal(t, []string{"Sedan"}, names(car.Children()))

	_, err = w.m.Redo()
	require.NoError(t, err)
	assert.True(t, coupe.Attached())
	assert.Equal(t, []string{"Sedan", "Coupe"}, names(car.Children()))
}

func TestAddChild_DuplicateID(t *testing.T) {
	w := newWorld(t)

	_, err := w.c("Truck").AddChild(tid("Sedan"))
	assert.ErrorIs(t, err, ErrDuplicateID)

	// Ids are unique across hierarchies.
	_, err = w.c("Truck").AddChild(tid("Red"))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 0, w.m.UndoDepth())
}

func TestAddChild_ReuseRemovedID(t *testing.T) {
	w := newWorld(t)
	fleet := w.c("Fleet")
	require.NoError(t, fleet.Remove())

	again, err := w.c("Vehicle").AddChild(tid("Fleet"))
	require.NoError(t, err)
	assert.Same(t, again, w.m.ConceptHandle(again).Get())

	_, err = w.m.Undo()
	require.NoError(t, err)
	_, err = w.m.Undo()
	require.NoError(t, err)
	assert.Same(t, fleet, w.m.ConceptHandle(fleet).Get())
	assert.Same(t, fleet, w.c("Fleet"))
}

func TestRootInvariants(t *testing.T) {
	w := newWorld(t)
	root := w.vehicles.Root()
	before := snapshot(w.m)

	_, err := root.Move(w.c("Car"))
	assert.ErrorIs(t, err, ErrInvalidRootOperation)

	err = root.Remove()
	assert.ErrorIs(t, err, ErrInvalidRootOperation)

	err = root.RemoveSubtree()
	assert.ErrorIs(t, err, ErrInvalidRootOperation)

	_, err = root.ResetID(tid("Machine"))
	assert.ErrorIs(t, err, ErrInvalidRootOperation)

	assert.Equal(t, before, snapshot(w.m))
	assert.False(t, w.m.CanUndo())
}

func TestMove_ReplacesConcept(t *testing.T) {
	w := newWorld(t)
	require.True(t, w.restrict("Car", "Red"))
	ok, err := w.c("Truck").AddImpliedValueConstraint(w.tows, w.c("Car"))
	require.NoError(t, err)
	require.True(t, ok)

	oldCar := w.c("Car")
	handle := w.m.ConceptHandle(oldCar)
	tows := w.c("Truck").ConstraintOfType(w.tows, ImpliedValue)
	depth := w.m.UndoDepth()

	var removed, added []bool
	oldCar.AddListener(&ListenerFuncs{OnConceptRemoved: func(_ *Concept, replacing bool) {
		removed = append(removed, replacing)
	}})
	w.c("Fleet").AddListener(&ListenerFuncs{OnChildAdded: func(_ *Concept, replacing bool) {
		added = append(added, replacing)
	}})

	moved, err := oldCar.Move(w.c("Fleet"))
	require.NoError(t, err)
	require.True(t, moved)

	newCar := handle.Get()
	assert.NotSame(t, oldCar, newCar)
	assert.False(t, oldCar.Attached())
	assert.True(t, newCar.Attached())
	assert.Equal(t, "Fleet", newCar.Parent().String())
	assert.Same(t, newCar, w.c("Car"))
	assert.Equal(t, []string{"Sedan"}, names(newCar.Children()))
	assert.Equal(t, "Car", w.c("Sedan").Parent().String())
	assert.Same(t, newCar, w.c("Sedan").Parent())

	require.NotNil(t, newCar.ConstraintOfType(w.colour, ValidValues))
	assert.Same(t, newCar, tows.Targets()[0])
	assert.Equal(t, depth+1, w.m.UndoDepth(), "move is a single undoable edit")
	assert.Equal(t, []bool{true}, removed)
	assert.Equal(t, []bool{true}, added)

	loc, err := w.m.Undo()
	require.NoError(t, err)
	assert.Equal(t, ConceptEdit, loc.Kind)
	assert.True(t, loc.Added)
	assert.Same(t, oldCar, loc.Concept)
	assert.Same(t, oldCar, handle.Get())
	assert.Equal(t, "Vehicle", oldCar.Parent().String())
	assert.Equal(t, []string{"Car", "Truck", "Fleet"}, names(w.vehicles.Root().Children()))
	assert.Same(t, oldCar, tows.Targets()[0])
}

func TestMove_Invalid(t *testing.T) {
	w := newWorld(t)

	_, err := w.c("Car").Move(w.c("Sedan"))
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = w.c("Car").Move(w.c("Car"))
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = w.c("Car").Move(w.c("Red"))
	assert.ErrorIs(t, err, ErrInvalidMove)

	ok, err := w.c("Sedan").Move(w.c("Car"))
	assert.NoError(t, err)
	assert.False(t, ok, "moving to the current parent changes nothing")
	assert.False(t, w.m.CanUndo())
}

func TestMove_StaleValue(t *testing.T) {
	w := newWorld(t)
	old := w.c("Pickup")
	ok, err := old.Move(w.c("Fleet"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = old.Move(w.c("Truck"))
	assert.ErrorIs(t, err, ErrNotAttached)
	_, err = old.AddChild(tid("Ute"))
	assert.ErrorIs(t, err, ErrNotAttached)
}

func TestMove_ConflictingImpliedValue(t *testing.T) {
	confirm := &recordingConfirmer{}
	w := newWorld(t, WithConfirmer(confirm))
	require.True(t, w.restrict("Car", "Red"))
	require.True(t, w.imply("Pickup", "Navy"))
	before := snapshot(w.m)

	ok, err := w.c("Pickup").Move(w.c("Car"))
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, confirm.moves, 1)
	require.Len(t, confirm.moves[0], 1)
	assert.Equal(t, ImpliedValue, confirm.moves[0][0].Semantics())
	assert.Equal(t, before, snapshot(w.m))

	confirm.accept = true
	ok, err = w.c("Pickup").Move(w.c("Car"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Car", w.c("Pickup").Parent().String())
	assert.Empty(t, w.c("Pickup").Constraints())

	_, err = w.m.Undo()
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(w.m))
}

func TestMove_TargetLeavesRestriction(t *testing.T) {
	confirm := &recordingConfirmer{}
	w := newWorld(t, WithConfirmer(confirm))
	require.True(t, w.restrict("Car", "Red"))
	require.True(t, w.imply("Sedan", "Crimson"))

	ok, err := w.c("Crimson").Move(w.c("Blue"))
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, confirm.moves, 1)
	require.Len(t, confirm.moves[0], 1)
	assert.Equal(t, "Sedan", confirm.moves[0][0].Source().String())

	// Moving within the restriction is fine.
	ok, err = w.c("Crimson").Move(w.c("Scarlet"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, confirm.moves, 1)
}

func TestMove_TargetsWouldOverlap(t *testing.T) {
	confirm := &recordingConfirmer{}
	w := newWorld(t, WithConfirmer(confirm))
	require.True(t, w.restrict("Car", "Blue", "Green"))

	ok, err := w.c("Green").Move(w.c("Blue"))
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, confirm.moves, 1)
	assert.Equal(t, "Car", confirm.moves[0][0].Source().String())
}

func TestResetID(t *testing.T) {
	w := newWorld(t)
	require.True(t, w.imply("Sedan", "Red"))
	sedan := w.c("Sedan")
	handle := w.m.ConceptHandle(sedan)
	red := w.c("Red")
	handleRed := w.m.ConceptHandle(red)
	before := snapshot(w.m)

	ok, err := red.ResetID(tid("Rouge"))
	require.NoError(t, err)
	require.True(t, ok)

	rouge := handleRed.Get()
	assert.Equal(t, tid("Rouge"), rouge.ID())
	assert.Equal(t, []string{"Rouge", "Blue", "Green"}, names(w.colours.Root().Children()), "position among siblings is kept")
	assert.Equal(t, []string{"Crimson", "Scarlet"}, names(rouge.Children()))
	assert.Same(t, rouge, w.c("Crimson").Parent())
	_, err = w.m.Concept(tid("Red"))
	assert.ErrorIs(t, err, ErrConceptNotFound)
	assert.Equal(t, []string{"Rouge"}, targetNames(sedan.ConstraintOfType(w.colour, ImpliedValue)))
	assert.Same(t, sedan, handle.Get())

	ok, err = rouge.ResetID(tid("Rouge"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = rouge.ResetID(tid("Blue"))
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = w.m.Undo()
	require.NoError(t, err)
	assert.Same(t, red, handleRed.Get())
	assert.Equal(t, before, snapshot(w.m))
}

func TestResetID_ReusedIDKeepsTrackers(t *testing.T) {
	w := newWorld(t)
	oldNavy := w.c("Navy")
	oldHandle := w.m.ConceptHandle(oldNavy)

	ok, err := oldNavy.ResetID(tid("Azure"))
	require.NoError(t, err)
	require.True(t, ok)
	navy := w.add("Blue", "Navy")
	newHandle := w.m.ConceptHandle(navy)
	require.NotSame(t, oldHandle, newHandle)

	ok, err = w.c("Sedan").AddImpliedValueConstraint(w.colour, navy)
	require.NoError(t, err)
	require.True(t, ok)
	implied := w.c("Sedan").ConstraintOfType(w.colour, ImpliedValue)

	for i := 0; i < 3; i++ {
		_, err = w.m.Undo()
		require.NoError(t, err)
	}
	assert.Same(t, oldNavy, oldHandle.Get())
	assert.Same(t, oldNavy, w.c("Navy"))
	assert.Same(t, navy, newHandle.Get())
	assert.False(t, navy.Attached())

	for i := 0; i < 3; i++ {
		_, err = w.m.Redo()
		require.NoError(t, err)
	}
	assert.Equal(t, "Azure", oldHandle.Get().String())
	assert.Same(t, navy, newHandle.Get())
	assert.Same(t, newHandle, w.m.ConceptHandle(w.c("Navy")))

	moved, err := w.c("Navy").Move(w.c("Red"))
	require.NoError(t, err)
	require.True(t, moved)

	target := implied.Targets()[0]
	assert.Same(t, w.c("Navy"), target)
	assert.True(t, target.Attached())
	assert.Equal(t, "Red", target.Parent().String())
	assert.Equal(t, "Blue", w.c("Azure").Parent().String())
}

func TestResetID_ContentConcept(t *testing.T) {
	w := newWorld(t)
	c, err := w.c("Car").AddContentChild(tid("Model-T"))
	require.NoError(t, err)
	assert.Equal(t, ContentConcept, c.Kind())

	_, err = c.ResetID(tid("Model-A"))
	assert.ErrorIs(t, err, ErrFixedIdentity)
}

func TestRemove(t *testing.T) {
	w := newWorld(t)
	require.True(t, w.restrict("Car", "Red", "Green"))
	require.True(t, w.imply("Truck", "Green"))
	before := snapshot(w.m)

	restriction := w.c("Car").ConstraintOfType(w.colour, ValidValues)
	handle := w.m.ConstraintHandle(restriction)

	green := w.c("Green")
	var gone []bool
	green.AddListener(&ListenerFuncs{OnConceptRemoved: func(_ *Concept, replacing bool) {
		gone = append(gone, replacing)
	}})
	require.NoError(t, green.Remove())

	assert.False(t, green.Attached())
	assert.False(t, w.colours.Contains(tid("Green")))
	assert.Equal(t, []bool{false}, gone)

	trimmed := w.c("Car").ConstraintOfType(w.colour, ValidValues)
	require.NotNil(t, trimmed)
	assert.Equal(t, []string{"Red"}, targetNames(trimmed))
	assert.Same(t, trimmed, handle.Get())
	assert.Nil(t, w.c("Truck").ConstraintOfType(w.colour, ImpliedValue), "single-target constraint is removed")
	assert.Empty(t, green.InwardConstraints())

	_, err := w.m.Undo()
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(w.m))
	assert.Same(t, restriction, handle.Get())
}

func TestRemove_HasChildren(t *testing.T) {
	w := newWorld(t)
	err := w.c("Car").Remove()
	assert.ErrorIs(t, err, ErrHasChildren)
	assert.True(t, w.vehicles.Contains(tid("Car")))
}

func TestRemove_RootAnchor(t *testing.T) {
	w := newWorld(t)
	_, err := w.vehicles.AddConstraintType("paint", w.c("Car"), w.c("Red"), EnableValidValues, SingleValue)
	require.NoError(t, err)

	err = w.c("Scarlet").Remove()
	require.NoError(t, err)

	err = w.c("Red").RemoveSubtree()
	assert.ErrorIs(t, err, ErrInvalidRootOperation)
	assert.True(t, w.colours.Contains(tid("Red")))
}

func TestRemoveSubtree(t *testing.T) {
	w := newWorld(t)
	require.True(t, w.restrict("Car", "Red", "Blue"))
	require.True(t, w.imply("Sedan", "Crimson"))
	ok, err := w.c("Truck").AddImpliedValueConstraint(w.tows, w.c("Sedan"))
	require.NoError(t, err)
	require.True(t, ok)
	before := snapshot(w.m)
	depth := w.m.UndoDepth()

	require.NoError(t, w.c("Car").RemoveSubtree())

	assert.False(t, w.vehicles.Contains(tid("Car")))
	assert.False(t, w.vehicles.Contains(tid("Sedan")))
	assert.Empty(t, w.c("Truck").Constraints())
	assert.Empty(t, w.c("Red").InwardConstraints())
	assert.Empty(t, w.c("Crimson").InwardConstraints())
	assert.Equal(t, depth+1, w.m.UndoDepth())
	assert.Equal(t, 4, w.vehicles.ConceptCount())

	_, err = w.m.Undo()
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(w.m))

	_, err = w.m.Redo()
	require.NoError(t, err)
	assert.False(t, w.vehicles.Contains(tid("Sedan")))
}

func TestRemoveSubtree_TrimsSharedTargets(t *testing.T) {
	w := newWorld(t)
	require.True(t, w.restrict("Car", "Red", "Blue"))

	require.NoError(t, w.c("Red").RemoveSubtree())

	k := w.c("Car").ConstraintOfType(w.colour, ValidValues)
	require.NotNil(t, k)
	assert.Equal(t, []string{"Blue"}, targetNames(k))
}

func TestSubsumption(t *testing.T) {
	w := newWorld(t)
	red, crimson, blue := w.c("Red"), w.c("Crimson"), w.c("Blue")

	assert.True(t, red.Subsumes(red))
	assert.True(t, red.Subsumes(crimson))
	assert.False(t, crimson.Subsumes(red))
	assert.True(t, crimson.SubsumedBy(red))
	assert.True(t, crimson.DescendantOf(red))
	assert.False(t, red.DescendantOf(red))
	assert.False(t, blue.Subsumes(crimson))
	assert.True(t, crimson.SubsumedByAny([]*Concept{blue, red}))
	assert.False(t, crimson.SubsumedByAny([]*Concept{blue}))
	assert.False(t, red.Subsumes(w.c("Car")), "no subsumption across hierarchies")

	assert.Equal(t, []string{"Red", "Colour"}, names(crimson.Ancestors()))
	assert.Equal(t, []string{"Red", "Crimson", "Scarlet", "Blue", "Navy", "Green"}, names(w.colours.Root().Descendants()))
}

func TestListener_FollowsReplacement(t *testing.T) {
	w := newWorld(t)
	var events []string
	w.c("Truck").AddListener(&ListenerFuncs{
		OnChildAdded:        func(c *Concept, _ bool) { events = append(events, "child:"+c.String()) },
		OnConstraintAdded:   func(k *Constraint) { events = append(events, "add:"+k.Semantics().String()) },
		OnConstraintRemoved: func(k *Constraint) { events = append(events, "remove:"+k.Semantics().String()) },
	})

	ok, err := w.c("Truck").Move(w.c("Fleet"))
	require.NoError(t, err)
	require.True(t, ok)

	w.add("Truck", "Tipper")
	require.True(t, w.imply("Truck", "Blue"))
	require.True(t, w.imply("Truck", "Green"))

	assert.Equal(t, []string{
		"child:Tipper",
		"add:implied-value",
		"remove:implied-value",
		"add:implied-value",
	}, events)
}

func TestRemoveListener(t *testing.T) {
	w := newWorld(t)
	count := 0
	l := &ListenerFuncs{OnChildAdded: func(*Concept, bool) { count++ }}
	car := w.c("Car")
	car.AddListener(l)
	w.add("Car", "Coupe")
	car.RemoveListener(l)
	w.add("Car", "Hatch")
	assert.Equal(t, 1, count)
}

func TestObserve(t *testing.T) {
	w := newWorld(t)
	var kinds []EventKind
	w.m.Observe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	w.add("Car", "Coupe")
	require.True(t, w.restrict("Coupe", "Red"))
	require.NoError(t, w.c("Coupe").Remove())

	assert.Equal(t, []EventKind{ConceptAdded, ConstraintAdded, ConstraintRemoved, ConceptRemoved}, kinds)
}

func TestHierarchyLookups(t *testing.T) {
	w := newWorld(t)

	h, err := w.m.Hierarchy(tid("Colour"))
	require.NoError(t, err)
	assert.Same(t, w.colours, h)

	_, err = w.m.Hierarchy(tid("Nope"))
	assert.ErrorIs(t, err, ErrHierarchyNotFound)

	h, err = w.m.HierarchyOf(tid("Navy"))
	require.NoError(t, err)
	assert.Same(t, w.colours, h)

	_, err = w.m.HierarchyOf(tid("Nope"))
	assert.ErrorIs(t, err, ErrHierarchyNotFound)

	_, err = w.vehicles.Concept(tid("Red"))
	assert.ErrorIs(t, err, ErrConceptNotFound)
	assert.True(t, IsNotFound(err))

	ct, err := w.vehicles.ConstraintType("colour")
	require.NoError(t, err)
	assert.Same(t, w.colour, ct)
	_, err = w.vehicles.ConstraintType("size")
	assert.ErrorIs(t, err, ErrConstraintTypeNotFound)

	_, err = w.m.AddHierarchy(tid("Colour"))
	assert.ErrorIs(t, err, ErrDuplicateID)

	assert.Equal(t, 6, w.vehicles.ConceptCount())
	assert.Len(t, w.m.Hierarchies(), 2)
}

func TestEditErrorFormatting(t *testing.T) {
	err := NewError("move").Concept(tid("Car")).Context("under Sedan").Cause(ErrInvalidMove).Err()
	assert.Equal(t, "move concept Car (under Sedan): invalid move", err.Error())

	var ee *EditError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "concept", ee.Entity)
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.NotErrorIs(t, err, ErrHasChildren)
}
