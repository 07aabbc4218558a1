package pubsub

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(name string) goblin.EntityID {
	return goblin.NewEntityID("urn:test#"+name, name)
}

func drain(sub *Subscription) []Notification {
	var out []Notification
	for {
		select {
		case n := <-sub.Channel():
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestBridge_PublishesModelEvents(t *testing.T) {
	m := goblin.NewModel()
	vehicles, err := m.AddHierarchy(id("Vehicle"))
	require.NoError(t, err)
	colours, err := m.AddHierarchy(id("Colour"))
	require.NoError(t, err)

	ps := NewPubSub()
	defer ps.Shutdown()
	var buf bytes.Buffer
	b := Attach(m, ps, logging.NewJSONLogger(&buf, logging.DebugLevel))

	all, err := ps.Subscribe(context.Background(), AllTopic)
	require.NoError(t, err)
	vehicleSub, err := ps.Subscribe(context.Background(), HierarchyTopic("Vehicle"))
	require.NoError(t, err)

	car, err := vehicles.Root().AddChild(id("Car"))
	require.NoError(t, err)
	_, err = colours.Root().AddChild(id("Red"))
	require.NoError(t, err)

	got := drain(all)
	require.Len(t, got, 2)
	assert.Equal(t, "concept_added", got[0].Kind)
	assert.Equal(t, "Car", got[0].Concept)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, uint64(2), got[1].Seq)
	assert.Equal(t, "Colour", got[1].Hierarchy)

	vehicleOnly := drain(vehicleSub)
	require.Len(t, vehicleOnly, 1)
	assert.Equal(t, "Car", vehicleOnly[0].Concept)

	// A move is a replacement: remove then add, both flagged.
	truck, err := vehicles.Root().AddChild(id("Truck"))
	require.NoError(t, err)
	drain(vehicleSub)
	ok, err := car.Move(truck)
	require.NoError(t, err)
	require.True(t, ok)

	moved := drain(vehicleSub)
	require.Len(t, moved, 2)
	assert.Equal(t, "concept_removed", moved[0].Kind)
	assert.Equal(t, "concept_added", moved[1].Kind)
	assert.True(t, moved[0].Replacing && moved[1].Replacing)

	assert.Equal(t, uint64(5), b.Published())
	assert.True(t, strings.Contains(buf.String(), `"component":"pubsub"`))
}

func TestBridge_ConstraintEventsAndUndo(t *testing.T) {
	m := goblin.NewModel()
	vehicles, _ := m.AddHierarchy(id("Vehicle"))
	colours, _ := m.AddHierarchy(id("Colour"))
	car, _ := vehicles.Root().AddChild(id("Car"))
	red, _ := colours.Root().AddChild(id("Red"))
	colour, err := vehicles.AddConstraintType("colour", vehicles.Root(), colours.Root(), goblin.EnableAll, goblin.SingleValue)
	require.NoError(t, err)

	ps := NewPubSub()
	defer ps.Shutdown()
	Attach(m, ps, nil)
	sub, _ := ps.Subscribe(context.Background(), HierarchyTopic("Vehicle"))

	ok, err := car.AddValidValuesConstraint(colour, red)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = m.Undo()
	require.NoError(t, err)

	got := drain(sub)
	require.Len(t, got, 2)
	assert.Equal(t, "constraint_added", got[0].Kind)
	assert.Equal(t, "Car", got[0].Concept)
	assert.Contains(t, got[0].Constraint, "colour")
	assert.Equal(t, "constraint_removed", got[1].Kind)
	assert.False(t, got[1].Replacing)
}

func TestBridge_Detach(t *testing.T) {
	m := goblin.NewModel()
	vehicles, _ := m.AddHierarchy(id("Vehicle"))

	ps := NewPubSub()
	defer ps.Shutdown()
	b := Attach(m, ps, nil)
	sub, _ := ps.Subscribe(context.Background(), AllTopic)

	b.Detach()
	_, err := vehicles.Root().AddChild(id("Car"))
	require.NoError(t, err)

	assert.Empty(t, drain(sub))
	assert.Equal(t, uint64(0), b.Published())
}
