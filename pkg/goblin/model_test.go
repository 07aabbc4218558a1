package goblin

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/dd0wney/goblin/pkg/metrics"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(t *testing.T, r *metrics.Registry, op string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, r.EditActionsTotal.WithLabelValues(op).Write(&m))
	return m.Counter.GetValue()
}

func TestModel_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	m := NewModel(WithMetrics(reg))
	h, err := m.AddHierarchy(tid("Animal"))
	require.NoError(t, err)

	_, err = h.Root().AddChild(tid("Dog"))
	require.NoError(t, err)
	_, err = h.Root().AddChild(tid("Cat"))
	require.NoError(t, err)
	_, err = m.Undo()
	require.NoError(t, err)

	assert.Equal(t, 2.0, counter(t, reg, "perform"))
	assert.Equal(t, 1.0, counter(t, reg, "undo"))

	var g dto.Metric
	require.NoError(t, reg.ConceptsTotal.WithLabelValues("Animal").Write(&g))
	assert.Equal(t, 2.0, g.Gauge.GetValue())
	require.NoError(t, reg.UndoStackDepth.Write(&g))
	assert.Equal(t, 1.0, g.Gauge.GetValue())
	assert.Same(t, reg, m.Metrics())
}

func TestModel_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.DebugLevel)
	w := newWorld(t, WithLogger(logger))

	w.add("Car", "Coupe")
	assert.Contains(t, buf.String(), `"edit performed"`)
	assert.Contains(t, buf.String(), `"component":"model"`)

	_, err := w.m.Undo()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"edit undone"`)

	require.True(t, w.restrict("Car", "Red"))
	assert.False(t, w.restrict("Sedan", "Blue"))
	assert.Contains(t, buf.String(), `"edit declined due to conflicts"`)
}

type verifierFunc func(*Model) error

func (f verifierFunc) Verify(m *Model) error { return f(m) }

func TestModel_Verifier(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	fail := false
	v := verifierFunc(func(*Model) error {
		calls++
		if fail {
			return errors.New("broken")
		}
		return nil
	})
	w := newWorld(t, WithVerifier(v), WithLogger(logging.NewJSONLogger(&buf, logging.InfoLevel)))
	seeded := calls

	w.add("Car", "Coupe")
	assert.Equal(t, seeded+1, calls)
	assert.NotContains(t, buf.String(), "integrity")

	fail = true
	w.add("Car", "Hatch")
	assert.Equal(t, 1, strings.Count(buf.String(), "model integrity check failed"))
}

func TestConfirmers(t *testing.T) {
	assert.False(t, DeclineAll.ConfirmConstraintAddition(nil))
	assert.False(t, DeclineAll.ConfirmConceptMove(nil))
	assert.True(t, AcceptAll.ConfirmConstraintAddition(nil))
	assert.True(t, AcceptAll.ConfirmConceptMove(nil))

	var seen int
	f := ConfirmerFuncs{Addition: func(c []*Constraint) bool { seen = len(c); return true }}
	assert.True(t, f.ConfirmConstraintAddition(make([]*Constraint, 3)))
	assert.Equal(t, 3, seen)
	assert.False(t, f.ConfirmConceptMove(nil), "missing func declines")
}

func TestSetConfirmer(t *testing.T) {
	w := newWorld(t)
	require.True(t, w.restrict("Car", "Red"))
	assert.False(t, w.restrict("Sedan", "Blue"))

	w.m.SetConfirmer(AcceptAll)
	assert.True(t, w.restrict("Sedan", "Blue"))

	w.m.SetConfirmer(nil)
	assert.False(t, w.restrict("Car", "Green"))
}

func TestClearHistory(t *testing.T) {
	w := newWorld(t)
	w.add("Car", "Coupe")
	require.True(t, w.m.CanUndo())

	w.m.ClearHistory()
	assert.False(t, w.m.CanUndo())
	assert.False(t, w.m.CanRedo())
	_, err := w.m.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.True(t, w.vehicles.Contains(tid("Coupe")))
}

func TestView(t *testing.T) {
	w := newWorld(t)
	var count int
	err := w.m.View(func() error {
		count = w.vehicles.ConceptCount()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	boom := errors.New("boom")
	assert.ErrorIs(t, w.m.View(func() error { return boom }), boom)
}

func TestObserveHistory(t *testing.T) {
	w := newWorld(t)
	var events []HistoryEvent
	w.m.ObserveHistory(func(ev HistoryEvent) { events = append(events, ev) })

	require.True(t, w.restrict("Car", "Red"))
	assert.False(t, w.restrict("Sedan", "Blue"))
	w.m.SetConfirmer(AcceptAll)
	require.True(t, w.restrict("Sedan", "Blue"))
	_, err := w.m.Undo()
	require.NoError(t, err)

	ops := make([]string, len(events))
	for i, ev := range events {
		ops[i] = ev.Op
	}
	assert.Equal(t, []string{"perform", "declined", "confirmed", "perform", "undo"}, ops)

	first := events[0]
	assert.Equal(t, ConstraintEdit, first.Location.Kind)
	assert.True(t, first.Location.Added)
	assert.Same(t, w.vehicles, first.Location.Hierarchy)
	assert.Equal(t, 1, first.UndoDepth)

	declined := events[1]
	assert.Equal(t, "addition", declined.Check)
	assert.Equal(t, 1, declined.Conflicts)
	assert.NotEmpty(t, declined.Subject)
	assert.Nil(t, declined.Location.Hierarchy)

	assert.Equal(t, 1, events[4].UndoDepth)
	assert.Equal(t, 1, events[4].RedoDepth)
}
