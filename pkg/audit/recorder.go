package audit

import (
	"sync"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/logging"
)

// Recorder turns a model's history events into journal entries.
type Recorder struct {
	logger logging.Logger

	mu    sync.Mutex
	sinks []Sink
}

// Record starts journaling m's history to every sink. Sink failures are
// logged and never fail the edit.
func Record(m *goblin.Model, logger logging.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &Recorder{
		logger: logger.With(logging.Component("audit")),
		sinks:  sinks,
	}
	m.ObserveHistory(r.record)
	return r
}

// AddSink adds a sink for subsequent events.
func (r *Recorder) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// EventFor describes a history event.
func EventFor(ev goblin.HistoryEvent) *Event {
	e := &Event{
		Action:    Action(ev.Op),
		Conflicts: ev.Conflicts,
		UndoDepth: ev.UndoDepth,
		RedoDepth: ev.RedoDepth,
	}
	switch e.Action {
	case ActionConfirmed, ActionDeclined:
		e.Kind = ev.Check
		e.Subject = ev.Subject
		return e
	}

	loc := ev.Location
	e.Added = loc.Added
	if loc.Hierarchy != nil {
		e.Hierarchy = loc.Hierarchy.Name()
	}
	switch {
	case loc.Kind == goblin.ConstraintEdit && loc.Constraint != nil:
		e.Kind = "constraint"
		e.Subject = loc.Constraint.String()
	case loc.Concept != nil:
		e.Kind = "concept"
		e.Subject = loc.Concept.String()
	}
	return e
}

func (r *Recorder) record(ev goblin.HistoryEvent) {
	e := EventFor(ev)
	stamp(e)

	r.mu.Lock()
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.Unlock()

	for _, s := range sinks {
		if err := s.Log(e); err != nil {
			r.logger.Error("failed to journal edit",
				logging.Operation(string(e.Action)),
				logging.Error(err),
			)
		}
	}
}
