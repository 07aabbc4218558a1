package goblin

import (
	"sync"

	"github.com/dd0wney/goblin/pkg/edit"
	"github.com/dd0wney/goblin/pkg/indirect"
	"github.com/dd0wney/goblin/pkg/logging"
	"github.com/dd0wney/goblin/pkg/metrics"
)

// Verifier checks model invariants after every edit.
type Verifier interface {
	Verify(m *Model) error
}

// Model is a set of hierarchies edited through a shared undo history.
//
// A single mutex serialises every mutation and every undo or redo. Queries
// are not synchronised: callers that mutate from several goroutines wrap
// their queries in View.
type Model struct {
	mu          sync.Mutex
	hierarchies []*Hierarchy
	engine      *edit.Engine
	concepts    *indirect.Registry[*conceptLinks, *Concept]
	constraints *indirect.Registry[*Constraint, *Constraint]
	confirmer   Confirmer
	verifier    Verifier
	logger      logging.Logger
	metrics     *metrics.Registry
	observers   []func(Event)
	history     []func(HistoryEvent)
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. The default logs nothing.
func WithLogger(l logging.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the metrics registry. The default is a private registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(m *Model) {
		if r != nil {
			m.metrics = r
		}
	}
}

// WithConfirmer sets the collaborator asked about conflicting edits. The
// default declines every conflicting edit.
func WithConfirmer(c Confirmer) Option {
	return func(m *Model) {
		if c != nil {
			m.confirmer = c
		}
	}
}

// WithVerifier installs an invariant check run after every perform, undo and
// redo. Failures are logged.
func WithVerifier(v Verifier) Option {
	return func(m *Model) {
		m.verifier = v
	}
}

// NewModel creates an empty model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		engine:      edit.NewEngine(),
		concepts:    indirect.NewRegistry(func(c *Concept) *conceptLinks { return c.links }),
		constraints: indirect.NewRegistry(func(k *Constraint) *Constraint { return k }),
		confirmer:   DeclineAll,
		logger:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = metrics.NewRegistry()
	}
	m.logger = m.logger.With(logging.Component("model"))
	m.engine.SetObserver(m.engineEvent)
	return m
}

// Logger returns the model's logger.
func (m *Model) Logger() logging.Logger { return m.logger }

// Metrics returns the model's metrics registry.
func (m *Model) Metrics() *metrics.Registry { return m.metrics }

// SetConfirmer replaces the conflict confirmation collaborator.
func (m *Model) SetConfirmer(c Confirmer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c == nil {
		c = DeclineAll
	}
	m.confirmer = c
}

// Observe registers a function called after every atomic change. Observers
// run with the model lock held and must not mutate the model.
func (m *Model) Observe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// View runs fn with the model lock held so no edit can interleave with it.
// fn must not mutate the model.
func (m *Model) View(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

// ObserveHistory registers fn to run after every perform, undo and redo, and
// after every conflict check the confirmer answered. fn runs with the model
// lock held and must not mutate the model.
func (m *Model) ObserveHistory(fn func(HistoryEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, fn)
}

func (m *Model) emitHistory(ev HistoryEvent) {
	for _, fn := range m.history {
		fn(ev)
	}
}

func (m *Model) emit(ev Event) {
	for _, fn := range m.observers {
		fn(ev)
	}
}

// AddHierarchy creates a hierarchy rooted at a new root concept. Creating a
// hierarchy is part of model setup and is not undoable.
func (m *Model) AddHierarchy(rootID EntityID) (*Hierarchy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rootID.IsZero() {
		return nil, NewError("add-hierarchy").Hierarchy(rootID).Context("empty id").Cause(ErrConceptNotFound).Err()
	}
	if m.lookup(rootID) != nil {
		return nil, NewError("add-hierarchy").Hierarchy(rootID).Cause(ErrDuplicateID).Err()
	}

	h := &Hierarchy{
		model: m,
		index: make(map[EntityID]*Concept),
	}
	root := newConcept(rootID, RootConcept, h, nil)
	root.attached = true
	h.root = root
	h.index[rootID] = root
	m.concepts.Bind(root)
	m.hierarchies = append(m.hierarchies, h)

	m.metrics.SetModelSize(h.Name(), h.ConceptCount(), h.ConstraintCount())
	m.logger.Info("hierarchy created", logging.Hierarchy(h.Name()))
	return h, nil
}

// Hierarchy returns the hierarchy whose root has the given id.
func (m *Model) Hierarchy(rootID EntityID) (*Hierarchy, error) {
	for _, h := range m.hierarchies {
		if h.root.id == rootID {
			return h, nil
		}
	}
	return nil, HierarchyNotFoundError(rootID)
}

// Hierarchies returns every hierarchy in creation order.
func (m *Model) Hierarchies() []*Hierarchy {
	return append([]*Hierarchy(nil), m.hierarchies...)
}

// Concept looks up an attached concept in any hierarchy.
func (m *Model) Concept(id EntityID) (*Concept, error) {
	if c := m.lookup(id); c != nil {
		return c, nil
	}
	return nil, ConceptNotFoundError(id)
}

// HierarchyOf returns the hierarchy holding the concept with the given id.
func (m *Model) HierarchyOf(id EntityID) (*Hierarchy, error) {
	if c := m.lookup(id); c != nil {
		return c.h, nil
	}
	return nil, NewError("lookup").Concept(id).Cause(ErrHierarchyNotFound).Err()
}

func (m *Model) lookup(id EntityID) *Concept {
	for _, h := range m.hierarchies {
		if c, ok := h.index[id]; ok {
			return c
		}
	}
	return nil
}

// ConceptHandle returns a tracker that always yields the current version of
// the concept.
func (m *Model) ConceptHandle(c *Concept) *indirect.Tracker[*Concept] {
	return m.concepts.HandleFor(c)
}

// ConstraintHandle returns a tracker that always yields the current version
// of the constraint.
func (m *Model) ConstraintHandle(k *Constraint) *indirect.Tracker[*Constraint] {
	return m.constraints.HandleFor(k)
}

// perform runs an action through the engine. The caller holds m.mu.
func (m *Model) perform(a edit.Action) edit.Edit {
	return m.engine.Perform(a)
}

// CanUndo reports whether there is an edit to undo.
func (m *Model) CanUndo() bool { return m.engine.CanUndo() }

// CanRedo reports whether there is an edit to redo.
func (m *Model) CanRedo() bool { return m.engine.CanRedo() }

// UndoDepth returns the number of edits that can be undone.
func (m *Model) UndoDepth() int { return m.engine.UndoDepth() }

// RedoDepth returns the number of edits that can be redone.
func (m *Model) RedoDepth() int { return m.engine.RedoDepth() }

// Undo reverts the most recent edit and reports where it happened.
func (m *Model) Undo() (EditLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.engine.Undo()
	if err != nil {
		return EditLocation{}, err
	}
	return locate(e), nil
}

// Redo re-applies the most recently undone edit and reports where it
// happened.
func (m *Model) Redo() (EditLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.engine.Redo()
	if err != nil {
		return EditLocation{}, err
	}
	return locate(e), nil
}

// ClearHistory forgets every undoable edit. The current state becomes the
// baseline.
func (m *Model) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.Clear()
	m.metrics.RecordEditAction("clear", 0, 0)
}

func (m *Model) engineEvent(ev edit.Event) {
	loc := locate(ev.Edit)
	fields := []logging.Field{
		logging.Operation(ev.Op.String()),
		logging.Bool("added", loc.Added),
		logging.Int("undo_depth", ev.UndoDepth),
		logging.Int("redo_depth", ev.RedoDepth),
	}
	if loc.Hierarchy != nil {
		fields = append(fields, logging.Hierarchy(loc.Hierarchy.Name()))
	}
	if loc.Concept != nil {
		fields = append(fields, logging.Concept(loc.Concept.String()))
	}
	if loc.Constraint != nil {
		fields = append(fields, logging.Constraint(loc.Constraint.String()))
	}
	switch ev.Op {
	case edit.OpPerform:
		m.logger.Debug("edit performed", fields...)
	case edit.OpUndo:
		m.logger.Info("edit undone", fields...)
	case edit.OpRedo:
		m.logger.Info("edit redone", fields...)
	}

	m.metrics.RecordEditAction(ev.Op.String(), ev.UndoDepth, ev.RedoDepth)
	m.emitHistory(HistoryEvent{
		Op:        ev.Op.String(),
		Location:  loc,
		UndoDepth: ev.UndoDepth,
		RedoDepth: ev.RedoDepth,
	})
	for _, h := range m.hierarchies {
		m.metrics.SetModelSize(h.Name(), h.ConceptCount(), h.ConstraintCount())
	}

	if m.verifier != nil {
		if err := m.verifier.Verify(m); err != nil {
			m.logger.Error("model integrity check failed", append(fields, logging.Error(err))...)
		}
	}
}
