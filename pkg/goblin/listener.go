package goblin

// ConceptListener is notified of changes to a concept. A listener follows the
// logical concept across replacement.
//
// Listeners run synchronously while the model lock is held. They may query
// the model but must not mutate it.
type ConceptListener interface {
	ChildAdded(child *Concept, replacing bool)
	ConstraintAdded(k *Constraint)
	ConstraintRemoved(k *Constraint)
	ConceptRemoved(c *Concept, replacing bool)
}

// ListenerFuncs adapts optional functions to the ConceptListener interface.
type ListenerFuncs struct {
	OnChildAdded        func(child *Concept, replacing bool)
	OnConstraintAdded   func(k *Constraint)
	OnConstraintRemoved func(k *Constraint)
	OnConceptRemoved    func(c *Concept, replacing bool)
}

func (f *ListenerFuncs) ChildAdded(child *Concept, replacing bool) {
	if f.OnChildAdded != nil {
		f.OnChildAdded(child, replacing)
	}
}

func (f *ListenerFuncs) ConstraintAdded(k *Constraint) {
	if f.OnConstraintAdded != nil {
		f.OnConstraintAdded(k)
	}
}

func (f *ListenerFuncs) ConstraintRemoved(k *Constraint) {
	if f.OnConstraintRemoved != nil {
		f.OnConstraintRemoved(k)
	}
}

func (f *ListenerFuncs) ConceptRemoved(c *Concept, replacing bool) {
	if f.OnConceptRemoved != nil {
		f.OnConceptRemoved(c, replacing)
	}
}

// EventKind identifies a post-mutation model event.
type EventKind int

const (
	ConceptAdded EventKind = iota
	ConceptRemoved
	ConstraintAdded
	ConstraintRemoved
)

func (k EventKind) String() string {
	switch k {
	case ConceptAdded:
		return "concept_added"
	case ConceptRemoved:
		return "concept_removed"
	case ConstraintAdded:
		return "constraint_added"
	case ConstraintRemoved:
		return "constraint_removed"
	default:
		return "unknown"
	}
}

// Event describes one atomic change to the model.
type Event struct {
	Kind       EventKind
	Hierarchy  *Hierarchy
	Concept    *Concept    // the concept added or removed, or the constraint's source
	Constraint *Constraint // nil for concept events
	Replacing  bool        // true when the change is half of a replacement
}

// HistoryEvent describes one step of the edit history: a perform, undo or
// redo, or the outcome of a conflict check that asked the confirmer.
type HistoryEvent struct {
	Op        string       // perform, undo, redo, confirmed or declined
	Check     string       // addition or move, for confirmed and declined
	Subject   string       // what the conflict check was about
	Conflicts int          // conflicting constraints found by the check
	Location  EditLocation // zero for confirmed and declined
	UndoDepth int
	RedoDepth int
}
