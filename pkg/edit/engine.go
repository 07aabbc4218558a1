package edit

import (
	"errors"
	"sync"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Operation identifies what the engine did with an action.
type Operation int

const (
	OpPerform Operation = iota
	OpUndo
	OpRedo
)

func (o Operation) String() string {
	switch o {
	case OpPerform:
		return "perform"
	case OpUndo:
		return "undo"
	case OpRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// Edit describes the headline atomic change made by a perform, undo or redo.
type Edit struct {
	Added  bool   // true if the target was inserted, false if deleted
	Target Target // the entity inserted or deleted
}

// Event is passed to the engine observer after every operation.
type Event struct {
	Op        Operation
	Action    Action
	Edit      Edit
	UndoDepth int
	RedoDepth int
}

// Engine holds the done and undone stacks.
//
// A fresh Perform discards the redo stack: once a new edit has been made after
// an undo, the undone edits no longer apply to the current state.
type Engine struct {
	mu       sync.Mutex
	done     []Action
	undone   []Action
	observer func(Event)
}

// NewEngine creates an engine with empty stacks.
func NewEngine() *Engine {
	return &Engine{
		done:   make([]Action, 0),
		undone: make([]Action, 0),
	}
}

// SetObserver installs a function called after every perform, undo and redo.
func (e *Engine) SetObserver(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = fn
}

// Perform applies an action forward and pushes it onto the undo stack.
//
// Actions are applied outside the engine lock so that listeners reacting to
// the change may query the engine.
func (e *Engine) Perform(a Action) Edit {
	a.Apply(true)

	e.mu.Lock()
	e.done = append(e.done, a)
	clear(e.undone)
	e.undone = e.undone[:0]
	edit := primaryEdit(a, true)
	ev := e.eventLocked(OpPerform, a, edit)
	obs := e.observer
	e.mu.Unlock()

	if obs != nil {
		obs(ev)
	}
	return edit
}

// Undo replays the most recent action backward.
func (e *Engine) Undo() (Edit, error) {
	return e.flip(false)
}

// Redo replays the most recently undone action forward.
func (e *Engine) Redo() (Edit, error) {
	return e.flip(true)
}

// flip pops the origin stack, replays the action in the requested direction
// and pushes it onto the destination stack.
func (e *Engine) flip(forward bool) (Edit, error) {
	e.mu.Lock()
	origin := &e.done
	if forward {
		origin = &e.undone
	}
	if len(*origin) == 0 {
		e.mu.Unlock()
		if forward {
			return Edit{}, ErrNothingToRedo
		}
		return Edit{}, ErrNothingToUndo
	}
	last := len(*origin) - 1
	a := (*origin)[last]
	(*origin)[last] = nil
	*origin = (*origin)[:last]
	e.mu.Unlock()

	a.Apply(forward)

	e.mu.Lock()
	op := OpUndo
	if forward {
		op = OpRedo
		e.done = append(e.done, a)
	} else {
		e.undone = append(e.undone, a)
	}
	edit := primaryEdit(a, forward)
	ev := e.eventLocked(op, a, edit)
	obs := e.observer
	e.mu.Unlock()

	if obs != nil {
		obs(ev)
	}
	return edit, nil
}

func (e *Engine) eventLocked(op Operation, a Action, edit Edit) Event {
	return Event{
		Op:        op,
		Action:    a,
		Edit:      edit,
		UndoDepth: len(e.done),
		RedoDepth: len(e.undone),
	}
}

func primaryEdit(a Action, forward bool) Edit {
	p := a.Primary(forward)
	if p == nil {
		return Edit{}
	}
	return Edit{Added: forward == p.add, Target: p.target}
}

// CanUndo reports whether there is an action to undo.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.done) > 0
}

// CanRedo reports whether there is an action to redo.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undone) > 0
}

// UndoDepth returns the number of actions on the undo stack.
func (e *Engine) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.done)
}

// RedoDepth returns the number of actions on the redo stack.
func (e *Engine) RedoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undone)
}

// Clear empties both stacks without replaying anything.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.done)
	clear(e.undone)
	e.done = e.done[:0]
	e.undone = e.undone[:0]
}
