// Package audit journals the edit history of a goblin Model.
//
// Every perform, undo and redo, and every conflict check the confirmer
// answered, becomes an Event. Events are kept in a bounded in-memory Journal
// and can also be appended to a hash-chained file so that tampering is
// detectable after the fact.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is what happened to the history.
type Action string

const (
	ActionPerform   Action = "perform"
	ActionUndo      Action = "undo"
	ActionRedo      Action = "redo"
	ActionConfirmed Action = "confirmed"
	ActionDeclined  Action = "declined"
)

// Event is a single journal entry.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    Action         `json:"action"`
	Kind      string         `json:"kind,omitempty"`
	Added     bool           `json:"added"`
	Hierarchy string         `json:"hierarchy,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Conflicts int            `json:"conflicts,omitempty"`
	UndoDepth int            `json:"undo_depth"`
	RedoDepth int            `json:"redo_depth"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// String renders the event on one line.
func (e *Event) String() string {
	switch e.Action {
	case ActionConfirmed, ActionDeclined:
		return fmt.Sprintf("[%s] %s %s check on %s (%d conflict(s))",
			e.Timestamp.Format(time.RFC3339), e.Action, e.Kind, e.Subject, e.Conflicts)
	}
	verb := "removed"
	if e.Added {
		verb = "added"
	}
	where := ""
	if e.Hierarchy != "" {
		where = " in " + e.Hierarchy
	}
	return fmt.Sprintf("[%s] %s: %s %s %s%s (undo %d, redo %d)",
		e.Timestamp.Format(time.RFC3339), e.Action, e.Kind, e.Subject, verb, where, e.UndoDepth, e.RedoDepth)
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Action    Action
	Hierarchy string
	Subject   string
	StartTime *time.Time
	EndTime   *time.Time
}

func (f *Filter) matches(e *Event) bool {
	if f == nil {
		return true
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Hierarchy != "" && e.Hierarchy != f.Hierarchy {
		return false
	}
	if f.Subject != "" && e.Subject != f.Subject {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}

// Sink receives journal events.
type Sink interface {
	Log(event *Event) error
}

// Journal keeps the most recent events in a circular buffer.
type Journal struct {
	mu     sync.RWMutex
	events []*Event
	index  int
	count  int
	total  int64
}

// NewJournal creates a journal holding up to size events.
func NewJournal(size int) *Journal {
	if size < 1 {
		size = 1
	}
	return &Journal{events: make([]*Event, size)}
}

// Log stores event, stamping its ID and timestamp when unset. Once the
// journal is full the oldest event is overwritten.
func (j *Journal) Log(event *Event) error {
	stamp(event)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.events[j.index] = event
	j.index = (j.index + 1) % len(j.events)
	if j.count < len(j.events) {
		j.count++
	}
	j.total++
	return nil
}

// Events returns the stored events matching filter, oldest first.
func (j *Journal) Events(filter *Filter) []*Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	size := len(j.events)
	result := make([]*Event, 0, j.count)
	for i := 0; i < j.count; i++ {
		e := j.events[(j.index-j.count+i+size)%size]
		if e != nil && filter.matches(e) {
			result = append(result, e)
		}
	}
	return result
}

// Recent returns up to n events, newest first.
func (j *Journal) Recent(n int) []*Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if n > j.count {
		n = j.count
	}
	size := len(j.events)
	result := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		if e := j.events[(j.index-1-i+size)%size]; e != nil {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of events currently stored.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.count
}

// Total returns how many events were ever logged, including overwritten ones.
func (j *Journal) Total() int64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.total
}

// Clear drops every stored event.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = make([]*Event, len(j.events))
	j.index, j.count = 0, 0
}

func stamp(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
}
