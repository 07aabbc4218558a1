package pubsub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/logging"
)

// AllTopic receives every notification regardless of hierarchy.
const AllTopic = "model"

// HierarchyTopic returns the topic for changes to the named hierarchy.
func HierarchyTopic(name string) string {
	return "hierarchy/" + name
}

// Notification is a detached description of one model change. It carries
// names rather than live values so subscribers never touch the model from
// another goroutine.
type Notification struct {
	Seq        uint64    `json:"seq"`
	Kind       string    `json:"kind"`
	Hierarchy  string    `json:"hierarchy"`
	Concept    string    `json:"concept,omitempty"`
	Constraint string    `json:"constraint,omitempty"`
	Replacing  bool      `json:"replacing"`
	At         time.Time `json:"at"`
}

// NotificationFor describes ev.
func NotificationFor(ev goblin.Event) Notification {
	n := Notification{
		Kind:      ev.Kind.String(),
		Replacing: ev.Replacing,
		At:        time.Now(),
	}
	if ev.Hierarchy != nil {
		n.Hierarchy = ev.Hierarchy.Name()
	}
	if ev.Concept != nil {
		n.Concept = ev.Concept.String()
	}
	if ev.Constraint != nil {
		n.Constraint = ev.Constraint.String()
	}
	return n
}

// Bridge publishes the events of a Model.
type Bridge struct {
	ps     *PubSub
	logger logging.Logger
	seq    atomic.Uint64

	mu      sync.Mutex
	stopped bool
}

// Attach starts publishing m's events on ps. Events fire under the model's
// lock, so publishing stays non-blocking.
func Attach(m *goblin.Model, ps *PubSub, logger logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	b := &Bridge{ps: ps, logger: logger.With(logging.Component("pubsub"))}
	m.Observe(b.publish)
	return b
}

// Detach stops publishing. The model keeps the observer, which becomes a no-op.
func (b *Bridge) Detach() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

// Published returns the sequence number of the last notification.
func (b *Bridge) Published() uint64 {
	return b.seq.Load()
}

func (b *Bridge) publish(ev goblin.Event) {
	b.mu.Lock()
	stopped := b.stopped
	b.mu.Unlock()
	if stopped {
		return
	}

	n := NotificationFor(ev)
	n.Seq = b.seq.Add(1)

	delivered := b.ps.Publish(AllTopic, n)
	if n.Hierarchy != "" {
		delivered += b.ps.Publish(HierarchyTopic(n.Hierarchy), n)
	}
	b.logger.Debug("model event published",
		logging.String("kind", n.Kind),
		logging.Hierarchy(n.Hierarchy),
		logging.Count(delivered),
	)
}
