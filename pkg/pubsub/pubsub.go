// Package pubsub fans model change notifications out to subscribers.
//
// Each hierarchy has its own topic, and every notification is also published
// on AllTopic. Publishing never blocks: a subscriber whose buffer is full
// misses the notification and the drop is counted.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrShutdown is returned when subscribing to a shut down PubSub.
var ErrShutdown = errors.New("pubsub is shut down")

// DefaultBuffer is the per-subscription channel capacity
const DefaultBuffer = 100

// PubSub provides publish/subscribe of model notifications
type PubSub struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
	dropped     atomic.Uint64
}

// Subscription represents a subscription to a topic
type Subscription struct {
	topic     string
	channel   chan Notification
	ps        *PubSub
	ctx       context.Context
	cancel    context.CancelFunc

	mu     sync.RWMutex // guards channel against close during send
	closed bool
}

// NewPubSub creates a new PubSub instance
func NewPubSub() *PubSub {
	return NewPubSubWithBuffer(DefaultBuffer)
}

// NewPubSubWithBuffer creates a PubSub whose subscriptions buffer n
// notifications.
func NewPubSubWithBuffer(n int) *PubSub {
	if n < 1 {
		n = 1
	}
	return &PubSub{
		subscribers: make(map[string]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		buffer:      n,
	}
}

// Subscribe creates a new subscription to a topic. The subscription ends when
// ctx is cancelled, Unsubscribe is called, or the PubSub shuts down.
func (ps *PubSub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	ps.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Notification, ps.buffer),
		ps:      ps,
		ctx:     subCtx,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription]bool)
	}
	ps.subscribers[topic][sub] = true
	ps.mu.Unlock()

	// Monitor context cancellation
	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.close()
		}
	}()

	return sub, nil
}

// Publish sends a notification to all subscribers of a topic and returns how
// many received it. Uses a snapshot copy to avoid holding the lock during
// channel sends.
func (ps *PubSub) Publish(topic string, n Notification) int {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return 0
	}
	ps.shutdownMu.Unlock()

	ps.mu.RLock()
	topicSubs := ps.subscribers[topic]
	if len(topicSubs) == 0 {
		ps.mu.RUnlock()
		return 0
	}
	subs := make([]*Subscription, 0, len(topicSubs))
	for sub := range topicSubs {
		subs = append(subs, sub)
	}
	ps.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		switch sub.send(n) {
		case sendDelivered:
			delivered++
		case sendFull:
			ps.dropped.Add(1)
		}
	}
	return delivered
}

// Dropped returns how many notifications were skipped because a subscriber's
// buffer was full.
func (ps *PubSub) Dropped() uint64 {
	return ps.dropped.Load()
}

// GetSubscriberCount returns the number of subscribers for a topic
func (ps *PubSub) GetSubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.subscribers[topic])
}

// Shutdown closes all subscriptions and shuts down the PubSub
func (ps *PubSub) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	ps.shutdownMu.Unlock()

	close(ps.shutdown)

	ps.mu.Lock()
	for topic := range ps.subscribers {
		for sub := range ps.subscribers[topic] {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Topic returns the subscribed topic
func (s *Subscription) Topic() string { return s.topic }

// Channel returns the subscription's notification channel. It is closed when
// the subscription ends.
func (s *Subscription) Channel() <-chan Notification {
	return s.channel
}

// Unsubscribe removes the subscription
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if s.ps.subscribers[s.topic] != nil {
		delete(s.ps.subscribers[s.topic], s)
		if len(s.ps.subscribers[s.topic]) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}

	s.close()
}

type sendResult int

const (
	sendDelivered sendResult = iota
	sendFull
	sendClosed
)

// send delivers without blocking.
func (s *Subscription) send(n Notification) sendResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return sendClosed
	}
	select {
	case s.channel <- n:
		return sendDelivered
	default:
		return sendFull
	}
}

// close closes the subscription channel safely (idempotent)
func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.channel)
	}
}
