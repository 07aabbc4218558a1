// Package indirect provides stable handles onto entities that are replaced
// rather than mutated.
//
// A Tracker always resolves to the current version of a logical entity. When
// an entity is structurally replaced (moved, renamed, trimmed) the owning
// Registry redirects the tracker to the replacement, so holders of the tracker
// observe the new value without being told about the substitution.
package indirect

import "sync"

// Tracker is a handle onto the current version of a logical entity.
type Tracker[E any] struct {
	mu     sync.RWMutex
	entity E
}

// Get returns the entity the tracker is currently bound to.
func (t *Tracker[E]) Get() E {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entity
}

func (t *Tracker[E]) bind(entity E) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entity = entity
}

// Registry maps entities to trackers by key equality.
type Registry[K comparable, E any] struct {
	mu       sync.Mutex
	keyOf    func(E) K
	trackers map[K]*Tracker[E]
}

// NewRegistry creates a registry that identifies entities through keyOf.
func NewRegistry[K comparable, E any](keyOf func(E) K) *Registry[K, E] {
	return &Registry[K, E]{
		keyOf:    keyOf,
		trackers: make(map[K]*Tracker[E]),
	}
}

// HandleFor returns the tracker registered for an entity with an equal key,
// creating and registering one if none exists.
func (r *Registry[K, E]) HandleFor(entity E) *Tracker[E] {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.keyOf(entity)
	if t, ok := r.trackers[key]; ok {
		return t
	}
	t := &Tracker[E]{entity: entity}
	r.trackers[key] = t
	return t
}

// Bind returns the tracker for entity, binding it to entity. Use it when an
// entity becomes the current version of its key by means other than
// replacement, e.g. when it is re-inserted after an unrelated entity with the
// same key was discarded.
func (r *Registry[K, E]) Bind(entity E) *Tracker[E] {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.keyOf(entity)
	t, ok := r.trackers[key]
	if !ok {
		t = &Tracker[E]{}
		r.trackers[key] = t
	}
	t.bind(entity)
	return t
}

// Lookup returns the tracker registered for an entity with an equal key
// without creating one.
func (r *Registry[K, E]) Lookup(entity E) (*Tracker[E], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[r.keyOf(entity)]
	return t, ok
}

// Redirect rebinds the tracker of oldEntity to newEntity and re-registers it
// under the new key. It does nothing if oldEntity was never tracked. It
// returns false, leaving the registry unchanged, if the new key already
// belongs to a different tracker.
func (r *Registry[K, E]) Redirect(oldEntity, newEntity E) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	oldKey, newKey := r.keyOf(oldEntity), r.keyOf(newEntity)
	t, ok := r.trackers[oldKey]
	if !ok {
		return true
	}
	if other, taken := r.trackers[newKey]; taken && other != t {
		return false
	}
	delete(r.trackers, oldKey)
	t.bind(newEntity)
	r.trackers[newKey] = t
	return true
}

// Tracked reports whether an entity with an equal key has a tracker.
func (r *Registry[K, E]) Tracked(entity E) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.trackers[r.keyOf(entity)]
	return ok
}

// Len returns the number of registered trackers.
func (r *Registry[K, E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}
