// Package identity maps external names onto concept ids.
//
// Dynamic concepts are named by the user; content concepts are named by the
// content they describe. Both are scoped to a namespace URI so ids from
// different models never collide.
package identity

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/validation"
	"github.com/google/uuid"
)

// Allocator produces concept ids.
type Allocator interface {
	// Dynamic returns the id of a user-named concept.
	Dynamic(name, label string) (goblin.EntityID, error)
	// Content returns the id described by a content id spec.
	Content(spec validation.ContentIDSpec) (goblin.EntityID, error)
	// Resolve returns the id previously issued for name.
	Resolve(name string) (goblin.EntityID, bool)
}

// NamespaceAllocator allocates ids of the form namespace#name and remembers
// the last id issued for each name.
type NamespaceAllocator struct {
	namespace string

	mu        sync.Mutex
	issued    map[string]goblin.EntityID
	generated int
}

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "urn:goblin"

// NewNamespaceAllocator creates an allocator for the given namespace.
// A trailing '#' is trimmed.
func NewNamespaceAllocator(namespace string) *NamespaceAllocator {
	namespace = strings.TrimSuffix(validation.DefaultOr(namespace, DefaultNamespace), "#")
	return &NamespaceAllocator{namespace: namespace, issued: make(map[string]goblin.EntityID)}
}

// Namespace returns the namespace URI.
func (a *NamespaceAllocator) Namespace() string { return a.namespace }

// Generated returns how many content names have been generated.
func (a *NamespaceAllocator) Generated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generated
}

// Dynamic returns namespace#name, labelled with label or the name.
func (a *NamespaceAllocator) Dynamic(name, label string) (goblin.EntityID, error) {
	if err := validation.ValidateName(name); err != nil {
		return goblin.EntityID{}, fmt.Errorf("dynamic id: %w", err)
	}
	return a.issue(name, goblin.NewEntityID(a.uri(a.namespace, name), validation.DefaultOr(label, name))), nil
}

// Content returns the id for spec. The spec's namespace overrides the
// allocator's; an empty name is replaced by a random UUID.
func (a *NamespaceAllocator) Content(spec validation.ContentIDSpec) (goblin.EntityID, error) {
	spec.Namespace = validation.DefaultOr(spec.Namespace, a.namespace)
	if err := validation.ValidateContentIDSpec(&spec); err != nil {
		return goblin.EntityID{}, fmt.Errorf("content id: %w", err)
	}

	name := spec.Name
	if name == "" {
		name = uuid.New().String()
		a.mu.Lock()
		a.generated++
		a.mu.Unlock()
	}
	return a.issue(name, goblin.NewEntityID(a.uri(strings.TrimSuffix(spec.Namespace, "#"), name), validation.DefaultOr(spec.Label, name))), nil
}

// Resolve returns the last id issued for name. Names never issued resolve to
// the unlabelled dynamic id when they are well formed.
func (a *NamespaceAllocator) Resolve(name string) (goblin.EntityID, bool) {
	a.mu.Lock()
	id, ok := a.issued[name]
	a.mu.Unlock()
	if ok {
		return id, true
	}
	if validation.ValidateName(name) != nil {
		return goblin.EntityID{}, false
	}
	return goblin.NewEntityID(a.uri(a.namespace, name), name), false
}

func (a *NamespaceAllocator) issue(name string, id goblin.EntityID) goblin.EntityID {
	a.mu.Lock()
	a.issued[name] = id
	a.mu.Unlock()
	return id
}

// Name recovers the local name from an id allocated in this namespace.
func (a *NamespaceAllocator) Name(id goblin.EntityID) (string, bool) {
	return strings.CutPrefix(id.URI, a.namespace+"#")
}

func (a *NamespaceAllocator) uri(namespace, name string) string {
	return namespace + "#" + name
}
