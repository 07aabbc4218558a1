package identity

import (
	"strings"
	"testing"

	"github.com/dd0wney/goblin/pkg/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceAllocator_Dynamic(t *testing.T) {
	a := NewNamespaceAllocator("urn:cars#")
	assert.Equal(t, "urn:cars", a.Namespace())

	id, err := a.Dynamic("Sedan", "")
	require.NoError(t, err)
	assert.Equal(t, "urn:cars#Sedan", id.URI)
	assert.Equal(t, "Sedan", id.Label, "label defaults to the name")

	id, err = a.Dynamic("Sedan", "Four-door saloon")
	require.NoError(t, err)
	assert.Equal(t, "Four-door saloon", id.String())

	name, ok := a.Name(id)
	assert.True(t, ok)
	assert.Equal(t, "Sedan", name)

	_, err = a.Dynamic("sports car", "")
	assert.Error(t, err)
}

func TestNamespaceAllocator_DefaultNamespace(t *testing.T) {
	a := NewNamespaceAllocator("")
	id, err := a.Dynamic("Car", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace+"#Car", id.URI)
}

func TestNamespaceAllocator_Content(t *testing.T) {
	a := NewNamespaceAllocator("urn:cars")

	id, err := a.Content(validation.ContentIDSpec{Name: "brochure"})
	require.NoError(t, err)
	assert.Equal(t, "urn:cars#brochure", id.URI, "spec inherits the allocator namespace")

	id, err = a.Content(validation.ContentIDSpec{Namespace: "urn:docs", Name: "brochure", Label: "Brochure"})
	require.NoError(t, err)
	assert.Equal(t, "urn:docs#brochure", id.URI)
	assert.Equal(t, "Brochure", id.Label)

	_, ok := a.Name(id)
	assert.False(t, ok, "foreign namespace")
	assert.Equal(t, 0, a.Generated())
}

func TestNamespaceAllocator_GeneratedContent(t *testing.T) {
	a := NewNamespaceAllocator("urn:docs")

	first, err := a.Content(validation.ContentIDSpec{})
	require.NoError(t, err)
	second, err := a.Content(validation.ContentIDSpec{Label: "Untitled"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, a.Generated())

	name, ok := a.Name(first)
	require.True(t, ok)
	_, err = uuid.Parse(name)
	assert.NoError(t, err)
	assert.Equal(t, "Untitled", second.Label)
	assert.True(t, strings.HasPrefix(second.URI, "urn:docs#"))
}

func TestNamespaceAllocator_InvalidContentName(t *testing.T) {
	a := NewNamespaceAllocator("urn:docs")
	_, err := a.Content(validation.ContentIDSpec{Name: "has space"})
	assert.Error(t, err)
}

func TestNamespaceAllocator_Resolve(t *testing.T) {
	a := NewNamespaceAllocator("urn:cars")

	issued, err := a.Dynamic("Sedan", "Saloon")
	require.NoError(t, err)

	id, ok := a.Resolve("Sedan")
	assert.True(t, ok)
	assert.Equal(t, issued, id)

	id, ok = a.Resolve("Coupe")
	assert.False(t, ok)
	assert.Equal(t, "urn:cars#Coupe", id.URI)
	assert.Equal(t, "Coupe", id.Label)

	id, ok = a.Resolve("not a name")
	assert.False(t, ok)
	assert.True(t, id.IsZero())
}

var _ Allocator = (*NamespaceAllocator)(nil)
